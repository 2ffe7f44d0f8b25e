package api

import (
	"net/http"
	"time"

	"github.com/jbattja/fugata-sub001/internal/api/middleware"
	"github.com/jbattja/fugata-sub001/internal/audit"
	"github.com/jbattja/fugata-sub001/internal/bridge"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/service"
	"github.com/jbattja/fugata-sub001/internal/tasks"
)

type Server struct {
	serviceName   string
	validator     core.CredentialValidator
	codec         core.ActionCodec
	source        core.ActionSource
	consumed      core.ConsumedStore
	auditor       core.Auditor
	tokenService  *service.TokenService
	taskManager   *tasks.Manager
	bridgeTimeout time.Duration
}

func NewServer(
	serviceName string,
	validator core.CredentialValidator,
	codec core.ActionCodec,
	source core.ActionSource,
	consumed core.ConsumedStore,
	auditor core.Auditor,
	tokenService *service.TokenService,
	taskManager *tasks.Manager,
	bridgeTimeout time.Duration,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	if taskManager == nil {
		taskManager = tasks.NewManager()
	}

	return &Server{
		serviceName:   serviceName,
		validator:     validator,
		codec:         codec,
		source:        source,
		consumed:      consumed,
		auditor:       auditor,
		tokenService:  tokenService,
		taskManager:   taskManager,
		bridgeTimeout: bridgeTimeout,
	}
}

// newBridge builds a fresh single-shot bridge for one shopper arrival.
func (s *Server) newBridge() *bridge.Bridge {
	return bridge.New(s.source, s.codec, s.consumed, s.bridgeTimeout)
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// token exchange route
	mux.HandleFunc("POST "+IssueTokenRoute, s.handleIssue)

	// bridge routes reached by shopper browsers and partner POST-backs
	mux.HandleFunc("GET "+FetchActionRoute, s.handleFetchAction)
	mux.HandleFunc("POST "+DecryptActionRoute, s.handleDecryptAction)
	mux.HandleFunc("GET "+NavigateRoute, s.handleNavigate)
	mux.HandleFunc("POST "+PartnerReturnRoute, s.handlePartnerReturn)

	// service-to-service routes requiring a platform credential
	mux.Handle("POST "+EncryptActionRoute,
		middleware.RequireCredential(s.validator, s.serviceName, core.ScopePaymentsWrite)(
			http.HandlerFunc(s.handleEncryptAction)))

	// maintenance task routes; any valid credential for this service will do
	taskMux := http.NewServeMux()
	taskMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	taskMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	taskMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(TaskParent, middleware.RequireCredential(s.validator, s.serviceName)(taskMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
