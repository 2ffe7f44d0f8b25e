package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jbattja/fugata-sub001/internal/audit"
	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/config"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/envelope"
	"github.com/jbattja/fugata-sub001/internal/policy"
	"github.com/jbattja/fugata-sub001/internal/service"
	"github.com/jbattja/fugata-sub001/internal/store"
	"github.com/jbattja/fugata-sub001/internal/upstream"
)

const (
	testServiceName   = "auth-bridge"
	testSigningSecret = "test-signing-secret"
	testSessionToken  = "sess-admin"
)

type fakeSource struct {
	actions map[string]*core.RedirectAction
}

func (f *fakeSource) PendingAction(_ context.Context, paymentID string) (*core.RedirectAction, error) {
	action, ok := f.actions[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: no pending action for '%s'", core.ErrNotFound, paymentID)
	}
	return action, nil
}

type testEnv struct {
	server  *Server
	issuer  *auth.Issuer
	codec   *envelope.Codec
	source  *fakeSource
	auditor *audit.InMemoryAuditor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer, err := auth.NewIssuer(testServiceName, []byte(testSigningSecret),
		core.KnownScopes(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	validator, err := auth.NewValidator([]byte(testSigningSecret))
	if err != nil {
		t.Fatal(err)
	}
	codec, err := envelope.NewCodec([]byte("test-envelope-secret"), "test-key")
	if err != nil {
		t.Fatal(err)
	}

	static, err := upstream.NewStatic(config.UpstreamConfig{
		Name: "dashboard",
		Type: "static",
		Config: map[string]any{
			"token_map": map[string]map[string]any{
				testSessionToken: {"sub": "alice", "role": "admin"},
				"sess-support":   {"sub": "bob", "role": "support"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	rules, err := policy.ValidateRules([]core.Rule{
		{
			Name:     "dashboard-admins",
			Upstream: "dashboard",
			Expr:     `identity.Attributes["role"] == "admin"`,
			Scopes:   []string{"payments:read", "payments:write", "merchants:read"},
		},
		{
			Name:     "dashboard-support",
			Upstream: "dashboard",
			Expr:     `identity.Attributes["role"] == "support"`,
			Scopes:   []string{"payments:read"},
		},
	}, map[string]struct{}{"dashboard": {}})
	if err != nil {
		t.Fatal(err)
	}

	auditor := audit.NewInMemoryAuditor()
	source := &fakeSource{actions: map[string]*core.RedirectAction{}}

	tokenService := service.NewTokenService(
		map[string]upstream.Verifier{"dashboard": static},
		policy.New(rules),
		issuer,
		auditor,
	)

	srv := NewServer(
		testServiceName,
		validator,
		codec,
		source,
		store.NewInMemoryConsumedStore(),
		auditor,
		tokenService,
		nil,
		time.Second,
	)

	return &testEnv{
		server:  srv,
		issuer:  issuer,
		codec:   codec,
		source:  source,
		auditor: auditor,
	}
}

// serviceCredential mints a credential for calling this service's protected routes.
func (e *testEnv) serviceCredential(t *testing.T, scopes core.Scopes) string {
	t.Helper()

	account, err := core.NewServiceAccount("payment-data", scopes, nil)
	if err != nil {
		t.Fatal(err)
	}
	cred, err := e.issuer.Issue(account, testServiceName, scopes)
	if err != nil {
		t.Fatal(err)
	}
	return cred.Token
}

func getAction(paymentID, url string) *core.RedirectAction {
	return &core.RedirectAction{
		Type:      core.ActionTypeRedirect,
		PaymentID: paymentID,
		URL:       url,
		Method:    core.RedirectMethodGet,
	}
}

func postAction(paymentID, url string, data core.FormData) *core.RedirectAction {
	return &core.RedirectAction{
		Type:      core.ActionTypeRedirect,
		PaymentID: paymentID,
		URL:       url,
		Method:    core.RedirectMethodPost,
		Data:      data,
	}
}
