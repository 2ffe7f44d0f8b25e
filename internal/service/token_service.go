package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/policy"
	"github.com/jbattja/fugata-sub001/internal/upstream"
)

// TokenService exchanges verified upstream identities for scoped platform
// credentials: verify the session token, find the delegation rule that
// applies, narrow to the requested scopes, then mint.
type TokenService struct {
	upstreams map[string]upstream.Verifier
	engine    *policy.Engine
	issuer    core.CredentialIssuer
	auditor   core.Auditor
}

func NewTokenService(
	upstreams map[string]upstream.Verifier,
	engine *policy.Engine,
	issuer core.CredentialIssuer,
	auditor core.Auditor,
) *TokenService {
	return &TokenService{
		upstreams: upstreams,
		engine:    engine,
		issuer:    issuer,
		auditor:   auditor,
	}
}

// IssueToken runs the full exchange. Errors carry HTTP status codes so the
// API layer can map them without inspecting causes.
func (s *TokenService) IssueToken(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:       reqID,
		Time:     time.Now(),
		Action:   "token.issue",
		Audience: req.Audience,
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log")
		}
	}()

	fail := func(err error) (*IssueResult, error) {
		auditEntry.Error = err.Error()
		return nil, err
	}

	if req.UpstreamToken == "" {
		return fail(httpError(http.StatusUnauthorized, errors.New("missing upstream session token")))
	}
	if req.Audience == "" {
		return fail(httpError(http.StatusBadRequest, errors.New("audience is required")))
	}

	verifier, err := s.pickVerifier(req.Upstream)
	if err != nil {
		return fail(httpError(http.StatusBadRequest, err))
	}

	identity, err := verifier.Verify(ctx, req.UpstreamToken)
	if err != nil {
		logger.Warn().Err(err).Str("upstream", verifier.Name()).Msg("upstream verification failed")
		return fail(httpError(http.StatusUnauthorized, errors.New("session token verification failed")))
	}
	auditEntry.PrincipalID = identity.Subject

	rule, granted, err := s.engine.Evaluate(identity)
	if err != nil {
		if errors.Is(err, policy.ErrNoRuleMatch) {
			return fail(httpError(http.StatusForbidden, err))
		}
		logger.Error().Err(err).Msg("policy engine error")
		return fail(httpError(http.StatusInternalServerError, errors.New("internal policy error")))
	}

	scopes := granted
	if len(req.RequestedScopes) > 0 {
		requested, err := core.ParseScopes(req.RequestedScopes)
		if err != nil {
			return fail(httpError(http.StatusBadRequest, err))
		}
		if !requested.SubsetOf(granted) {
			return fail(httpError(http.StatusForbidden, fmt.Errorf(
				"%w: requested scopes exceed what rule '%s' grants", core.ErrScopeViolation, rule.Name)))
		}
		scopes = requested
	}

	if req.Merchant == nil {
		return fail(httpError(http.StatusBadRequest, errors.New("merchant context is required for dashboard credentials")))
	}

	principal, err := core.NewDashboardUser(identity.Subject, *req.Merchant, scopes)
	if err != nil {
		return fail(httpError(http.StatusBadRequest, err))
	}
	auditEntry.PrincipalKind = string(principal.Kind)
	auditEntry.MerchantID = req.Merchant.ID

	cred, err := s.issuer.Issue(principal, req.Audience, scopes)
	if err != nil {
		if errors.Is(err, core.ErrScopeViolation) {
			return fail(httpError(http.StatusForbidden, err))
		}
		logger.Error().Err(err).Msg("minting credential failed")
		return fail(httpError(http.StatusInternalServerError, errors.New("credential minting failed")))
	}

	auditEntry.Success = true
	auditEntry.Scopes = scopes.Strings()
	auditEntry.Fingerprint = cred.Fingerprint

	return &IssueResult{
		Principal:  principal,
		Rule:       rule,
		Credential: cred,
	}, nil
}

// pickVerifier resolves the requested upstream, falling back to the only
// configured one when the request leaves it unspecified.
func (s *TokenService) pickVerifier(name string) (upstream.Verifier, error) {
	if name != "" {
		v, ok := s.upstreams[name]
		if !ok {
			return nil, fmt.Errorf("unknown upstream '%s'", name)
		}
		return v, nil
	}
	if len(s.upstreams) == 1 {
		for _, v := range s.upstreams {
			return v, nil
		}
	}
	return nil, errors.New("upstream must be specified when more than one is configured")
}
