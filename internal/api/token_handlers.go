package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/api/presenter"
	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/service"
	"github.com/jbattja/fugata-sub001/internal/tenant"
)

type IssuePayload struct {
	// Upstream names the verifier the session token is checked against.
	// May be omitted when exactly one upstream is configured.
	Upstream string `json:"upstream"`

	// Audience is the service the credential is minted for.
	Audience string `json:"audience"`

	// Scopes narrows the delegated scope set. Empty requests everything the
	// matching rule grants.
	Scopes []string `json:"scopes"`

	// MerchantID and MerchantCode identify the tenant. Both or neither;
	// the merchant headers are a fallback when the pair is absent here.
	MerchantID   string `json:"merchantId"`
	MerchantCode string `json:"merchantCode"`
}

// handleIssue exchanges an upstream session token for a platform credential.
func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	// parse request payload
	var payload IssuePayload
	if err := DecodePayload(r, &payload, true /* allow empty */); err != nil {
		logger.Warn().Err(err).Msg("failed to decode issue request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	// read session token from Authorization header
	authHeader := r.Header.Get(auth.AuthorizationHeader)
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if token == "" {
		logger.Warn().Msg("missing or empty Authorization header")
		presenter.Error(w, r, "missing Authorization header", http.StatusUnauthorized)
		return
	}

	merchant, err := s.merchantFor(r, payload)
	if err != nil {
		presenter.Err(w, r, err, "invalid merchant context")
		return
	}

	result, err := s.tokenService.IssueToken(ctx, service.IssueRequest{
		UpstreamToken:   token,
		Upstream:        payload.Upstream,
		Audience:        payload.Audience,
		RequestedScopes: payload.Scopes,
		Merchant:        merchant,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("token issuance failed")
		presenter.Err(w, r, err, "token issuance failed")
		return
	}

	logger.Info().
		Str("sub", result.Principal.ID).
		Str("rule", result.Rule.Name).
		Str("audience", payload.Audience).
		Msg("credential issued")

	presenter.JSON(w, r, result.Credential, http.StatusCreated)
}

// merchantFor picks the tenant for an issuance request: the payload pair when
// present, the transport headers otherwise.
func (s *Server) merchantFor(r *http.Request, payload IssuePayload) (*core.MerchantContext, error) {
	if payload.MerchantID != "" || payload.MerchantCode != "" {
		m := core.MerchantContext{ID: payload.MerchantID, Code: payload.MerchantCode}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	}
	return tenant.Resolve(r)
}
