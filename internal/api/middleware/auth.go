package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/api/presenter"
	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/tenant"
)

const principalKey = "auth_principal"
const merchantKey = "auth_merchant"

// PrincipalCtx retrieves the validated principal from the context.
// It is only set on routes wrapped in RequireCredential.
func PrincipalCtx(ctx context.Context) *core.Principal {
	p, _ := ctx.Value(principalKey).(*core.Principal)
	return p
}

// MerchantCtx retrieves the cross-checked merchant context, nil when the
// request carries no tenant.
func MerchantCtx(ctx context.Context) *core.MerchantContext {
	m, _ := ctx.Value(merchantKey).(*core.MerchantContext)
	return m
}

// RequireCredential validates the bearer credential on every request before
// the handler runs: signature, expiry, audience, and the required scopes.
// The transport-asserted merchant context is cross-checked against the one
// embedded in the credential; a contradiction is rejected, never ignored.
func RequireCredential(validator core.CredentialValidator, audience string, required ...core.Scope) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get(auth.AuthorizationHeader), "Bearer"))
			if raw == "" {
				presenter.Error(w, r, "missing bearer credential", http.StatusUnauthorized)
				return
			}

			principal, err := validator.Validate(raw, audience, required...)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("credential rejected")
				presenter.Error(w, r, "credential rejected", presenter.StatusFor(err))
				return
			}

			resolved, err := tenant.Resolve(r)
			if err != nil {
				presenter.Error(w, r, "invalid merchant context", http.StatusBadRequest)
				return
			}
			merchant, err := tenant.CrossCheck(principal, resolved)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Str("sub", principal.ID).Msg("merchant cross-check failed")
				presenter.Error(w, r, "merchant context mismatch", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			ctx = context.WithValue(ctx, merchantKey, merchant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
