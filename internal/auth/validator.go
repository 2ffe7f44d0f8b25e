package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jbattja/fugata-sub001/internal/core"
)

var _ core.CredentialValidator = (*Validator)(nil)

// Validator verifies credentials presented at a service boundary. It is
// stateless; a Validator can be shared across requests without locking.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey []byte) (*Validator, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", core.ErrConfiguration)
	}
	return &Validator{signingKey: signingKey}, nil
}

// Validate checks signature, expiry, audience and scopes of a raw credential
// and rebuilds the asserted Principal. Expiry is checked before the signature
// so an expired credential always reports ErrExpired.
func (v *Validator) Validate(raw string, audience string, required ...core.Scope) (*core.Principal, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty credential", core.ErrInvalidSignature)
	}

	// peek at the expiry claim without verifying, expired credentials are
	// reported as expired regardless of how they were signed
	var unverified Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	if unverified.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: credential has no expiry", core.ErrValidation)
	}
	if unverified.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: expired at %s", core.ErrExpired, unverified.ExpiresAt.Format(time.RFC3339))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", core.ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
		}
	}
	if !token.Valid {
		return nil, core.ErrInvalidSignature
	}

	// a credential minted for one downstream service must not be replayable
	// against another
	if !containsAudience(claims.Audience, audience) {
		return nil, fmt.Errorf("%w: credential for %v presented to '%s'",
			core.ErrAudienceMismatch, []string(claims.Audience), audience)
	}

	scopes, err := core.ParseScopes(claims.Scopes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	for _, scope := range required {
		if !scopes.Contains(scope) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrMissingScope, scope)
		}
	}

	return principalFromClaims(claims, scopes)
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

func principalFromClaims(claims *Claims, scopes core.Scopes) (*core.Principal, error) {
	kind, err := core.ParsePrincipalKind(claims.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	var merchant *core.MerchantContext
	if claims.MerchantID != "" || claims.MerchantCode != "" {
		ctx := core.MerchantContext{ID: claims.MerchantID, Code: claims.MerchantCode}
		if err := ctx.Validate(); err != nil {
			return nil, err
		}
		merchant = &ctx
	}

	switch kind {
	case core.KindEndUser:
		if merchant == nil {
			return nil, fmt.Errorf("%w: end-user credential without merchant context", core.ErrValidation)
		}
		return core.NewEndUser(claims.Subject, *merchant, scopes)
	case core.KindDashboardUser:
		if merchant == nil {
			return nil, fmt.Errorf("%w: dashboard-user credential without merchant context", core.ErrValidation)
		}
		return core.NewDashboardUser(claims.Subject, *merchant, scopes)
	case core.KindServiceAccount:
		return core.NewServiceAccount(claims.Subject, scopes, merchant)
	default:
		return nil, fmt.Errorf("%w: unknown principal kind '%s'", core.ErrValidation, kind)
	}
}
