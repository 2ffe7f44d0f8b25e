package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/jbattja/fugata-sub001/internal/audit"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// DefaultTTL is the credential lifetime when the config does not set one.
// Credentials are minted per outbound call, so the window stays short.
const DefaultTTL = 5 * time.Minute

var _ core.CredentialIssuer = (*Issuer)(nil)

// Issuer mints scoped, audience-bound credentials for this service.
// The signing secret is process-wide configuration, injected once at startup.
type Issuer struct {
	service    string
	signingKey []byte
	allowed    core.Scopes
	ttl        time.Duration
}

// NewIssuer builds an Issuer. A missing signing secret is a configuration
// error and fatal at process start, never per-request.
func NewIssuer(service string, signingKey []byte, allowed core.Scopes, ttl time.Duration) (*Issuer, error) {
	if service == "" {
		return nil, fmt.Errorf("%w: issuing service name is required", core.ErrConfiguration)
	}
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", core.ErrConfiguration)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		service:    service,
		signingKey: signingKey,
		allowed:    allowed,
		ttl:        ttl,
	}, nil
}

// Issue mints a credential for the given principal, bound to the target
// audience. The requested scopes must be a subset of the scopes this service
// is configured to grant.
func (i *Issuer) Issue(principal *core.Principal, audience string, scopes core.Scopes) (*core.Credential, error) {
	if principal == nil {
		return nil, fmt.Errorf("%w: principal is required", core.ErrValidation)
	}
	if audience == "" {
		return nil, fmt.Errorf("%w: audience is required", core.ErrValidation)
	}
	if !scopes.SubsetOf(i.allowed) {
		return nil, fmt.Errorf("%w: requested %v, allowed %v", core.ErrScopeViolation, scopes, i.allowed)
	}

	now := time.Now()
	exp := now.Add(i.ttl)

	claims := Claims{
		Kind:   string(principal.Kind),
		Scopes: scopes.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Issuer:    i.service,
			Subject:   principal.ID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if principal.Merchant != nil {
		if err := principal.Merchant.Validate(); err != nil {
			return nil, err
		}
		claims.MerchantID = principal.Merchant.ID
		claims.MerchantCode = principal.Merchant.Code
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return nil, fmt.Errorf("signing credential: %w", err)
	}

	return &core.Credential{
		Token:       signed,
		ExpiresAt:   exp,
		Fingerprint: audit.CalculateFingerprint(audit.CredentialFingerprintType, signed),
	}, nil
}

// Service returns the issuing service name embedded as the `iss` claim.
func (i *Issuer) Service() string {
	return i.service
}
