package core

import (
	"fmt"
	"time"
)

// PrincipalKind is the closed set of identity kinds a credential can assert.
type PrincipalKind string

const (
	// KindEndUser is a shopper on the hosted checkout whose identity is
	// forwarded by the checkout service.
	KindEndUser PrincipalKind = "end_user"

	// KindDashboardUser is a dashboard login acting on behalf of a merchant.
	KindDashboardUser PrincipalKind = "dashboard_user"

	// KindServiceAccount is a headless service identity with scopes fixed at
	// deployment time.
	KindServiceAccount PrincipalKind = "service_account"
)

// ParsePrincipalKind converts a raw claim value into a PrincipalKind.
func ParsePrincipalKind(s string) (PrincipalKind, error) {
	switch kind := PrincipalKind(s); kind {
	case KindEndUser, KindDashboardUser, KindServiceAccount:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown principal kind '%s'", s)
	}
}

// MerchantContext identifies the tenant a request or credential is scoped to.
// It always travels as a pair; a half-populated pair is invalid everywhere.
type MerchantContext struct {
	ID   string `json:"merchantId"`
	Code string `json:"merchantCode"`
}

func (m MerchantContext) Validate() error {
	if m.ID == "" || m.Code == "" {
		return fmt.Errorf("%w: merchant context requires both id and code (id=%q, code=%q)",
			ErrValidation, m.ID, m.Code)
	}
	return nil
}

func (m MerchantContext) Equal(other MerchantContext) bool {
	return m.ID == other.ID && m.Code == other.Code
}

// Principal is the authenticated identity asserted by a credential.
// Instances are only built through the New* constructors, which enforce the
// per-kind invariants (a principal is exactly one kind, and merchant context
// is present where the kind demands it).
type Principal struct {
	Kind   PrincipalKind `json:"kind"`
	ID     string        `json:"id"`
	Scopes Scopes        `json:"scopes"`

	// Merchant is the tenant the principal acts for. Required for end users
	// and dashboard users, optional for service accounts.
	Merchant *MerchantContext `json:"merchant,omitempty"`
}

// NewEndUser builds an end-user principal. The merchant the user belongs to
// is mandatory so the receiving service can authorize per-merchant.
func NewEndUser(id string, merchant MerchantContext, scopes Scopes) (*Principal, error) {
	return newPrincipal(KindEndUser, id, &merchant, scopes)
}

// NewDashboardUser builds a dashboard-user principal acting for a merchant.
func NewDashboardUser(id string, merchant MerchantContext, scopes Scopes) (*Principal, error) {
	return newPrincipal(KindDashboardUser, id, &merchant, scopes)
}

// NewServiceAccount builds a service-account principal. merchant may be nil
// for services that act across tenants.
func NewServiceAccount(name string, scopes Scopes, merchant *MerchantContext) (*Principal, error) {
	return newPrincipal(KindServiceAccount, name, merchant, scopes)
}

func newPrincipal(kind PrincipalKind, id string, merchant *MerchantContext, scopes Scopes) (*Principal, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: principal id is required", ErrValidation)
	}
	for _, scope := range scopes {
		if _, err := ParseScope(string(scope)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	switch kind {
	case KindEndUser, KindDashboardUser:
		if merchant == nil {
			return nil, fmt.Errorf("%w: %s principal requires a merchant context", ErrValidation, kind)
		}
	case KindServiceAccount:
		// merchant optional
	default:
		return nil, fmt.Errorf("%w: unknown principal kind '%s'", ErrValidation, kind)
	}
	if merchant != nil {
		if err := merchant.Validate(); err != nil {
			return nil, err
		}
		m := *merchant
		merchant = &m
	}
	return &Principal{
		Kind:     kind,
		ID:       id,
		Scopes:   scopes,
		Merchant: merchant,
	}, nil
}

// Credential is a signed, time-bound token minted for a single outbound call.
// The raw token is opaque to its holder; it cannot be extended or altered.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`

	// Fingerprint is a non-reversible identifier for audit trails. The raw
	// token value is never written to logs.
	Fingerprint string `json:"fingerprint"`
}
