package core

import (
	"context"
	"time"
)

// CredentialIssuer mints scoped, audience-bound, short-lived credentials.
// Credentials are minted immediately before each outbound call and never
// cached past their TTL.
type CredentialIssuer interface {
	Issue(principal *Principal, audience string, scopes Scopes) (*Credential, error)
}

// CredentialValidator verifies a credential presented at a service boundary.
// It must run before any business logic on every boundary-crossing request.
type CredentialValidator interface {
	Validate(raw string, audience string, required ...Scope) (*Principal, error)
}

// ActionCodec authenticated-encrypts redirect actions for transit through an
// untrusted carrier (a URL, a form field, or a partner's POST-back body).
type ActionCodec interface {
	Encrypt(action *RedirectAction) (string, error)
	Decrypt(envelope string) (*RedirectAction, error)
}

// ActionSource is the payment-data collaborator holding pending redirect
// actions, looked up by payment id.
type ActionSource interface {
	PendingAction(ctx context.Context, paymentID string) (*RedirectAction, error)
}

// ConsumedStore marks redirect actions as executed. Consume returns true on
// the first call for a key and false on every later call within ttl, making
// redirect actions single-use even across bridge instances.
type ConsumedStore interface {
	Consume(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
