package core

import "errors"

// Error taxonomy for the auth and redirect core. Callers match these with
// errors.Is; nothing in this package retries or downgrades a failure to a
// default value.
var (
	// ErrConfiguration indicates a missing or unusable process-wide setting
	// (e.g. no signing secret). It is fatal at startup, never per-request.
	ErrConfiguration = errors.New("configuration error")

	// ErrScopeViolation is returned when a caller requests scopes beyond
	// what the issuing service is allowed to grant.
	ErrScopeViolation = errors.New("scope violation")

	ErrInvalidSignature = errors.New("invalid credential signature")
	ErrExpired          = errors.New("credential expired")
	ErrAudienceMismatch = errors.New("credential audience mismatch")
	ErrMissingScope     = errors.New("credential missing required scope")

	// ErrMerchantMismatch is returned when a transport-supplied merchant
	// context differs from the one embedded in the caller's credential.
	ErrMerchantMismatch = errors.New("merchant context mismatch")

	// ErrDecrypt covers every envelope failure mode: corruption, truncation,
	// key mismatch. A failed decrypt never yields a partial action.
	ErrDecrypt = errors.New("envelope decrypt failed")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	// ErrActionConsumed is returned when a redirect action has already been
	// executed once. Redirect actions are single-use.
	ErrActionConsumed = errors.New("redirect action already consumed")
)
