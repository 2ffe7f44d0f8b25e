package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "credential.issue", "bridge.navigate")
	Action string `json:"action"`

	// PrincipalID and PrincipalKind identify who made the request
	PrincipalID   string `json:"principal_id,omitempty"`
	PrincipalKind string `json:"principal_kind,omitempty"`

	// Audience the credential was minted for
	Audience string `json:"audience,omitempty"`
	// Scopes granted or required
	Scopes []string `json:"scopes,omitempty"`

	// MerchantID is the tenant the request applied to
	MerchantID string `json:"merchant_id,omitempty"`

	// PaymentID for bridge events
	PaymentID string `json:"payment_id,omitempty"`

	// Fingerprint of the credential or envelope involved.
	// Raw token and envelope values are never audited.
	Fingerprint string `json:"fingerprint,omitempty"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
