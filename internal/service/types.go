package service

import (
	"github.com/jbattja/fugata-sub001/internal/core"
)

// IssueRequest carries everything needed to exchange an upstream session
// token for a scoped platform credential.
type IssueRequest struct {
	// UpstreamToken is the raw session token from the dashboard login.
	// It is verified against the named upstream, never stored, and never
	// logged.
	UpstreamToken string

	// Upstream names the verifier to check the token against. May be empty
	// when exactly one upstream is configured.
	Upstream string

	// Audience is the service the minted credential is intended for.
	Audience string

	// RequestedScopes narrows the delegated scope set. Empty means
	// "everything the matching rule grants".
	RequestedScopes []string

	// Merchant is the tenant the dashboard session is operating on.
	Merchant *core.MerchantContext
}

// IssueResult is the outcome of a successful exchange.
type IssueResult struct {
	Principal  *core.Principal
	Rule       *core.Rule
	Credential *core.Credential
}
