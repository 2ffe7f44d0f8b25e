package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Credential transport headers. The service-token header is a boolean marker
// distinguishing service-account credentials from end-user-delegated ones.
const (
	AuthorizationHeader = "Authorization"
	ServiceTokenHeader  = "x-service-token"
)

// Claims is the credential payload. Beyond the registered claims it carries
// the principal kind, the granted scopes, and the optional merchant context.
// The merchant pair is either fully present or fully absent.
type Claims struct {
	Kind         string   `json:"kind"`
	Scopes       []string `json:"scopes"`
	MerchantID   string   `json:"merchant_id,omitempty"`
	MerchantCode string   `json:"merchant_code,omitempty"`

	jwt.RegisteredClaims
}
