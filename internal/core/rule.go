package core

import "github.com/expr-lang/expr/vm"

// UpstreamIdentity is a dashboard login verified against an upstream identity
// provider. It is the input to delegation policy; it is not yet a Principal.
type UpstreamIdentity struct {
	// Subject is the unique subject identifier (e.g., email, sub claim).
	Subject string
	// Upstream is the name of the verifier that produced this identity.
	Upstream string
	// Attributes are the claims extracted from the upstream token.
	Attributes map[string]any
}

// Rule decides which scopes a verified dashboard identity may be delegated.
type Rule struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Description explains the intent of the rule.
	Description string `yaml:"description" json:"description"`

	// Upstream is the name of the verifier that must have produced the identity.
	Upstream string `yaml:"upstream" json:"upstream"`

	// Expr is an optional expression evaluated against the identity.
	// Leaving this empty means the rule matches every identity of the upstream.
	Expr string `yaml:"expr" json:"expr"`

	// CompiledExpr holds the pre-compiled form of Expr for efficient evaluation.
	CompiledExpr *vm.Program `yaml:"-" json:"-"`

	// AllowEmptyExpr must be set for a rule without an expression to match.
	// This is a security measure to prevent unintentional unrestricted access.
	AllowEmptyExpr bool `yaml:"allow_empty" json:"allow_empty"`

	// Scopes the matched identity may be granted.
	Scopes []string `yaml:"scopes" json:"scopes"`
}
