package core

import (
	"fmt"
	"sort"
)

// Scope is a named capability a credential grants for a class of operations.
// The set of valid scopes is closed; anything outside it is rejected at parse
// time so that scope checks stay exhaustive.
type Scope string

const (
	ScopePaymentsRead   Scope = "payments:read"
	ScopePaymentsWrite  Scope = "payments:write"
	ScopeRedirectsRead  Scope = "redirects:read"
	ScopeMerchantsRead  Scope = "merchants:read"
	ScopeMerchantsWrite Scope = "merchants:write"
)

var knownScopes = map[Scope]struct{}{
	ScopePaymentsRead:   {},
	ScopePaymentsWrite:  {},
	ScopeRedirectsRead:  {},
	ScopeMerchantsRead:  {},
	ScopeMerchantsWrite: {},
}

// ParseScope converts a raw string into a Scope, rejecting unknown values.
func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if _, ok := knownScopes[scope]; !ok {
		return "", fmt.Errorf("unknown scope '%s'", s)
	}
	return scope, nil
}

// ParseScopes converts raw strings into a Scopes set, rejecting unknown values.
func ParseScopes(raw []string) (Scopes, error) {
	scopes := make(Scopes, 0, len(raw))
	for _, s := range raw {
		scope, err := ParseScope(s)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

// KnownScopes returns all valid scopes in stable order.
func KnownScopes() Scopes {
	scopes := make(Scopes, 0, len(knownScopes))
	for s := range knownScopes {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	return scopes
}

// Scopes is a set of granted capabilities.
type Scopes []Scope

func (s Scopes) Contains(scope Scope) bool {
	for _, have := range s {
		if have == scope {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every scope in s is contained in allowed.
func (s Scopes) SubsetOf(allowed Scopes) bool {
	for _, scope := range s {
		if !allowed.Contains(scope) {
			return false
		}
	}
	return true
}

func (s Scopes) Strings() []string {
	out := make([]string, len(s))
	for i, scope := range s {
		out[i] = string(scope)
	}
	return out
}
