package policy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jbattja/fugata-sub001/internal/core"
)

func TestEngine_Evaluate(t *testing.T) {
	knownUpstreams := map[string]struct{}{
		"dashboard-oidc": {},
		"internal-sso":   {},
	}

	rules, err := ValidateRules([]core.Rule{
		{
			Name:     "rule-admin",
			Upstream: "dashboard-oidc",
			Expr:     `identity.Attributes["role"] == "admin"`,
			Scopes:   []string{"payments:read", "payments:write", "merchants:write"},
		},
		{
			Name:     "rule-support",
			Upstream: "dashboard-oidc",
			Expr:     `identity.Attributes["role"] == "support"`,
			Scopes:   []string{"payments:read"},
		},
		{
			Name:           "rule-sso-any",
			Upstream:       "internal-sso",
			AllowEmptyExpr: true,
			Scopes:         []string{"merchants:read"},
		},
	}, knownUpstreams)
	if err != nil {
		t.Fatal(err)
	}

	eng := New(rules)

	tests := []struct {
		name       string
		identity   *core.UpstreamIdentity
		wantErr    bool
		wantRule   string
		wantScopes core.Scopes
	}{
		{
			name: "Match Admin Rule",
			identity: &core.UpstreamIdentity{
				Subject:    "alice@acme.example",
				Upstream:   "dashboard-oidc",
				Attributes: map[string]any{"role": "admin"},
			},
			wantRule: "rule-admin",
			wantScopes: core.Scopes{
				core.ScopePaymentsRead, core.ScopePaymentsWrite, core.ScopeMerchantsWrite,
			},
		},
		{
			name: "Match Support Rule",
			identity: &core.UpstreamIdentity{
				Subject:    "bob@acme.example",
				Upstream:   "dashboard-oidc",
				Attributes: map[string]any{"role": "support"},
			},
			wantRule:   "rule-support",
			wantScopes: core.Scopes{core.ScopePaymentsRead},
		},
		{
			name: "Empty Expr Matches All Of Upstream",
			identity: &core.UpstreamIdentity{
				Subject:  "carol",
				Upstream: "internal-sso",
			},
			wantRule:   "rule-sso-any",
			wantScopes: core.Scopes{core.ScopeMerchantsRead},
		},
		{
			name: "No Match - Wrong Upstream",
			identity: &core.UpstreamIdentity{
				Subject:    "alice@acme.example",
				Upstream:   "github",
				Attributes: map[string]any{"role": "admin"},
			},
			wantErr: true,
		},
		{
			name: "No Match - Unknown Role",
			identity: &core.UpstreamIdentity{
				Subject:    "dave@acme.example",
				Upstream:   "dashboard-oidc",
				Attributes: map[string]any{"role": "intern"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, scopes, err := eng.Evaluate(tt.identity)
			if tt.wantErr {
				if !errors.Is(err, ErrNoRuleMatch) {
					t.Fatalf("expected ErrNoRuleMatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rule.Name != tt.wantRule {
				t.Errorf("expected rule '%s', got '%s'", tt.wantRule, rule.Name)
			}
			if diff := cmp.Diff(tt.wantScopes, scopes); diff != "" {
				t.Errorf("granted scopes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateRules(t *testing.T) {
	known := map[string]struct{}{"dashboard-oidc": {}}

	tests := []struct {
		name    string
		rules   []core.Rule
		wantErr bool
	}{
		{
			name: "Valid",
			rules: []core.Rule{
				{Name: "r1", Upstream: "dashboard-oidc", AllowEmptyExpr: true, Scopes: []string{"payments:read"}},
			},
		},
		{
			name: "Duplicate Name",
			rules: []core.Rule{
				{Name: "r1", Upstream: "dashboard-oidc", AllowEmptyExpr: true, Scopes: []string{"payments:read"}},
				{Name: "r1", Upstream: "dashboard-oidc", AllowEmptyExpr: true, Scopes: []string{"payments:read"}},
			},
			wantErr: true,
		},
		{
			name: "Unknown Upstream",
			rules: []core.Rule{
				{Name: "r1", Upstream: "github", AllowEmptyExpr: true, Scopes: []string{"payments:read"}},
			},
			wantErr: true,
		},
		{
			name: "Unknown Scope",
			rules: []core.Rule{
				{Name: "r1", Upstream: "dashboard-oidc", AllowEmptyExpr: true, Scopes: []string{"admin:all"}},
			},
			wantErr: true,
		},
		{
			name: "Empty Expr Not Allowed",
			rules: []core.Rule{
				{Name: "r1", Upstream: "dashboard-oidc", Scopes: []string{"payments:read"}},
			},
			wantErr: true,
		},
		{
			name: "Broken Expr",
			rules: []core.Rule{
				{Name: "r1", Upstream: "dashboard-oidc", Expr: "((", Scopes: []string{"payments:read"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRules(tt.rules, known)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
