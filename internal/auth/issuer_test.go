package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jbattja/fugata-sub001/internal/core"
)

var testSigningKey = []byte("test-signing-secret")

func testIssuer(t *testing.T, allowed core.Scopes) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("checkout", testSigningKey, allowed, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return issuer
}

func testValidator(t *testing.T, key []byte) *Validator {
	t.Helper()
	validator, err := NewValidator(key)
	if err != nil {
		t.Fatal(err)
	}
	return validator
}

func TestIssueValidateRoundTrip(t *testing.T) {
	merchant := core.MerchantContext{ID: "m_1", Code: "acme"}

	endUser, err := core.NewEndUser("user@example.com", merchant, nil)
	if err != nil {
		t.Fatal(err)
	}
	dashboardUser, err := core.NewDashboardUser("dash-1", merchant, nil)
	if err != nil {
		t.Fatal(err)
	}
	serviceAccount, err := core.NewServiceAccount("checkout", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	allowed := core.Scopes{core.ScopePaymentsRead, core.ScopePaymentsWrite, core.ScopeRedirectsRead}
	issuer := testIssuer(t, allowed)
	validator := testValidator(t, testSigningKey)

	tests := []struct {
		name      string
		principal *core.Principal
		scopes    core.Scopes
	}{
		{
			name:      "End User With Merchant",
			principal: endUser,
			scopes:    core.Scopes{core.ScopePaymentsRead},
		},
		{
			name:      "Dashboard User",
			principal: dashboardUser,
			scopes:    core.Scopes{core.ScopePaymentsRead, core.ScopePaymentsWrite},
		},
		{
			name:      "Service Account",
			principal: serviceAccount,
			scopes:    core.Scopes{core.ScopeRedirectsRead},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := issuer.Issue(tt.principal, "payment-data", tt.scopes)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			if cred.Token == "" {
				t.Fatal("empty credential token")
			}
			if cred.Fingerprint == "" || cred.Fingerprint == cred.Token {
				t.Fatal("fingerprint must be set and must not be the raw token")
			}

			got, err := validator.Validate(cred.Token, "payment-data", tt.scopes...)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}

			want := &core.Principal{
				Kind:     tt.principal.Kind,
				ID:       tt.principal.ID,
				Scopes:   tt.scopes,
				Merchant: tt.principal.Merchant,
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round-trip principal mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIssueScopeViolation(t *testing.T) {
	issuer := testIssuer(t, core.Scopes{core.ScopePaymentsRead})

	principal, err := core.NewServiceAccount("checkout", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	cred, err := issuer.Issue(principal, "payment-data", core.Scopes{core.ScopePaymentsRead, core.ScopePaymentsWrite})
	if !errors.Is(err, core.ErrScopeViolation) {
		t.Fatalf("expected ErrScopeViolation, got err=%v cred=%v", err, cred)
	}
	if cred != nil {
		t.Fatal("no credential may be produced on scope violation")
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("checkout", nil, nil, time.Minute); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := NewIssuer("", testSigningKey, nil, time.Minute); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty service, got %v", err)
	}
}
