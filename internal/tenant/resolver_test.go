package tenant

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jbattja/fugata-sub001/internal/core"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    *core.MerchantContext
		wantErr bool
	}{
		{
			name:   "Header Pair",
			target: "/v1/payments",
			headers: map[string]string{
				HeaderMerchantID:   "m_1",
				HeaderMerchantCode: "acme",
			},
			want: &core.MerchantContext{ID: "m_1", Code: "acme"},
		},
		{
			name:   "Query Fallback",
			target: "/v1/payments?merchantId=m_2&merchantCode=globex",
			want:   &core.MerchantContext{ID: "m_2", Code: "globex"},
		},
		{
			name:   "Headers Win Over Query",
			target: "/v1/payments?merchantId=m_2&merchantCode=globex",
			headers: map[string]string{
				HeaderMerchantID:   "m_1",
				HeaderMerchantCode: "acme",
			},
			want: &core.MerchantContext{ID: "m_1", Code: "acme"},
		},
		{
			name:   "No Context",
			target: "/v1/payments",
			want:   nil,
		},
		{
			name:   "Half Pair - Header ID Only",
			target: "/v1/payments",
			headers: map[string]string{
				HeaderMerchantID: "m_1",
			},
			wantErr: true,
		},
		{
			name:   "Half Pair - Header Code Only",
			target: "/v1/payments",
			headers: map[string]string{
				HeaderMerchantCode: "acme",
			},
			wantErr: true,
		},
		{
			name:    "Half Pair - Query ID Only",
			target:  "/v1/payments?merchantId=m_2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got, err := Resolve(r)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				if !errors.Is(err, core.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolved context mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCrossCheck(t *testing.T) {
	acme := core.MerchantContext{ID: "m_1", Code: "acme"}
	globex := core.MerchantContext{ID: "m_2", Code: "globex"}

	withMerchant, err := core.NewServiceAccount("dashboard", core.Scopes{core.ScopePaymentsRead}, &acme)
	if err != nil {
		t.Fatal(err)
	}
	withoutMerchant, err := core.NewServiceAccount("checkout", core.Scopes{core.ScopePaymentsRead}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		principal *core.Principal
		resolved  *core.MerchantContext
		want      *core.MerchantContext
		wantErr   bool
	}{
		{
			name:      "Matching Contexts",
			principal: withMerchant,
			resolved:  &acme,
			want:      &acme,
		},
		{
			name:      "Credential Context Wins When Transport Silent",
			principal: withMerchant,
			resolved:  nil,
			want:      &acme,
		},
		{
			name:      "Transport Context For Unbound Caller",
			principal: withoutMerchant,
			resolved:  &globex,
			want:      &globex,
		},
		{
			name:      "Mismatch Rejected",
			principal: withMerchant,
			resolved:  &globex,
			wantErr:   true,
		},
		{
			name:      "Nothing Anywhere",
			principal: withoutMerchant,
			resolved:  nil,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CrossCheck(tt.principal, tt.resolved)
			if tt.wantErr {
				if !errors.Is(err, core.ErrMerchantMismatch) {
					t.Fatalf("expected ErrMerchantMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("cross-checked context mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
