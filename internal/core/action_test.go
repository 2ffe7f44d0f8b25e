package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRedirectActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  RedirectAction
		wantErr bool
	}{
		{
			name: "Valid GET",
			action: RedirectAction{
				Type:      ActionTypeRedirect,
				PaymentID: "pay_123",
				URL:       "https://bank.example/auth",
				Method:    RedirectMethodGet,
			},
		},
		{
			name: "Valid POST",
			action: RedirectAction{
				Type:      ActionTypeRedirect,
				PaymentID: "pay_123",
				URL:       "https://bank.example/auth",
				Method:    RedirectMethodPost,
				Data:      FormData{{Name: "PaReq", Value: "abc"}},
			},
		},
		{
			name: "Wrong Action Type",
			action: RedirectAction{
				Type:   "CAPTURE",
				URL:    "https://bank.example/auth",
				Method: RedirectMethodGet,
			},
			wantErr: true,
		},
		{
			name: "Empty URL",
			action: RedirectAction{
				Type:   ActionTypeRedirect,
				Method: RedirectMethodGet,
			},
			wantErr: true,
		},
		{
			name: "POST Without Data",
			action: RedirectAction{
				Type:   ActionTypeRedirect,
				URL:    "https://bank.example/auth",
				Method: RedirectMethodPost,
			},
			wantErr: true,
		},
		{
			name: "GET With Data",
			action: RedirectAction{
				Type:   ActionTypeRedirect,
				URL:    "https://bank.example/auth",
				Method: RedirectMethodGet,
				Data:   FormData{{Name: "PaReq", Value: "abc"}},
			},
			wantErr: true,
		},
		{
			name: "Unknown Method",
			action: RedirectAction{
				Type:   ActionTypeRedirect,
				URL:    "https://bank.example/auth",
				Method: "PUT",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFormDataPreservesOrder(t *testing.T) {
	raw := `{"PaReq":"abc","MD":"session-1","TermUrl":"https://shop.example/return"}`

	var data FormData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := FormData{
		{Name: "PaReq", Value: "abc"},
		{Name: "MD", Value: "session-1"},
		{Name: "TermUrl", Value: "https://shop.example/return"},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("decoded form data mismatch (-want +got):\n%s", diff)
	}

	// round-trip keeps the document order byte-for-byte
	out, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Errorf("marshal changed order or content:\n want %s\n got  %s", raw, out)
	}
}

func TestFormDataRejectsNonObject(t *testing.T) {
	var data FormData
	if err := json.Unmarshal([]byte(`["PaReq"]`), &data); err == nil {
		t.Error("expected error for non-object form data")
	}
	if err := json.Unmarshal([]byte(`{"PaReq":123}`), &data); err == nil {
		t.Error("expected error for non-string form value")
	}
}
