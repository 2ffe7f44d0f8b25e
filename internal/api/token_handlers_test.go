package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/tenant"
)

func issueRequest(t *testing.T, payload IssuePayload, sessionToken string) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/v1/token/issue", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}
	return req
}

func TestIssueExchangesSessionForCredential(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, issueRequest(t, IssuePayload{
		Upstream:     "dashboard",
		Audience:     "payment-data",
		Scopes:       []string{"payments:read", "merchants:read"},
		MerchantID:   "mer_1",
		MerchantCode: "acme",
	}, testSessionToken))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var cred core.Credential
	if err := json.Unmarshal(rec.Body.Bytes(), &cred); err != nil {
		t.Fatal(err)
	}
	if cred.Token == "" || cred.Fingerprint == "" {
		t.Fatalf("incomplete credential: %+v", cred)
	}

	// the minted credential must validate and carry the dashboard identity
	validator, err := auth.NewValidator([]byte(testSigningSecret))
	if err != nil {
		t.Fatal(err)
	}
	principal, err := validator.Validate(cred.Token, "payment-data", core.ScopePaymentsRead)
	if err != nil {
		t.Fatalf("minted credential does not validate: %v", err)
	}
	if principal.Kind != core.KindDashboardUser || principal.ID != "alice" {
		t.Errorf("unexpected principal %+v", principal)
	}
	if principal.Merchant == nil || principal.Merchant.ID != "mer_1" {
		t.Errorf("merchant context missing from principal: %+v", principal.Merchant)
	}
}

func TestIssueUsesMerchantHeadersAsFallback(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	req := issueRequest(t, IssuePayload{
		Upstream: "dashboard",
		Audience: "payment-data",
	}, testSessionToken)
	req.Header.Set(tenant.HeaderMerchantID, "mer_2")
	req.Header.Set(tenant.HeaderMerchantCode, "globex")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIssueRejectsScopeEscalation(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	// the support rule grants payments:read only
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, issueRequest(t, IssuePayload{
		Upstream:     "dashboard",
		Audience:     "payment-data",
		Scopes:       []string{"payments:read", "payments:write"},
		MerchantID:   "mer_1",
		MerchantCode: "acme",
	}, "sess-support"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIssueRejectsInvalidSession(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, issueRequest(t, IssuePayload{
		Upstream:     "dashboard",
		Audience:     "payment-data",
		MerchantID:   "mer_1",
		MerchantCode: "acme",
	}, "sess-bogus"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIssueRequiresMerchantContext(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, issueRequest(t, IssuePayload{
		Upstream: "dashboard",
		Audience: "payment-data",
	}, testSessionToken))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIssueRejectsHalfMerchantPair(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, issueRequest(t, IssuePayload{
		Upstream:   "dashboard",
		Audience:   "payment-data",
		MerchantID: "mer_1", // code missing
	}, testSessionToken))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMerchantCrossCheckOnProtectedRoute(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	scopes := core.Scopes{core.ScopePaymentsWrite}
	account, err := core.NewServiceAccount("payment-data", scopes,
		&core.MerchantContext{ID: "mer_1", Code: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	cred, err := env.issuer.Issue(account, testServiceName, scopes)
	if err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(EncryptPayload{Action: getAction("pay_20", "https://bank.example/auth")})

	// transport asserts a different tenant than the credential is bound to
	req := httptest.NewRequest("POST", "/v1/redirect/encrypt", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set(tenant.HeaderMerchantID, "mer_9")
	req.Header.Set(tenant.HeaderMerchantCode, "initech")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on merchant mismatch, got %d: %s", rec.Code, rec.Body.String())
	}

	// matching transport context is fine
	req = httptest.NewRequest("POST", "/v1/redirect/encrypt", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set(tenant.HeaderMerchantID, "mer_1")
	req.Header.Set(tenant.HeaderMerchantCode, "acme")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on matching merchant, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTasksRequireCredential(t *testing.T) {
	env := newTestEnv(t)
	handler := env.server.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/tasks/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/v1/tasks/", nil)
	req.Header.Set("Authorization", "Bearer "+env.serviceCredential(t, core.Scopes{core.ScopePaymentsRead}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credential, got %d: %s", rec.Code, rec.Body.String())
	}
}
