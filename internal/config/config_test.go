package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jbattja/fugata-sub001/internal/core"
)

const validConfig = `
service:
  name: auth-bridge
auth:
  signing_secret: test-signing-secret
  allowed_scopes: ["payments:read", "payments:write", "redirects:read"]
envelope:
  secret: test-envelope-secret
  key_id: key-1
upstreams:
  - name: dashboard
    type: static
    token_map:
      sess-1:
        sub: alice
        role: admin
rules:
  - name: dashboard-admins
    upstream: dashboard
    expr: identity.Attributes["role"] == "admin"
    scopes: ["payments:read"]
payment_data:
  url: http://localhost:9090
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Name != "auth-bridge" {
		t.Errorf("unexpected service name %q", cfg.Service.Name)
	}
	if !cfg.AllowedScopes().Contains(core.ScopePaymentsWrite) {
		t.Errorf("allowed scopes missing payments:write: %v", cfg.AllowedScopes())
	}
	if cfg.PaymentDataAudience() != "payment-data" {
		t.Errorf("expected default payment-data audience, got %q", cfg.PaymentDataAudience())
	}

	// defaults
	if cfg.Auth.TTL != 5*time.Minute {
		t.Errorf("expected default TTL 5m, got %v", cfg.Auth.TTL)
	}
	if cfg.Bridge.Timeout != 10*time.Second {
		t.Errorf("expected default bridge timeout 10s, got %v", cfg.Bridge.Timeout)
	}
	if len(cfg.Upstreams) != 1 || cfg.Upstreams[0].Name != "dashboard" {
		t.Fatalf("unexpected upstreams: %+v", cfg.Upstreams)
	}
	if _, ok := cfg.Upstreams[0].Config["token_map"]; !ok {
		t.Errorf("inline upstream config lost: %+v", cfg.Upstreams[0].Config)
	}
}

func TestValidateRejectsMissingSecrets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing service name", func(c *Config) { c.Service.Name = "" }},
		{"missing signing secret", func(c *Config) { c.Auth.SigningSecret = "" }},
		{"missing envelope secret", func(c *Config) { c.Envelope.Secret = "" }},
		{"unknown scope", func(c *Config) { c.Auth.AllowedScopes = []string{"admin:all"} }},
		{"unknown consumed store", func(c *Config) { c.Consumed.Type = "dynamo" }},
		{"redis without addr", func(c *Config) { c.Consumed.Type = "redis" }},
		{"rule for unknown upstream", func(c *Config) { c.Rules[0].Upstream = "ghost" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfig))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, core.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
