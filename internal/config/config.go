package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/policy"
)

type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Auth        AuthConfig        `yaml:"auth"`
	Envelope    EnvelopeConfig    `yaml:"envelope"`
	Upstreams   []UpstreamConfig  `yaml:"upstreams"`
	Rules       []core.Rule       `yaml:"rules"`
	Audit       AuditConfig       `yaml:"audit"`
	Consumed    ConsumedConfig    `yaml:"consumed"`
	PaymentData PaymentDataConfig `yaml:"payment_data"`
	Bridge      BridgeConfig      `yaml:"bridge"`
}

// ServiceConfig identifies this process. The name doubles as the credential
// issuer claim and as the audience other services must mint for.
type ServiceConfig struct {
	Name string `yaml:"name"`
}

// AuthConfig holds the credential signing settings. The signing secret is
// shared by all services that validate each other's credentials; rotation
// requires a redeploy.
type AuthConfig struct {
	// SigningSecret signs and verifies credentials. Required.
	SigningSecret string `yaml:"signing_secret"`

	// TTL is the credential lifetime. Defaults to 5m.
	TTL time.Duration `yaml:"ttl"`

	// AllowedScopes this service may grant when issuing credentials.
	AllowedScopes []string `yaml:"allowed_scopes"`
}

// EnvelopeConfig holds the redirect envelope encryption settings. The secret
// never leaves trusted backend processes.
type EnvelopeConfig struct {
	Secret string `yaml:"secret"`
	KeyID  string `yaml:"key_id"`
}

// UpstreamConfig holds configuration for an upstream identity verifier.
type UpstreamConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`    // e.g., "oidc", "static"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

// ConsumedConfig selects the store that makes redirect actions single-use.
type ConsumedConfig struct {
	Type  string      `yaml:"type"` // "memory" (default) or "redis"
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PaymentDataConfig points at the payment-data service holding pending
// redirect actions.
type PaymentDataConfig struct {
	// URL is the base URL of the payment-data service.
	URL string `yaml:"url"`

	// Audience is the service name payment-data validates credentials
	// against. Defaults to "payment-data".
	Audience string `yaml:"audience"`
}

// BridgeConfig tunes the redirect bridge.
type BridgeConfig struct {
	// Timeout bounds the fetch-or-decrypt step. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("%w: service.name is required", core.ErrConfiguration)
	}
	if c.Auth.SigningSecret == "" {
		return fmt.Errorf("%w: auth.signing_secret is required", core.ErrConfiguration)
	}
	if c.Envelope.Secret == "" {
		return fmt.Errorf("%w: envelope.secret is required", core.ErrConfiguration)
	}
	if _, err := core.ParseScopes(c.Auth.AllowedScopes); err != nil {
		return fmt.Errorf("%w: auth.allowed_scopes: %v", core.ErrConfiguration, err)
	}
	if c.Auth.TTL == 0 {
		c.Auth.TTL = 5 * time.Minute
	}
	if c.Bridge.Timeout == 0 {
		c.Bridge.Timeout = 10 * time.Second
	}

	validUpstreams := make(map[string]struct{})
	for idx, u := range c.Upstreams {
		if u.Name == "" {
			return fmt.Errorf("%w: upstream at index %d has empty name", core.ErrConfiguration, idx)
		}
		validUpstreams[u.Name] = struct{}{}
	}

	validRules, err := policy.ValidateRules(c.Rules, validUpstreams)
	if err != nil {
		return fmt.Errorf("%w: validating rules: %v", core.ErrConfiguration, err)
	}
	c.Rules = validRules

	switch c.Consumed.Type {
	case "", "memory":
		// in-process store
	case "redis":
		if c.Consumed.Redis.Addr == "" {
			return fmt.Errorf("%w: consumed.redis.addr is required for redis store", core.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown consumed store type '%s'", core.ErrConfiguration, c.Consumed.Type)
	}

	return nil
}

// AllowedScopes returns the parsed scope set this service may grant.
func (c *Config) AllowedScopes() core.Scopes {
	scopes, _ := core.ParseScopes(c.Auth.AllowedScopes) // validated in Validate
	return scopes
}

// PaymentDataAudience returns the configured audience with its default.
func (c *Config) PaymentDataAudience() string {
	if c.PaymentData.Audience != "" {
		return c.PaymentData.Audience
	}
	return "payment-data"
}
