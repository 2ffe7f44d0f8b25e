package upstream

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mitchellh/mapstructure"

	"github.com/jbattja/fugata-sub001/internal/config"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// OIDCVerifier validates dashboard session tokens against the identity
// provider backing the dashboard login.
type OIDCVerifier struct {
	name     string
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

type oidcConfig struct {
	IssuerURL string `mapstructure:"issuer_url"`
	ClientID  string `mapstructure:"client_id"`
}

func NewOIDCVerifier(ctx context.Context, cfg config.UpstreamConfig) (*OIDCVerifier, error) {
	var conf oidcConfig
	if err := mapstructure.Decode(cfg.Config, &conf); err != nil {
		return nil, fmt.Errorf("decoding config for oidc verifier '%s': %w", cfg.Name, err)
	}
	if conf.IssuerURL == "" {
		return nil, fmt.Errorf("oidc verifier '%s' missing 'issuer_url'", cfg.Name)
	}
	if conf.ClientID == "" {
		return nil, fmt.Errorf("oidc verifier '%s' missing 'client_id'", cfg.Name)
	}

	provider, err := oidc.NewProvider(ctx, conf.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("creating oidc provider for verifier '%s': %w", cfg.Name, err)
	}

	return &OIDCVerifier{
		name:     cfg.Name,
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: conf.ClientID}),
	}, nil
}

func (o *OIDCVerifier) Name() string {
	return o.name
}

func (o *OIDCVerifier) Verify(ctx context.Context, token string) (*core.UpstreamIdentity, error) {
	idToken, err := o.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("oidc verification failed: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extracting oidc claims: %w", err)
	}

	subject := idToken.Subject
	if subject == "" {
		return nil, fmt.Errorf("oidc token has no subject")
	}

	return &core.UpstreamIdentity{
		Subject:    subject,
		Upstream:   o.name,
		Attributes: claims,
	}, nil
}
