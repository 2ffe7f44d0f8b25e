package upstream

import (
	"context"
	"fmt"

	"github.com/jbattja/fugata-sub001/internal/config"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// Verifier checks an upstream session token (e.g. a dashboard login) and
// produces the identity it asserts. Verifiers never mint anything; delegated
// credentials are minted by the auth issuer after policy evaluation.
type Verifier interface {
	// Name returns the identifier of this verifier (as used in config).
	Name() string

	// Verify takes a raw token string, validates it, and returns the identity.
	Verify(ctx context.Context, token string) (*core.UpstreamIdentity, error)
}

func BuildRegistry(ctx context.Context, cfgs []config.UpstreamConfig) (map[string]Verifier, error) {
	registry := make(map[string]Verifier)
	for _, cfg := range cfgs {
		switch cfg.Type {
		case "static":
			v, err := NewStatic(cfg)
			if err != nil {
				return nil, fmt.Errorf("building static verifier %q: %w", cfg.Name, err)
			}
			registry[cfg.Name] = v
		case "oidc":
			v, err := NewOIDCVerifier(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("building oidc verifier %q: %w", cfg.Name, err)
			}
			registry[cfg.Name] = v
		default:
			return nil, fmt.Errorf("unknown upstream type %q for verifier %q", cfg.Type, cfg.Name)
		}
	}
	return registry, nil
}
