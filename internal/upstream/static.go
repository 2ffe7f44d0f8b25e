package upstream

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/jbattja/fugata-sub001/internal/config"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// StaticVerifier maps fixed tokens to identities. Meant for development and
// tests; an empty token map fails every verification.
type StaticVerifier struct {
	name     string
	tokenMap map[string]map[string]any // token -> attributes
}

type staticConfig struct {
	TokenMap map[string]map[string]any `mapstructure:"token_map"`
}

func NewStatic(cfg config.UpstreamConfig) (*StaticVerifier, error) {
	var conf staticConfig
	if err := mapstructure.Decode(cfg.Config, &conf); err != nil {
		return nil, fmt.Errorf("decoding config for static verifier '%s': %w", cfg.Name, err)
	}
	return &StaticVerifier{
		name:     cfg.Name,
		tokenMap: conf.TokenMap,
	}, nil
}

func (s *StaticVerifier) Name() string {
	return s.name
}

func (s *StaticVerifier) Verify(_ context.Context, token string) (*core.UpstreamIdentity, error) {
	attrs, ok := s.tokenMap[token]
	if !ok {
		return nil, fmt.Errorf("invalid upstream token")
	}

	subject := "static-user"
	if sub, ok := attrs["sub"].(string); ok && sub != "" {
		subject = sub
	}

	return &core.UpstreamIdentity{
		Subject:    subject,
		Upstream:   s.name,
		Attributes: attrs,
	}, nil
}
