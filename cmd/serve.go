package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jbattja/fugata-sub001/internal/api"
	"github.com/jbattja/fugata-sub001/internal/audit"
	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/config"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/envelope"
	"github.com/jbattja/fugata-sub001/internal/logging"
	"github.com/jbattja/fugata-sub001/internal/paymentdata"
	"github.com/jbattja/fugata-sub001/internal/policy"
	"github.com/jbattja/fugata-sub001/internal/service"
	"github.com/jbattja/fugata-sub001/internal/store"
	"github.com/jbattja/fugata-sub001/internal/tasks"
	"github.com/jbattja/fugata-sub001/internal/upstream"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the auth bridge server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		signingKey := []byte(cfg.Auth.SigningSecret)

		issuer, err := auth.NewIssuer(cfg.Service.Name, signingKey, cfg.AllowedScopes(), cfg.Auth.TTL)
		if err != nil {
			return fmt.Errorf("building issuer: %w", err)
		}
		validator, err := auth.NewValidator(signingKey)
		if err != nil {
			return fmt.Errorf("building validator: %w", err)
		}
		codec, err := envelope.NewCodec([]byte(cfg.Envelope.Secret), cfg.Envelope.KeyID)
		if err != nil {
			return fmt.Errorf("building envelope codec: %w", err)
		}

		log.Info().Msg("Initializing upstream verifiers...")
		upstreams, err := upstream.BuildRegistry(cmd.Context(), cfg.Upstreams)
		if err != nil {
			return fmt.Errorf("building upstream registry: %w", err)
		}
		eng := policy.New(cfg.Rules)

		auditor, err := buildAuditor(cfg)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			_ = auditor.Close()
		}()

		consumed, err := buildConsumedStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("building consumed store: %w", err)
		}

		source, err := buildActionSource(cfg, issuer)
		if err != nil {
			return err
		}

		tokenService := service.NewTokenService(upstreams, eng, issuer, auditor)

		taskManager := tasks.NewManager()
		if ms, ok := consumed.(*store.InMemoryConsumedStore); ok {
			taskManager.Register("consumed-cleanup", 15*time.Minute,
				func(ctx context.Context, logger logging.InternalLogger) error {
					removed, err := ms.DeleteExpired(ctx)
					if err != nil {
						return err
					}
					logger.Info("removed %d expired consumed markers", removed)
					return nil
				})
		}

		srv := api.NewServer(
			cfg.Service.Name,
			validator,
			codec,
			source,
			consumed,
			auditor,
			tokenService,
			taskManager,
			cfg.Bridge.Timeout,
		)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes(),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		if rs, ok := consumed.(*store.RedisConsumedStore); ok {
			_ = rs.Close()
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func buildAuditor(cfg *config.Config) (core.Auditor, error) {
	if !cfg.Audit.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	switch cfg.Audit.Type {
	case "", "file":
		path := cfg.Audit.Path
		if path == "" {
			path = "audit.log"
		}
		return audit.NewFileAuditor(path)
	case "memory":
		return audit.NewInMemoryAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Audit.Type)
	}
}

func buildConsumedStore(ctx context.Context, cfg *config.Config) (core.ConsumedStore, error) {
	if cfg.Consumed.Type != "redis" {
		return store.NewInMemoryConsumedStore(), nil
	}

	rs := store.NewRedisConsumedStore(cfg.Consumed.Redis.Addr, cfg.Consumed.Redis.Password, cfg.Consumed.Redis.DB)
	if err := rs.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Consumed.Redis.Addr, err)
	}
	return rs, nil
}

func buildActionSource(cfg *config.Config, issuer *auth.Issuer) (core.ActionSource, error) {
	if cfg.PaymentData.URL == "" {
		return nil, fmt.Errorf("payment_data.url is required to serve the redirect bridge")
	}

	account, err := core.NewServiceAccount(cfg.Service.Name, core.Scopes{core.ScopeRedirectsRead}, nil)
	if err != nil {
		return nil, fmt.Errorf("building service account principal: %w", err)
	}
	return paymentdata.New(cfg.PaymentData.URL, cfg.PaymentDataAudience(), issuer, account), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}
