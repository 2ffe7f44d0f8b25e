package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/config"
	"github.com/jbattja/fugata-sub001/internal/core"
)

var (
	tokenIssueAudience     string
	tokenIssueScopes       []string
	tokenIssueMerchantID   string
	tokenIssueMerchantCode string
)

// tokenIssueCmd mints a service-account credential locally, using the signing
// secret from the service configuration. Useful for wiring up a new service
// or debugging a call by hand.
var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint a service-account credential locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		issuer, err := auth.NewIssuer(cfg.Service.Name, []byte(cfg.Auth.SigningSecret),
			cfg.AllowedScopes(), cfg.Auth.TTL)
		if err != nil {
			return fmt.Errorf("building issuer: %w", err)
		}

		scopes, err := core.ParseScopes(tokenIssueScopes)
		if err != nil {
			return err
		}

		var merchant *core.MerchantContext
		if tokenIssueMerchantID != "" || tokenIssueMerchantCode != "" {
			m := core.MerchantContext{ID: tokenIssueMerchantID, Code: tokenIssueMerchantCode}
			if err := m.Validate(); err != nil {
				return err
			}
			merchant = &m
		}

		principal, err := core.NewServiceAccount(cfg.Service.Name, scopes, merchant)
		if err != nil {
			return err
		}

		cred, err := issuer.Issue(principal, tokenIssueAudience, scopes)
		if err != nil {
			return fmt.Errorf("minting failed: %w", err)
		}

		log.Info().
			Str("audience", tokenIssueAudience).
			Str("fingerprint", cred.Fingerprint).
			Time("expires_at", cred.ExpiresAt).
			Msg("credential minted")

		// the raw credential goes to stdout only, so it can be piped
		fmt.Println(cred.Token)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().StringVar(&tokenIssueAudience, "audience", "", "Service the credential is minted for")
	tokenIssueCmd.Flags().StringSliceVar(&tokenIssueScopes, "scopes", nil, "Scopes to grant (e.g. payments:read)")
	tokenIssueCmd.Flags().StringVar(&tokenIssueMerchantID, "merchant-id", "", "Merchant id to bind (optional)")
	tokenIssueCmd.Flags().StringVar(&tokenIssueMerchantCode, "merchant-code", "", "Merchant code to bind (optional)")

	_ = tokenIssueCmd.MarkFlagRequired("audience")
	_ = tokenIssueCmd.MarkFlagRequired("scopes")
}
