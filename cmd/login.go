package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jbattja/fugata-sub001/internal/cliconfig"
	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/pkg/client"
)

var (
	loginUpstream     string
	loginAudience     string
	loginScopes       []string
	loginMerchantID   string
	loginMerchantCode string
)

var loginCmd = &cobra.Command{
	Use:   "login [session-token]",
	Short: "Exchange a dashboard session token for a platform credential",
	Long: `Exchanges an upstream session token (e.g. a dashboard OIDC login) for a
scoped platform credential. The credential is saved locally so later
commands against the same server are authenticated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionToken := args[0]
		if sessionToken == "" {
			return fmt.Errorf("session token cannot be empty")
		}

		server := viper.GetString(ServerAddrKey)
		if server == "" {
			return fmt.Errorf("server address not configured, provide via --server or env")
		}
		u, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("parsing server URL: %w", err)
		}

		var merchant *core.MerchantContext
		if loginMerchantID != "" || loginMerchantCode != "" {
			m := core.MerchantContext{ID: loginMerchantID, Code: loginMerchantCode}
			if err := m.Validate(); err != nil {
				return err
			}
			merchant = &m
		}

		// perform exchange via client
		cli := client.New(server)

		log.Info().Msgf("Issuing credential from server %q...", u.Host)

		cred, correlationID, err := cli.IssueToken(cmd.Context(), sessionToken, client.IssueTokenOptions{
			Upstream: loginUpstream,
			Audience: loginAudience,
			Scopes:   loginScopes,
			Merchant: merchant,
		})
		if err != nil {
			return logError(err, correlationID, "failed to issue credential")
		}

		cfg, err := cliconfig.Load()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = &cliconfig.CLIConfig{}
		}
		if cfg.Credentials == nil {
			cfg.Credentials = make(map[string]*cliconfig.Credential)
		}
		cfg.Credentials[u.Host] = &cliconfig.Credential{
			Token: cred.Token,
		}
		if err := cliconfig.Save(cfg); err != nil {
			return logError(err, "", "login succeeded but could not save credentials")
		}

		logSuccess("saved credentials for %s (expires %s)", bold(u.Host), cred.ExpiresAt.Format("15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&loginUpstream, "upstream", "", "Upstream verifier name (optional when only one is configured)")
	loginCmd.Flags().StringVar(&loginAudience, "audience", "", "Service the credential is minted for")
	loginCmd.Flags().StringSliceVar(&loginScopes, "scopes", nil, "Scopes to request (default: everything the rule grants)")
	loginCmd.Flags().StringVar(&loginMerchantID, "merchant-id", "", "Merchant id the session operates on")
	loginCmd.Flags().StringVar(&loginMerchantCode, "merchant-code", "", "Merchant code the session operates on")

	_ = loginCmd.MarkFlagRequired("audience")
	_ = loginCmd.MarkFlagRequired("merchant-id")
	_ = loginCmd.MarkFlagRequired("merchant-code")
}
