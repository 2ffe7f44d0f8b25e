package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jbattja/fugata-sub001/internal/audit"
	"github.com/jbattja/fugata-sub001/internal/auth"
)

var tokenInspectVerbose bool

// tokenInspectCmd decodes a credential WITHOUT verifying its signature and
// shows the claims. Debugging aid only; never treat its output as trusted.
var tokenInspectCmd = &cobra.Command{
	Use:   "inspect [credential]",
	Short: "Decode a credential and display its claims (unverified)",
	Example: `  # Inspect a credential
  fugata-auth token inspect eyJhbG...

  # Inspect a credential from stdin
  fugata-auth token issue --audience payment-data --scopes payments:read | fugata-auth token inspect -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := args[0]
		if raw == "-" {
			data, err := os.ReadFile("/dev/stdin")
			if err != nil {
				return fmt.Errorf("failed to read credential from stdin: %w", err)
			}
			raw = strings.TrimSpace(string(data))
		}
		if raw == "" {
			return fmt.Errorf("credential cannot be empty")
		}

		var claims auth.Claims
		token, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
		if err != nil {
			return fmt.Errorf("decoding credential: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"Subject", claims.Subject},
			{"Kind", claims.Kind},
			{"Issuer", claims.Issuer},
			{"Audience", strings.Join(claims.Audience, ", ")},
			{"Scopes", strings.Join(claims.Scopes, ", ")},
			{"Merchant", formatMerchant(claims.MerchantID, claims.MerchantCode)},
			{"Expires", formatClaimTime(claims.ExpiresAt)},
			{"Issued", formatClaimTime(claims.IssuedAt)},
			{"Fingerprint", audit.CalculateFingerprint(audit.CredentialFingerprintType, raw)},
		})
		t.SetStyle(table.StyleLight)
		t.Render()

		if tokenInspectVerbose {
			fmt.Println(bold("\nRaw header and claims:"))
			spew.Dump(token.Header, claims)
		}
		return nil
	},
}

func formatMerchant(id, code string) string {
	if id == "" && code == "" {
		return faint("(none)")
	}
	return fmt.Sprintf("%s (%s)", id, code)
}

func formatClaimTime(t *jwt.NumericDate) string {
	if t == nil {
		return faint("(not set)")
	}
	return t.Format(time.RFC3339)
}

func init() {
	tokenCmd.AddCommand(tokenInspectCmd)

	tokenInspectCmd.Flags().BoolVarP(&tokenInspectVerbose, "verbose", "v", false,
		"Dump the raw decoded header and claims")
}
