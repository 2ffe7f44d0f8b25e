package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jbattja/fugata-sub001/internal/audit"
)

var (
	fingerprintType string
	fingerprintRaw  bool
)

var fingerprintCmd = &cobra.Command{
	Use:     "fingerprint [value]",
	Aliases: []string{"fp"},
	Short:   `Calculate the audit fingerprint of a credential or envelope`,
	Long: `Calculates the non-reversible fingerprint of a secret value. This is the
value stored in audit logs in the 'fingerprint' field; raw credentials and
envelopes are never written there.`,
	Example: `  # Fingerprint of a credential
  fugata-auth fingerprint --type credential eyJhbG...

  # Fingerprint of a value from stdin
  echo "..." | fugata-auth fingerprint --type envelope -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string

		if args[0] != "-" {
			value = args[0]
		} else {
			// read from stdin
			log.Debug().Msg("Reading value from stdin")

			data, err := os.ReadFile("/dev/stdin")
			if err != nil {
				return fmt.Errorf("failed to read value from stdin: %w", err)
			}
			value = strings.TrimSpace(string(data))
		}

		if value == "" {
			return fmt.Errorf("value cannot be empty")
		}

		fp := audit.CalculateFingerprint(fingerprintType, value)

		if fingerprintRaw {
			fmt.Println(fp)
		} else {
			fmt.Println("Type:       ", fingerprintType)
			fmt.Println("Fingerprint:", fp)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)

	fingerprintCmd.Flags().StringVar(&fingerprintType, "type", audit.CredentialFingerprintType,
		fmt.Sprintf("Value type (one of: %s)", strings.Join(audit.RegisteredFingerprinterTypes(), ", ")))
	fingerprintCmd.Flags().BoolVarP(&fingerprintRaw, "raw", "r", false,
		"Output only the fingerprint value without additional text")
}
