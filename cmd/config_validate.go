package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbattja/fugata-sub001/internal/config"
)

// configValidateCmd loads and validates the service configuration without
// starting anything.
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the service configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return logError(err, "", fmt.Sprintf("configuration '%s' is invalid", cfgFile))
		}

		logSuccess("configuration '%s' is valid", cfgFile)
		logSuccess("service: %s, %d upstream(s), %d rule(s)",
			bold(cfg.Service.Name), len(cfg.Upstreams), len(cfg.Rules))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
