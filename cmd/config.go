package cmd

import (
	"github.com/spf13/cobra"
)

// configCmd groups commands that work on the service configuration file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with the service configuration",
}

func init() {
	rootCmd.AddCommand(configCmd)
}
