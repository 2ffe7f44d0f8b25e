package cmd

import (
	"github.com/spf13/cobra"
)

// tokenCmd groups credential-related commands.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint and inspect platform credentials",
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
