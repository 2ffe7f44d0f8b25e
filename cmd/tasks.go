package cmd

import (
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and trigger server maintenance tasks",
	Long:  `List, trigger, and read logs of maintenance tasks on the server. Requires a saved credential (fugata-auth login).`,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
