package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "votemectl",
	Short: "VoteMe server and administration commands",
	Long: `votemectl runs the VoteMe server, the reference signing oracle,
and the administrative commands that manage its database and configuration.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
