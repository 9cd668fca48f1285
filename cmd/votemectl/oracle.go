package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// oracleCmd represents the oracle command
var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Run and manage the reference signing oracle",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Help()
		return fmt.Errorf("command 'oracle' requires a subcommand (serve, seed)")
	},
}

var oracleSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Manage the oracle master seed",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Help()
		return fmt.Errorf("command 'seed' requires a subcommand (generate)")
	},
}

func init() {
	rootCmd.AddCommand(oracleCmd)
	oracleCmd.AddCommand(oracleSeedCmd)
}
