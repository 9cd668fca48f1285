package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pu0238/vote-me/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show VoteMe configuration attributes and their sources",
	Long: `Show VoteMe configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources. For example, the environment variables and config
file. These may not reflect the current values used by the running
server.

Config file location: /etc/voteme/config/voteme.yml (or VOTEME_CONFIG_PATH)

Example:
  votemectl configuration show
  votemectl configuration show --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return showConfiguration(cmd.OutOrStdout(), output)
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(w io.Writer, output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if output == "json" {
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, jsonOutput)
		return err
	}

	_, err = fmt.Fprint(w, cfg.FormatText())
	return err
}
