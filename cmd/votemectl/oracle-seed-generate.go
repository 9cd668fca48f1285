package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pu0238/vote-me/pkg/oracle/local"
)

// oracleSeedGenerateCmd represents the oracle seed generate command
var oracleSeedGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an oracle master seed",
	Long: `
Generate an oracle master seed

Use this command to generate a new Base64-encoded 256 bit master seed. Every
signing key of the in-process oracle is derived from it, so losing the seed
invalidates every registered identity.

Example:

$ export VOTEME_ORACLE_SEED="$(votemectl oracle seed generate)"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := make([]byte, local.MinSeedSize)
		if _, err := rand.Read(seed); err != nil {
			return err
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), base64.StdEncoding.Strict().EncodeToString(seed))
		return err
	},
}

func init() {
	oracleSeedCmd.AddCommand(oracleSeedGenerateCmd)
}
