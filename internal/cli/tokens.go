package cli

import (
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage the token metadata registry",
}

var tokensUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the registry from the OraiDEX token list API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().UpdateTokens(cmd.Context())
	},
}

func init() {
	tokensCmd.AddCommand(tokensUpdateCmd)
}
