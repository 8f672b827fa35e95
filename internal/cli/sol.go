package cli

import (
	"github.com/spf13/cobra"

	"taxcsv/internal/app"
)

var (
	solMaxTxs  int
	solCSVPath string
	solPNGPath string
)

var solCmd = &cobra.Command{
	Use:   "sol <wallet>",
	Short: "Generate the Solana report for a wallet address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SolReportOptions{
			CSVPath: solCSVPath,
			PNGPath: solPNGPath,
			MaxTxs:  solMaxTxs,
		}
		return getApp().ReportSol(cmd.Context(), args[0], opts)
	},
}

func init() {
	solCmd.Flags().IntVar(&solMaxTxs, "limit", 0, "Maximum transactions to process (defaults to config)")
	solCmd.Flags().StringVar(&solCSVPath, "csv", "", "Path to write CSV report (defaults to report.dir)")
	solCmd.Flags().StringVar(&solPNGPath, "png", "", "Path to write PNG chart of daily flows")
}
