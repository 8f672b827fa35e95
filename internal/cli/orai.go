package cli

import (
	"github.com/spf13/cobra"

	"taxcsv/internal/app"
)

var (
	oraiTxid    string
	oraiCSVPath string
	oraiPNGPath string
)

var oraiCmd = &cobra.Command{
	Use:   "orai <wallet>",
	Short: "Generate the Oraichain report for a wallet address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.OraiReportOptions{
			Txid:    oraiTxid,
			CSVPath: oraiCSVPath,
			PNGPath: oraiPNGPath,
		}
		return getApp().ReportOrai(cmd.Context(), args[0], opts)
	},
}

func init() {
	oraiCmd.Flags().StringVar(&oraiTxid, "txid", "", "Process a single transaction hash instead of full history")
	oraiCmd.Flags().StringVar(&oraiCSVPath, "csv", "", "Path to write CSV report (defaults to report.dir)")
	oraiCmd.Flags().StringVar(&oraiPNGPath, "png", "", "Path to write PNG chart of daily flows")
}
