package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"taxcsv/internal/report"
	"taxcsv/internal/sol"
)

// ReportSol generates the Solana accounting report for a wallet.
func (a *App) ReportSol(ctx context.Context, wallet string, opts SolReportOptions) error {
	client := a.newRPCClient()

	maxTxs := a.Config.Sol.MaxTxs
	if opts.MaxTxs > 0 {
		maxTxs = opts.MaxTxs
	}

	signatures, err := client.SignaturesForAddress(ctx, wallet, a.Config.Sol.SignatureLimit, maxTxs)
	if err != nil {
		return fmt.Errorf("fetch signatures: %w", err)
	}
	if len(signatures) == 0 {
		return fmt.Errorf("wallet %s has no transactions", wallet)
	}

	a.Logger.Info().Int("transactions", len(signatures)).Msg("processing transactions")

	exporter := report.NewExporter(wallet, a.Logger)

	// Signatures arrive newest first; process chronologically.
	for i := len(signatures) - 1; i >= 0; i-- {
		sig := signatures[i].Signature

		txinfo, err := client.Transaction(ctx, wallet, sig)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.Logger.Error().Str("txid", sig).Err(err).Msg("transaction fetch failed; skipping")
			continue
		}

		switch {
		case txinfo.Failed:
			sol.HandleFailed(exporter, txinfo)
		case sol.IsTransfer(txinfo):
			if err := sol.HandleTransfer(exporter, txinfo); err != nil {
				// An ambiguous shape stops this transaction only.
				if errors.Is(err, sol.ErrAmbiguousTransfer) {
					a.Logger.Error().Str("txid", sig).Err(err).Msg("transfer detection refused to guess")
					continue
				}
				return err
			}
		default:
			sol.HandleUnknown(exporter, txinfo)
		}
	}

	csvPath := opts.CSVPath
	if csvPath == "" {
		csvPath = filepath.Join(a.Config.Report.Dir, fmt.Sprintf("SOL.%s.csv", wallet))
	}
	if err := exporter.WriteCSVFile(csvPath); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	if opts.PNGPath != "" {
		if err := exporter.WriteChartPNG(opts.PNGPath, sol.CurrencySOL); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}
	return nil
}
