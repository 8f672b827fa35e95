package app

import (
	"context"
	"fmt"
	"path/filepath"

	"taxcsv/internal/lcd"
	"taxcsv/internal/orai"
	"taxcsv/internal/report"
)

// ReportOrai generates the Oraichain accounting report for a wallet.
func (a *App) ReportOrai(ctx context.Context, wallet string, opts OraiReportOptions) error {
	registry := a.loadRegistry()
	client := a.newLCDClient()

	exporter := report.NewExporter(wallet, a.Logger)
	processor := orai.NewProcessor(wallet, registry, client, a.Logger)
	nativeSymbol, _ := registry.Resolve(orai.NativeDenom)

	if opts.Txid != "" {
		tx, err := client.TxByHash(ctx, opts.Txid)
		if err != nil {
			return fmt.Errorf("fetch transaction %s: %w", opts.Txid, err)
		}
		processor.ProcessTx(ctx, tx, exporter)
		return a.writeOraiReport(exporter, wallet, nativeSymbol, opts)
	}

	exists, err := client.AccountExists(ctx, wallet)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return fmt.Errorf("wallet %s not found on chain", wallet)
	}

	pages, err := client.PagesCount(ctx, wallet)
	if err != nil {
		return fmt.Errorf("estimate history size: %w", err)
	}
	a.Logger.Info().
		Int("pages", pages).
		Dur("estimated_duration", lcd.EstimateDuration(pages)).
		Msg("fetching transaction history")

	txs, err := client.TxsByAddress(ctx, wallet)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	a.Logger.Info().Int("transactions", len(txs)).Msg("processing transactions")
	processor.ProcessTxs(ctx, txs, exporter)

	return a.writeOraiReport(exporter, wallet, nativeSymbol, opts)
}

func (a *App) writeOraiReport(exporter *report.Exporter, wallet, nativeSymbol string, opts OraiReportOptions) error {
	csvPath := opts.CSVPath
	if csvPath == "" {
		csvPath = filepath.Join(a.Config.Report.Dir, fmt.Sprintf("ORAI.%s.csv", wallet))
	}
	if err := exporter.WriteCSVFile(csvPath); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	if opts.PNGPath != "" {
		if err := exporter.WriteChartPNG(opts.PNGPath, nativeSymbol); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}
	return nil
}
