package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// Exporter collects normalized rows in ingestion order and serialises them.
type Exporter struct {
	rows   []Row
	logger zerolog.Logger
}

// NewExporter constructs a row collector for one wallet report run.
func NewExporter(wallet string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		logger: logger.With().Str("component", "exporter").Str("wallet", wallet).Logger(),
	}
}

// Ingest appends one row. Append order is preserved through CSV output.
func (e *Exporter) Ingest(row Row) {
	e.rows = append(e.rows, row)
	e.logger.Debug().
		Str("txid", row.Txid).
		Str("type", string(row.Type)).
		Msg("row ingested")
}

// Rows returns the collected rows in ingestion order.
func (e *Exporter) Rows() []Row {
	return e.rows
}

// WriteCSV serialises all collected rows.
func (e *Exporter) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"date", "tx_type",
		"received_amount", "received_currency",
		"sent_amount", "sent_currency",
		"fee", "fee_currency",
		"comment", "txid", "url",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range e.rows {
		record := []string{
			row.Timestamp.UTC().Format(csvTimeLayout),
			string(row.Type),
			emptyIfZero(row.ReceivedAmount, row.ReceivedCurrency),
			row.ReceivedCurrency,
			emptyIfZero(row.SentAmount, row.SentCurrency),
			row.SentCurrency,
			emptyIfZero(row.Fee, row.FeeCurrency),
			row.FeeCurrency,
			row.Comment,
			row.Txid,
			row.URL,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// WriteCSVFile writes the report to path, creating parent directories.
func (e *Exporter) WriteCSVFile(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := e.WriteCSV(file); err != nil {
		return err
	}

	e.logger.Info().Str("path", path).Int("rows", len(e.rows)).Msg("report written")
	return nil
}

func emptyIfZero(d decimal.Decimal, currency string) string {
	if currency == "" && d.IsZero() {
		return ""
	}
	return d.String()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
