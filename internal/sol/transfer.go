package sol

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"taxcsv/internal/report"
)

// ErrAmbiguousTransfer marks a transfer shape the detector refuses to guess
// about: multiple movements in both directions, or none at all.
var ErrAmbiguousTransfer = errors.New("ambiguous transfer shape")

// dustThreshold is the spam filter cutoff for native-currency deposits.
var dustThreshold = decimal.NewFromFloat(0.0000001)

// transferAllowSet lists the only instruction names permitted in the log of
// a plain transfer transaction.
var transferAllowSet = map[string]bool{
	"Transfer":          true,
	"InitializeAccount": true,
	"CloseAccount":      true,
	"transfer":          true,
	"system":            true,
}

// IsTransfer classifies the transaction as a plain transfer. Checked-transfer
// instruction variants always qualify; otherwise a Transfer log entry or a
// system-program transfer qualifies only when every logged instruction stays
// inside the allow-set.
func IsTransfer(tx *TxInfo) bool {
	for _, ins := range tx.Instructions {
		if ins.Type == instructTransferCheck || ins.Type == instructTransferChecked {
			return true
		}
	}

	if containsName(tx.LogInstructions, "Transfer") || hasInstruction(tx.Instructions, "transfer", systemProgram) {
		for _, name := range tx.LogInstructions {
			if !transferAllowSet[name] {
				return false
			}
		}
		return true
	}

	return false
}

// IsSpamTransfer reports whether a native deposit is below the dust cutoff.
func IsSpamTransfer(amount decimal.Decimal, currency string) bool {
	return currency == CurrencySOL && amount.Cmp(dustThreshold) <= 0
}

// HandleTransfer emits the row for a confirmed transfer transaction.
// Exactly one outbound: transfer-out, with the blockchain fee folded out of
// the amount when no explicit fee was recorded. Exactly one inbound:
// transfer-in unless it is dust. Every other shape is a hard error.
func HandleTransfer(exporter *report.Exporter, tx *TxInfo) error {
	switch {
	case len(tx.TransfersOut) == 1 && len(tx.TransfersIn) == 0:
		out := tx.TransfersOut[0]
		amount := out.Amount

		if out.Currency == CurrencySOL && tx.Fee.IsZero() && tx.FeeBlockchain.IsPositive() {
			tx.Fee = tx.FeeBlockchain
			amount = amount.Sub(tx.FeeBlockchain)
		}

		row := report.NewTransferOut(txContext(tx), amount, out.Currency)
		if out.Destination != "" {
			row.Comment = "Transfer to " + out.Destination
		}
		exporter.Ingest(row)

	case len(tx.TransfersIn) == 1 && len(tx.TransfersOut) == 0:
		in := tx.TransfersIn[0]
		if IsSpamTransfer(in.Amount, in.Currency) {
			return nil
		}

		row := report.NewTransferIn(txContext(tx), in.Amount, in.Currency)
		if in.Source != "" {
			row.Comment = "Transfer from " + in.Source
		}
		exporter.Ingest(row)

	default:
		return fmt.Errorf("txid=%s: %d in, %d out: %w",
			tx.Txid, len(tx.TransfersIn), len(tx.TransfersOut), ErrAmbiguousTransfer)
	}

	return nil
}

// HandleFailed tags a transaction that errored on-chain: only the fee moved.
func HandleFailed(exporter *report.Exporter, tx *TxInfo) {
	txCtx := txContext(tx)

	if tx.FeeBlockchain.IsPositive() {
		row := report.NewSpendFee(txCtx, tx.FeeBlockchain, CurrencySOL)
		row.Comment = "failed transaction"
		exporter.Ingest(row)
		return
	}

	row := report.NewUnknown(txCtx)
	row.Comment = "failed transaction"
	exporter.Ingest(row)
}

// HandleUnknown emits a pass-through row for transactions the detector does
// not recognise as transfers.
func HandleUnknown(exporter *report.Exporter, tx *TxInfo) {
	row := report.NewUnknown(txContext(tx))
	row.Comment = "unrecognized transaction"
	exporter.Ingest(row)
}

func txContext(tx *TxInfo) report.TxContext {
	txCtx := report.TxContext{
		Txid:      tx.Txid,
		Timestamp: tx.Timestamp,
		URL:       tx.URL(),
	}
	if tx.Fee.IsPositive() {
		txCtx.Fee = tx.Fee
		txCtx.FeeCurrency = CurrencySOL
	}
	return txCtx
}

func containsName(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

func hasInstruction(instructions []Instruction, insType, program string) bool {
	for _, ins := range instructions {
		if ins.Type == insType && ins.Program == program {
			return true
		}
	}
	return false
}
