package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type enumerates the normalized row kinds.
type Type string

const (
	TypeTransferIn  Type = "transfer_in"
	TypeTransferOut Type = "transfer_out"
	TypeSwap        Type = "swap"
	TypeSpendFee    Type = "spend_fee"
	TypeUnknown     Type = "unknown"
)

// TxContext carries per-transaction fields shared by every row the
// transaction produces.
type TxContext struct {
	Txid        string
	Timestamp   time.Time
	URL         string
	Fee         decimal.Decimal
	FeeCurrency string
}

// Row is one normalized accounting entry. Rows are write-once: constructed,
// optionally annotated with a comment, then ingested.
type Row struct {
	Timestamp        time.Time
	Type             Type
	ReceivedAmount   decimal.Decimal
	ReceivedCurrency string
	SentAmount       decimal.Decimal
	SentCurrency     string
	Fee              decimal.Decimal
	FeeCurrency      string
	Comment          string
	Txid             string
	URL              string
}

func newRow(tx TxContext, kind Type) Row {
	return Row{
		Timestamp:   tx.Timestamp,
		Type:        kind,
		Fee:         tx.Fee,
		FeeCurrency: tx.FeeCurrency,
		Txid:        tx.Txid,
		URL:         tx.URL,
	}
}

// NewTransferIn builds a deposit row.
func NewTransferIn(tx TxContext, amount decimal.Decimal, currency string) Row {
	row := newRow(tx, TypeTransferIn)
	row.ReceivedAmount = amount
	row.ReceivedCurrency = currency
	return row
}

// NewTransferOut builds a withdrawal row.
func NewTransferOut(tx TxContext, amount decimal.Decimal, currency string) Row {
	row := newRow(tx, TypeTransferOut)
	row.SentAmount = amount
	row.SentCurrency = currency
	return row
}

// NewSwap builds a trade row: sent the input asset, received the output asset.
func NewSwap(tx TxContext, inAmount decimal.Decimal, inCurrency string, outAmount decimal.Decimal, outCurrency string) Row {
	row := newRow(tx, TypeSwap)
	row.SentAmount = inAmount
	row.SentCurrency = inCurrency
	row.ReceivedAmount = outAmount
	row.ReceivedCurrency = outCurrency
	return row
}

// NewSpendFee builds a fee-only row, used for failed transactions where the
// fee was still charged.
func NewSpendFee(tx TxContext, amount decimal.Decimal, currency string) Row {
	row := newRow(tx, TypeSpendFee)
	row.SentAmount = amount
	row.SentCurrency = currency
	return row
}

// NewUnknown builds a pass-through row for transactions no rule recognised.
func NewUnknown(tx TxContext) Row {
	return newRow(tx, TypeUnknown)
}
