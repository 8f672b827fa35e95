package sol

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CurrencySOL is the native currency symbol.
	CurrencySOL = "SOL"

	// lamportDecimals scales raw lamport amounts into SOL.
	lamportDecimals = 9

	explorerURLPrefix = "https://solscan.io/tx/"

	systemProgram = "system"

	instructTransferCheck   = "transferCheck"
	instructTransferChecked = "transferChecked"
)

// Instruction is one (type, program) pair decoded from the transaction.
type Instruction struct {
	Type    string
	Program string
}

// Transfer is one net balance movement of the wallet in a single currency.
type Transfer struct {
	Amount      decimal.Decimal
	Currency    string
	Source      string
	Destination string
}

// TxInfo is the simplified transaction abstraction the transfer detector
// operates on: instruction pairs, human-readable log instruction names, and
// the wallet's pre-computed net transfers.
type TxInfo struct {
	Txid      string
	Wallet    string
	Timestamp time.Time
	Failed    bool

	// Fee is the explicitly recorded fee; zero until known. FeeBlockchain is
	// the fee the chain reports having charged.
	Fee           decimal.Decimal
	FeeBlockchain decimal.Decimal

	Instructions    []Instruction
	LogInstructions []string

	TransfersIn  []Transfer
	TransfersOut []Transfer
}

// URL returns the explorer link for the transaction.
func (t *TxInfo) URL() string {
	return explorerURLPrefix + t.Txid
}

// logInstructionPrefix introduces instruction names inside program log lines.
const logInstructionPrefix = "Instruction: "

// parseLogInstructions extracts instruction names from raw program logs.
func parseLogInstructions(logMessages []string) []string {
	var names []string
	for _, line := range logMessages {
		idx := strings.Index(line, logInstructionPrefix)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[idx+len(logInstructionPrefix):])
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
