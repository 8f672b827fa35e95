package orai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"taxcsv/internal/lcd"
	"taxcsv/internal/report"
	"taxcsv/internal/tokens"
)

const (
	// NativeDenom is the chain's base denomination.
	NativeDenom = "orai"

	explorerURLFormat = "https://scanium.io/Oraichain/tx/%s"
)

// ContractResolver looks up a human-readable contract label. Optional; a nil
// resolver disables contract annotations.
type ContractResolver interface {
	ContractInfo(ctx context.Context, address string) (string, error)
}

// Processor classifies Oraichain transactions into normalized rows for one
// wallet. Single-pass and sequential: a transaction is classified once and
// terminally.
type Processor struct {
	wallet    string
	registry  *tokens.Registry
	contracts ContractResolver
	logger    zerolog.Logger
}

// NewProcessor constructs a classifier for the wallet under report.
func NewProcessor(wallet string, registry *tokens.Registry, contracts ContractResolver, logger zerolog.Logger) *Processor {
	return &Processor{
		wallet:    wallet,
		registry:  registry,
		contracts: contracts,
		logger:    logger.With().Str("component", "orai_processor").Logger(),
	}
}

// ProcessTxs classifies each transaction in order.
func (p *Processor) ProcessTxs(ctx context.Context, txs []lcd.TxResponse, exporter *report.Exporter) {
	for _, tx := range txs {
		p.ProcessTx(ctx, tx, exporter)
	}
}

// ProcessTx classifies a single transaction, message by message.
func (p *Processor) ProcessTx(ctx context.Context, tx lcd.TxResponse, exporter *report.Exporter) {
	txCtx := p.txContext(tx)
	p.logger.Debug().Str("txid", tx.Txhash).Int("messages", len(tx.Tx.Body.Messages)).Msg("processing transaction")

	if tx.Failed() {
		p.handleFailed(txCtx, exporter)
		return
	}

	msgCount := len(tx.Tx.Body.Messages)
	for i, raw := range tx.Tx.Body.Messages {
		msgEvents := eventsForMessage(tx.Events, i, msgCount)

		var header msgHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			p.logger.Warn().Str("txid", tx.Txhash).Int("msg_index", i).Err(err).Msg("undecodable message; treating as unknown")
			p.detectTransfers(txCtx, p.wallet, msgEvents, "", exporter)
			continue
		}

		switch kindOf(header.Type) {
		case MsgKindSend:
			var msg msgSend
			if err := json.Unmarshal(raw, &msg); err != nil {
				p.logger.Warn().Str("txid", tx.Txhash).Err(err).Msg("malformed MsgSend")
				continue
			}
			p.handleSend(txCtx, msg, exporter)

		case MsgKindExecuteContract:
			var msg msgExecuteContract
			if err := json.Unmarshal(raw, &msg); err != nil {
				p.logger.Warn().Str("txid", tx.Txhash).Err(err).Msg("malformed MsgExecuteContract")
				continue
			}
			p.handleExecuteContract(ctx, txCtx, msg, msgEvents, exporter)

		default:
			p.detectTransfers(txCtx, p.wallet, msgEvents, "", exporter)
		}
	}
}

// txContext extracts the per-transaction row fields.
func (p *Processor) txContext(tx lcd.TxResponse) report.TxContext {
	txCtx := report.TxContext{
		Txid:      tx.Txhash,
		Timestamp: tx.Timestamp,
		URL:       fmt.Sprintf(explorerURLFormat, tx.Txhash),
	}

	if coins := tx.Tx.AuthInfo.Fee.Amount; len(coins) > 0 {
		amount, currency := p.registry.Normalize(coins[0].Amount, coins[0].Denom)
		if amount.IsPositive() {
			txCtx.Fee = amount
			txCtx.FeeCurrency = currency
		}
	}

	return txCtx
}

// handleFailed tags an on-chain failure: the fee was still spent, nothing else
// happened.
func (p *Processor) handleFailed(txCtx report.TxContext, exporter *report.Exporter) {
	p.logger.Debug().Str("txid", txCtx.Txid).Msg("transaction failed on-chain")

	if txCtx.Fee.IsPositive() {
		row := report.NewSpendFee(txCtx, txCtx.Fee, txCtx.FeeCurrency)
		row.Comment = "failed transaction"
		exporter.Ingest(row)
		return
	}

	row := report.NewUnknown(txCtx)
	row.Comment = "failed transaction"
	exporter.Ingest(row)
}

// handleSend emits one row per coin of a bank send touching the wallet.
func (p *Processor) handleSend(txCtx report.TxContext, msg msgSend, exporter *report.Exporter) {
	for _, coin := range msg.Amount {
		amount, currency := p.registry.Normalize(coin.Amount, coin.Denom)

		switch {
		case msg.FromAddress == p.wallet:
			row := report.NewTransferOut(txCtx, amount, currency)
			row.Comment = "Transfer to " + msg.ToAddress
			exporter.Ingest(row)
		case msg.ToAddress == p.wallet:
			row := report.NewTransferIn(txCtx, amount, currency)
			row.Comment = "Transfer from " + msg.FromAddress
			exporter.Ingest(row)
		}
	}
}

// handleExecuteContract dispatches a contract execution to the swap or bridge
// rule, falling back to generic transfer detection. Errors inside the
// specialised handlers are downgraded to the fallback pass, never propagated.
func (p *Processor) handleExecuteContract(ctx context.Context, txCtx report.TxContext, msg msgExecuteContract, events []lcd.Event, exporter *report.Exporter) {
	switch {
	case isSwapInstruction(msg.Msg):
		if err := p.handleSwap(txCtx, msg, events, exporter); err != nil {
			p.logger.Error().Str("txid", txCtx.Txid).Err(err).Msg("swap handling failed; falling back to transfer detection")
			p.detectTransfers(txCtx, msg.Sender, events, p.contractLabel(ctx, msg.Contract), exporter)
		}
	case isBridgeDeposit(msg.Msg):
		if err := p.handleBridge(txCtx, msg, exporter); err != nil {
			p.logger.Error().Str("txid", txCtx.Txid).Err(err).Msg("bridge handling failed; falling back to transfer detection")
			p.detectTransfers(txCtx, msg.Sender, events, p.contractLabel(ctx, msg.Contract), exporter)
		}
	default:
		p.detectTransfers(txCtx, msg.Sender, events, p.contractLabel(ctx, msg.Contract), exporter)
	}
}

func (p *Processor) contractLabel(ctx context.Context, address string) string {
	if p.contracts == nil || address == "" {
		return ""
	}
	label, err := p.contracts.ContractInfo(ctx, address)
	if err != nil {
		p.logger.Debug().Str("contract", address).Err(err).Msg("contract label lookup failed")
		return ""
	}
	return label
}
