package orai

import (
	"fmt"

	"taxcsv/internal/lcd"
	"taxcsv/internal/report"
)

const (
	wasmEventType  = "wasm"
	swapOutputAttr = "post_swap_action_amount_out"

	// solanaNativeRemoteDenom is the wrapped-ORAI mint on Solana; deposits of
	// it unwrap into the native denom rather than a factory token.
	solanaNativeRemoteDenom = "oraiyuR7hz6h7ApC56mb52CJjPZBB34USTjzaELoaPk"

	// factoryDenomPrefix is the token factory owned by the bridge contract.
	// Every other remote denom materialises under it.
	factoryDenomPrefix = "factory/orai1wuvhex9xqs3r539mvc6mtm7n20fcj3qr2m0y9khx6n5vtlngfzes3k0rq9/"
)

// handleSwap emits a swap row for a swap_and_action execution. Input comes
// from the attached funds, the output denom from the declared minimum asset,
// and the output amount from the wasm events. Partial data emits nothing;
// only malformed messages return an error.
func (p *Processor) handleSwap(txCtx report.TxContext, msg msgExecuteContract, events []lcd.Event, exporter *report.Exporter) error {
	var instruction executeInstruction
	if err := json.Unmarshal(msg.Msg, &instruction); err != nil {
		return fmt.Errorf("decode swap instruction: %w", err)
	}
	if instruction.SwapAndAction == nil {
		// Other swap variants carry no parseable output amount; nothing to emit.
		return nil
	}
	if len(msg.Funds) == 0 {
		return fmt.Errorf("swap_and_action without attached funds")
	}

	inRaw := msg.Funds[0].Amount
	inDenom := msg.Funds[0].Denom
	outDenom := instruction.SwapAndAction.MinAsset.Native.Denom

	// The output amount lands in a wasm event attribute. When several wasm
	// events carry it, the last one in event order wins.
	outRaw := ""
	for _, event := range events {
		if event.Type != wasmEventType {
			continue
		}
		if value, ok := event.Attr(swapOutputAttr); ok {
			outRaw = value
		}
	}

	if inRaw == "" || outRaw == "" {
		p.logger.Debug().Str("txid", txCtx.Txid).Msg("incomplete swap data; no row emitted")
		return nil
	}

	inAmount, inCurrency := p.registry.Normalize(inRaw, inDenom)
	outAmount, outCurrency := p.registry.Normalize(outRaw, outDenom)
	if !inAmount.IsPositive() || !outAmount.IsPositive() {
		p.logger.Debug().Str("txid", txCtx.Txid).Msg("non-positive swap amounts; no row emitted")
		return nil
	}

	row := report.NewSwap(txCtx, inAmount, inCurrency, outAmount, outCurrency)
	row.Comment = "OraiDEX Swap from " + inCurrency + " to " + outCurrency
	exporter.Ingest(row)
	return nil
}

// handleBridge emits a transfer-in row for a bridge deposit. The credited
// factory denom follows a fixed two-branch rule keyed on the remote denom;
// deriving it from coin_received events is deliberately not done.
func (p *Processor) handleBridge(txCtx report.TxContext, msg msgExecuteContract, exporter *report.Exporter) error {
	var instruction executeInstruction
	if err := json.Unmarshal(msg.Msg, &instruction); err != nil {
		return fmt.Errorf("decode bridge instruction: %w", err)
	}
	if instruction.AddTx == nil {
		return fmt.Errorf("bridge instruction without add_tx")
	}

	value := instruction.AddTx.Value
	factoryDenom := factoryDenomPrefix + value.RemoteDenom
	if value.RemoteDenom == solanaNativeRemoteDenom {
		factoryDenom = NativeDenom
	}

	amount, currency := p.registry.Normalize(value.Amount, factoryDenom)

	row := report.NewTransferIn(txCtx, amount, currency)
	row.Comment = "Bridge deposit from " + value.RemoteDenom
	exporter.Ingest(row)
	return nil
}
