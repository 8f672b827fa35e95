package sol

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RPCOptions parameterise the Solana JSON-RPC client.
type RPCOptions struct {
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
}

// RPCClient talks to a Solana JSON-RPC endpoint.
type RPCClient struct {
	opts   RPCOptions
	logger zerolog.Logger
	client *http.Client

	limiter *rate.Limiter
	nextID  int
}

// NewRPCClient constructs a Solana RPC client.
func NewRPCClient(opts RPCOptions, logger zerolog.Logger) *RPCClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}

	return &RPCClient{
		opts:    opts,
		logger:  logger.With().Str("component", "sol_rpc").Logger(),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		nextID:  1,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcError           `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.nextID++
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded rpcResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("parse rpc response: %w", err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("rpc error (%d): %s", decoded.Error.Code, decoded.Error.Message)
	}

	if result != nil {
		if err := json.Unmarshal(decoded.Result, result); err != nil {
			return fmt.Errorf("parse %s result: %w", method, err)
		}
	}
	return nil
}

// SignatureInfo is one entry of getSignaturesForAddress.
type SignatureInfo struct {
	Signature string              `json:"signature"`
	Slot      uint64              `json:"slot"`
	BlockTime int64               `json:"blockTime"`
	Err       jsoniter.RawMessage `json:"err"`
}

// SignaturesForAddress pages backwards through the wallet's signature list.
func (c *RPCClient) SignaturesForAddress(ctx context.Context, address string, pageLimit, maxTxs int) ([]SignatureInfo, error) {
	if pageLimit <= 0 || pageLimit > 1000 {
		pageLimit = 1000
	}

	var all []SignatureInfo
	before := ""
	for {
		params := map[string]interface{}{"limit": pageLimit}
		if before != "" {
			params["before"] = before
		}

		var page []SignatureInfo
		if err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, params}, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)

		c.logger.Debug().Int("fetched", len(all)).Msg("signature page fetched")

		if maxTxs > 0 && len(all) >= maxTxs {
			c.logger.Warn().Int("max_txs", maxTxs).Msg("transaction limit reached; history truncated")
			return all[:maxTxs], nil
		}
		if len(page) < pageLimit {
			return all, nil
		}
		before = page[len(page)-1].Signature
	}
}

type tokenBalance struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner"`
	UITokenAmount struct {
		Amount   string `json:"amount"`
		Decimals int32  `json:"decimals"`
	} `json:"uiTokenAmount"`
}

type accountKey struct {
	Pubkey string `json:"pubkey"`
	Signer bool   `json:"signer"`
}

type parsedInstruction struct {
	Program string              `json:"program"`
	Parsed  jsoniter.RawMessage `json:"parsed"`
}

type rpcTransaction struct {
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"blockTime"`
	Meta      struct {
		Err               jsoniter.RawMessage `json:"err"`
		Fee               uint64              `json:"fee"`
		PreBalances       []uint64            `json:"preBalances"`
		PostBalances      []uint64            `json:"postBalances"`
		PreTokenBalances  []tokenBalance      `json:"preTokenBalances"`
		PostTokenBalances []tokenBalance      `json:"postTokenBalances"`
		LogMessages       []string            `json:"logMessages"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys  []accountKey        `json:"accountKeys"`
			Instructions []parsedInstruction `json:"instructions"`
		} `json:"message"`
		Signatures []string `json:"signatures"`
	} `json:"transaction"`
}

// Transaction fetches one transaction and reduces it to the detector's
// simplified abstraction for the given wallet.
func (c *RPCClient) Transaction(ctx context.Context, wallet, signature string) (*TxInfo, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var raw rpcTransaction
	if err := c.call(ctx, "getTransaction", params, &raw); err != nil {
		return nil, err
	}
	if len(raw.Transaction.Message.AccountKeys) == 0 {
		return nil, fmt.Errorf("transaction %s not found", signature)
	}

	return buildTxInfo(wallet, signature, raw), nil
}

// buildTxInfo computes net transfers from pre/post balances and decodes the
// instruction surface.
func buildTxInfo(wallet, signature string, raw rpcTransaction) *TxInfo {
	tx := &TxInfo{
		Txid:          signature,
		Wallet:        wallet,
		Timestamp:     time.Unix(raw.BlockTime, 0).UTC(),
		Failed:        len(raw.Meta.Err) > 0 && string(raw.Meta.Err) != "null",
		FeeBlockchain: decimal.NewFromUint64(raw.Meta.Fee).Shift(-lamportDecimals),
	}

	for _, ins := range raw.Transaction.Message.Instructions {
		var parsed struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(ins.Parsed, &parsed); err != nil || parsed.Type == "" {
			continue
		}
		tx.Instructions = append(tx.Instructions, Instruction{Type: parsed.Type, Program: ins.Program})
	}

	tx.LogInstructions = parseLogInstructions(raw.Meta.LogMessages)

	collectNativeTransfer(tx, raw)
	collectTokenTransfers(tx, raw)

	return tx
}

// collectNativeTransfer derives the wallet's lamport delta. The delta is
// gross of the fee when the wallet paid it; the detector folds the fee back
// out for plain SOL sends.
func collectNativeTransfer(tx *TxInfo, raw rpcTransaction) {
	keys := raw.Transaction.Message.AccountKeys
	walletIdx := -1
	for i, key := range keys {
		if key.Pubkey == tx.Wallet {
			walletIdx = i
			break
		}
	}
	if walletIdx < 0 || walletIdx >= len(raw.Meta.PreBalances) || walletIdx >= len(raw.Meta.PostBalances) {
		return
	}

	pre := decimal.NewFromUint64(raw.Meta.PreBalances[walletIdx])
	post := decimal.NewFromUint64(raw.Meta.PostBalances[walletIdx])
	delta := post.Sub(pre).Shift(-lamportDecimals)
	if delta.IsZero() {
		return
	}

	// A token send leaves only the fee on the owner account. A debit that is
	// exactly the fee is not a transfer; the gross delta of a real SOL send
	// stays intact so the detector can fold the fee back out.
	if keys[walletIdx].Signer && delta.Neg().Equal(tx.FeeBlockchain) {
		return
	}

	counterparty := nativeCounterparty(raw, walletIdx, delta.Sign())

	if delta.IsNegative() {
		tx.TransfersOut = append(tx.TransfersOut, Transfer{
			Amount:      delta.Neg(),
			Currency:    CurrencySOL,
			Source:      tx.Wallet,
			Destination: counterparty,
		})
		return
	}
	tx.TransfersIn = append(tx.TransfersIn, Transfer{
		Amount:      delta,
		Currency:    CurrencySOL,
		Source:      counterparty,
		Destination: tx.Wallet,
	})
}

// nativeCounterparty picks the account with the largest balance change in
// the opposite direction.
func nativeCounterparty(raw rpcTransaction, walletIdx, walletSign int) string {
	keys := raw.Transaction.Message.AccountKeys
	best := ""
	bestDelta := decimal.Zero

	for i, key := range keys {
		if i == walletIdx || i >= len(raw.Meta.PreBalances) || i >= len(raw.Meta.PostBalances) {
			continue
		}
		delta := decimal.NewFromUint64(raw.Meta.PostBalances[i]).Sub(decimal.NewFromUint64(raw.Meta.PreBalances[i]))
		if delta.Sign() == walletSign || delta.IsZero() {
			continue
		}
		if delta.Abs().GreaterThan(bestDelta.Abs()) {
			best = key.Pubkey
			bestDelta = delta
		}
	}
	return best
}

// collectTokenTransfers derives per-mint deltas for token accounts owned by
// the wallet. Token amounts use each mint's own decimals; the mint address
// stands in as the currency.
func collectTokenTransfers(tx *TxInfo, raw rpcTransaction) {
	type balances struct {
		pre  decimal.Decimal
		post decimal.Decimal
	}
	byMint := map[string]*balances{}
	var mintOrder []string

	add := func(tb tokenBalance, post bool) {
		if tb.Owner != tx.Wallet {
			return
		}
		amount, err := decimal.NewFromString(tb.UITokenAmount.Amount)
		if err != nil {
			return
		}
		amount = amount.Shift(-tb.UITokenAmount.Decimals)

		b, ok := byMint[tb.Mint]
		if !ok {
			b = &balances{}
			byMint[tb.Mint] = b
			mintOrder = append(mintOrder, tb.Mint)
		}
		if post {
			b.post = b.post.Add(amount)
		} else {
			b.pre = b.pre.Add(amount)
		}
	}

	for _, tb := range raw.Meta.PreTokenBalances {
		add(tb, false)
	}
	for _, tb := range raw.Meta.PostTokenBalances {
		add(tb, true)
	}

	for _, mint := range mintOrder {
		b := byMint[mint]
		delta := b.post.Sub(b.pre)
		if delta.IsZero() {
			continue
		}
		if delta.IsNegative() {
			tx.TransfersOut = append(tx.TransfersOut, Transfer{
				Amount:   delta.Neg(),
				Currency: mint,
				Source:   tx.Wallet,
			})
			continue
		}
		tx.TransfersIn = append(tx.TransfersIn, Transfer{
			Amount:      delta,
			Currency:    mint,
			Destination: tx.Wallet,
		})
	}
}
