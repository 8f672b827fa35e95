package sol

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"taxcsv/internal/report"
)

func testRPCClient(url string) *RPCClient {
	return NewRPCClient(RPCOptions{
		URL:               url,
		Timeout:           time.Second,
		RequestsPerSecond: 1000,
	}, zerolog.Nop())
}

func fixtureTx() rpcTransaction {
	var raw rpcTransaction
	payload := `{
		"slot": 200000000,
		"blockTime": 1714564800,
		"meta": {
			"err": null,
			"fee": 5000,
			"preBalances": [2000005000, 500000000],
			"postBalances": [1000000000, 1500000000],
			"preTokenBalances": [],
			"postTokenBalances": [],
			"logMessages": [
				"Program 11111111111111111111111111111111 invoke [1]",
				"Program log: Instruction: Transfer"
			]
		},
		"transaction": {
			"message": {
				"accountKeys": [
					{"pubkey": "walletpubkey", "signer": true},
					{"pubkey": "destpubkey", "signer": false}
				],
				"instructions": [
					{"program": "system", "parsed": {"type": "transfer", "info": {}}}
				]
			},
			"signatures": ["SIG1"]
		}
	}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		panic(err)
	}
	return raw
}

func TestBuildTxInfoNativeTransferOut(t *testing.T) {
	tx := buildTxInfo("walletpubkey", "SIG1", fixtureTx())

	if tx.Failed {
		t.Fatal("null err should not mark the tx failed")
	}
	if !tx.FeeBlockchain.Equal(decimal.RequireFromString("0.000005")) {
		t.Fatalf("expected fee 0.000005 SOL, got %s", tx.FeeBlockchain)
	}
	if tx.Timestamp != time.Unix(1714564800, 0).UTC() {
		t.Fatalf("unexpected timestamp: %s", tx.Timestamp)
	}

	if len(tx.TransfersOut) != 1 || len(tx.TransfersIn) != 0 {
		t.Fatalf("expected one outbound, got %d out / %d in", len(tx.TransfersOut), len(tx.TransfersIn))
	}
	out := tx.TransfersOut[0]
	// Delta is gross of the fee: 1.000005 SOL left the wallet.
	if !out.Amount.Equal(decimal.RequireFromString("1.000005")) || out.Currency != CurrencySOL {
		t.Fatalf("unexpected outbound: %s %s", out.Amount, out.Currency)
	}
	if out.Destination != "destpubkey" {
		t.Fatalf("counterparty should be the account credited, got %q", out.Destination)
	}

	if len(tx.Instructions) != 1 || tx.Instructions[0].Type != "transfer" || tx.Instructions[0].Program != "system" {
		t.Fatalf("unexpected instructions: %+v", tx.Instructions)
	}
	if len(tx.LogInstructions) != 1 || tx.LogInstructions[0] != "Transfer" {
		t.Fatalf("unexpected log instructions: %v", tx.LogInstructions)
	}
	if !IsTransfer(tx) {
		t.Fatal("fixture should classify as a transfer")
	}
}

func TestBuildTxInfoFailedFlag(t *testing.T) {
	raw := fixtureTx()
	raw.Meta.Err = []byte(`{"InstructionError": [0, "Custom"]}`)

	tx := buildTxInfo("walletpubkey", "SIG1", raw)
	if !tx.Failed {
		t.Fatal("non-null err should mark the tx failed")
	}
}

func TestBuildTxInfoTokenTransferIn(t *testing.T) {
	raw := fixtureTx()
	raw.Meta.PreBalances = []uint64{1000000000, 500000000}
	raw.Meta.PostBalances = []uint64{1000000000, 500000000}

	var pre, post []tokenBalance
	if err := json.Unmarshal([]byte(`[{
		"accountIndex": 2,
		"mint": "USDCmint",
		"owner": "walletpubkey",
		"uiTokenAmount": {"amount": "1000000", "decimals": 6}
	}]`), &pre); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`[{
		"accountIndex": 2,
		"mint": "USDCmint",
		"owner": "walletpubkey",
		"uiTokenAmount": {"amount": "3500000", "decimals": 6}
	}]`), &post); err != nil {
		t.Fatal(err)
	}
	raw.Meta.PreTokenBalances = pre
	raw.Meta.PostTokenBalances = post

	tx := buildTxInfo("walletpubkey", "SIG1", raw)

	if len(tx.TransfersIn) != 1 || len(tx.TransfersOut) != 0 {
		t.Fatalf("expected one inbound, got %d in / %d out", len(tx.TransfersIn), len(tx.TransfersOut))
	}
	in := tx.TransfersIn[0]
	if !in.Amount.Equal(decimal.RequireFromString("2.5")) || in.Currency != "USDCmint" {
		t.Fatalf("unexpected inbound: %s %s", in.Amount, in.Currency)
	}
}

func TestBuildTxInfoTokenSendFeeIsNotATransfer(t *testing.T) {
	raw := fixtureTx()
	// The owner account only pays the fee on a token send.
	raw.Meta.PreBalances = []uint64{1000005000, 500000000}
	raw.Meta.PostBalances = []uint64{1000000000, 500000000}
	raw.Transaction.Message.Instructions = nil
	if err := json.Unmarshal([]byte(`[
		{"program": "spl-token", "parsed": {"type": "transferChecked", "info": {}}}
	]`), &raw.Transaction.Message.Instructions); err != nil {
		t.Fatal(err)
	}

	var pre, post []tokenBalance
	if err := json.Unmarshal([]byte(`[{
		"accountIndex": 2,
		"mint": "USDCmint",
		"owner": "walletpubkey",
		"uiTokenAmount": {"amount": "10000000", "decimals": 6}
	}]`), &pre); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`[{
		"accountIndex": 2,
		"mint": "USDCmint",
		"owner": "walletpubkey",
		"uiTokenAmount": {"amount": "0", "decimals": 6}
	}]`), &post); err != nil {
		t.Fatal(err)
	}
	raw.Meta.PreTokenBalances = pre
	raw.Meta.PostTokenBalances = post

	tx := buildTxInfo("walletpubkey", "SIG1", raw)

	if len(tx.TransfersOut) != 1 || len(tx.TransfersIn) != 0 {
		t.Fatalf("fee debit must not surface as a transfer: %d out / %d in", len(tx.TransfersOut), len(tx.TransfersIn))
	}
	out := tx.TransfersOut[0]
	if out.Currency != "USDCmint" || !out.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected the token leg only, got %s %s", out.Amount, out.Currency)
	}

	exporter := report.NewExporter("walletpubkey", zerolog.Nop())
	if err := HandleTransfer(exporter, tx); err != nil {
		t.Fatalf("token send should classify cleanly: %v", err)
	}
	rows := exporter.Rows()
	if len(rows) != 1 || rows[0].Type != report.TypeTransferOut {
		t.Fatalf("expected one transfer_out row, got %v", rows)
	}
	if !rows[0].SentAmount.Equal(decimal.NewFromInt(10)) || rows[0].SentCurrency != "USDCmint" {
		t.Fatalf("unexpected row: %s %s", rows[0].SentAmount, rows[0].SentCurrency)
	}
}

func TestBuildTxInfoIgnoresForeignTokenAccounts(t *testing.T) {
	raw := fixtureTx()
	raw.Meta.PreBalances = []uint64{1000000000, 500000000}
	raw.Meta.PostBalances = []uint64{1000000000, 500000000}

	var post []tokenBalance
	if err := json.Unmarshal([]byte(`[{
		"accountIndex": 2,
		"mint": "USDCmint",
		"owner": "someoneelse",
		"uiTokenAmount": {"amount": "1000000", "decimals": 6}
	}]`), &post); err != nil {
		t.Fatal(err)
	}
	raw.Meta.PostTokenBalances = post

	tx := buildTxInfo("walletpubkey", "SIG1", raw)
	if len(tx.TransfersIn) != 0 || len(tx.TransfersOut) != 0 {
		t.Fatalf("foreign token accounts should not produce transfers: %+v", tx)
	}
}

func TestSignaturesForAddressPagesBackward(t *testing.T) {
	pages := map[string]string{
		"":     `[{"signature": "S3", "slot": 30}, {"signature": "S2", "slot": 20}]`,
		"S2":   `[{"signature": "S1", "slot": 10}]`,
		"bad!": "",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "getSignaturesForAddress" {
			t.Fatalf("unexpected method: %s", req.Method)
		}

		before := ""
		if opts, ok := req.Params[1].(map[string]interface{}); ok {
			if b, ok := opts["before"].(string); ok {
				before = b
			}
		}
		fmt.Fprintf(w, `{"jsonrpc": "2.0", "id": 1, "result": %s}`, pages[before])
	}))
	defer srv.Close()

	client := testRPCClient(srv.URL)
	sigs, err := client.SignaturesForAddress(context.Background(), "walletpubkey", 2, 0)
	if err != nil {
		t.Fatalf("signatures for address: %v", err)
	}
	if len(sigs) != 3 {
		t.Fatalf("expected 3 signatures across pages, got %d", len(sigs))
	}
	if sigs[0].Signature != "S3" || sigs[2].Signature != "S1" {
		t.Fatalf("expected newest-first order, got %v", sigs)
	}
}

func TestSignaturesForAddressHonorsMaxTxs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": [
			{"signature": "S3", "slot": 30},
			{"signature": "S2", "slot": 20}
		]}`))
	}))
	defer srv.Close()

	client := testRPCClient(srv.URL)
	sigs, err := client.SignaturesForAddress(context.Background(), "walletpubkey", 2, 1)
	if err != nil {
		t.Fatalf("signatures for address: %v", err)
	}
	if len(sigs) != 1 || sigs[0].Signature != "S3" {
		t.Fatalf("expected truncation at 1 signature, got %v", sigs)
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "error": {"code": -32005, "message": "node is behind"}}`))
	}))
	defer srv.Close()

	client := testRPCClient(srv.URL)
	if _, err := client.SignaturesForAddress(context.Background(), "walletpubkey", 10, 0); err == nil {
		t.Fatal("rpc error payload should propagate")
	}
}

func TestTransactionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": null}`))
	}))
	defer srv.Close()

	client := testRPCClient(srv.URL)
	if _, err := client.Transaction(context.Background(), "walletpubkey", "MISSING"); err == nil {
		t.Fatal("empty result should error")
	}
}
