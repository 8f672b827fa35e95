package lcd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(baseURL string, pageLimit, maxTxs int) *Client {
	return NewClient(Options{
		BaseURL:           baseURL,
		Timeout:           time.Second,
		RequestsPerSecond: 1000,
		PageLimit:         pageLimit,
		MaxTxs:            maxTxs,
	}, zerolog.Nop())
}

func TestTxByHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cosmos/tx/v1beta1/txs/ABC123" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tx_response": {
			"height": "100",
			"txhash": "ABC123",
			"code": 0,
			"timestamp": "2024-05-01T12:00:00Z"
		}}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 100, 0)
	tx, err := client.TxByHash(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("tx by hash: %v", err)
	}
	if tx.Txhash != "ABC123" || tx.Height != "100" {
		t.Fatalf("unexpected tx: %+v", tx)
	}
	if tx.Failed() {
		t.Fatal("code 0 should not be failed")
	}
}

func TestTxByHashAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": 3, "message": "tx not found"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 100, 0)
	if _, err := client.TxByHash(context.Background(), "MISSING"); err == nil {
		t.Fatal("API error should propagate")
	}
}

func TestAccountExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cosmos/auth/v1beta1/accounts/orai1known" {
			_, _ = w.Write([]byte(`{"account": {}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": 5, "message": "not found"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 100, 0)

	exists, err := client.AccountExists(context.Background(), "orai1known")
	if err != nil || !exists {
		t.Fatalf("known account: exists=%v err=%v", exists, err)
	}

	exists, err = client.AccountExists(context.Background(), "orai1unknown")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if exists {
		t.Fatal("404 should report the account as missing")
	}
}

// txsHandler serves paginated /txs responses for two event filters. The sender
// filter returns hashes A,B; the recipient filter returns B,C so dedup and
// ordering are both exercised.
func txsHandler(t *testing.T, pageLimit int) http.HandlerFunc {
	pages := map[string][]string{
		"message.sender='orai1w'":     {"A", "B"},
		"transfer.recipient='orai1w'": {"B", "C"},
	}
	heights := map[string]int{"A": 300, "B": 100, "C": 200}

	return func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("events")
		hashes, ok := pages[filter]
		if !ok {
			t.Fatalf("unexpected filter: %q", filter)
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("pagination.offset"))
		end := offset + pageLimit
		if end > len(hashes) {
			end = len(hashes)
		}
		var slice []string
		if offset < len(hashes) {
			slice = hashes[offset:end]
		}

		body := `{"tx_responses": [`
		for i, hash := range slice {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"height": "%d", "txhash": "%s", "timestamp": "2024-05-01T12:00:00Z"}`, heights[hash], hash)
		}
		body += fmt.Sprintf(`], "pagination": {"total": "%d"}}`, len(hashes))
		_, _ = w.Write([]byte(body))
	}
}

func TestTxsByAddressDedupesAndSorts(t *testing.T) {
	srv := httptest.NewServer(txsHandler(t, 100))
	defer srv.Close()

	client := testClient(srv.URL, 100, 0)
	txs, err := client.TxsByAddress(context.Background(), "orai1w")
	if err != nil {
		t.Fatalf("txs by address: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 deduplicated txs, got %d", len(txs))
	}
	if txs[0].Txhash != "B" || txs[1].Txhash != "C" || txs[2].Txhash != "A" {
		t.Fatalf("expected height order B,C,A, got %s,%s,%s", txs[0].Txhash, txs[1].Txhash, txs[2].Txhash)
	}
}

func TestTxsByAddressPaginates(t *testing.T) {
	srv := httptest.NewServer(txsHandler(t, 1))
	defer srv.Close()

	client := testClient(srv.URL, 1, 0)
	txs, err := client.TxsByAddress(context.Background(), "orai1w")
	if err != nil {
		t.Fatalf("txs by address: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 txs across pages, got %d", len(txs))
	}
}

func TestTxsByAddressHonorsMaxTxs(t *testing.T) {
	srv := httptest.NewServer(txsHandler(t, 100))
	defer srv.Close()

	client := testClient(srv.URL, 100, 2)
	txs, err := client.TxsByAddress(context.Background(), "orai1w")
	if err != nil {
		t.Fatalf("txs by address: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected truncation at 2 txs, got %d", len(txs))
	}
}

func TestPagesCount(t *testing.T) {
	srv := httptest.NewServer(txsHandler(t, 1))
	defer srv.Close()

	client := testClient(srv.URL, 1, 0)
	pages, err := client.PagesCount(context.Background(), "orai1w")
	if err != nil {
		t.Fatalf("pages count: %v", err)
	}
	// Two filters with two entries each at page limit 1.
	if pages != 4 {
		t.Fatalf("expected 4 pages, got %d", pages)
	}
}

func TestEstimateDuration(t *testing.T) {
	if got := EstimateDuration(5); got != 20*time.Second {
		t.Fatalf("expected 20s for 5 pages, got %s", got)
	}
}

func TestContractInfoMemoised(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"address": "orai1c", "contract_info": {"label": "oraidex-router"}}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 100, 0)

	for i := 0; i < 3; i++ {
		label, err := client.ContractInfo(context.Background(), "orai1c")
		if err != nil {
			t.Fatalf("contract info: %v", err)
		}
		if label != "oraidex-router" {
			t.Fatalf("unexpected label: %s", label)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", calls)
	}
}

func TestEventAttrLastOccurrenceWins(t *testing.T) {
	event := Event{Type: "wasm", Attributes: []Attribute{
		{Key: "amount_out", Value: "1"},
		{Key: "amount_out", Value: "2"},
	}}
	value, ok := event.Attr("amount_out")
	if !ok || value != "2" {
		t.Fatalf("expected last value 2, got %q (ok=%v)", value, ok)
	}
	if _, ok := event.Attr("missing"); ok {
		t.Fatal("missing attribute should report not found")
	}
}
