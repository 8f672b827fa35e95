package lcd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// secondsPerPage is the empirical LCD page fetch cost used for duration
// estimates reported to the user.
const secondsPerPage = 4

// Options parameterise the LCD client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	PageLimit         int
	MaxTxs            int
}

// Client talks to a Cosmos-SDK LCD endpoint.
type Client struct {
	opts      Options
	logger    zerolog.Logger
	client    *http.Client
	baseURL   string
	limiter   *rate.Limiter
	contracts *gocache.Cache
}

// NewClient constructs an LCD client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 100
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}

	return &Client{
		opts:      opts,
		logger:    logger.With().Str("component", "lcd_client").Logger(),
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		contracts: gocache.New(gocache.NoExpiration, 0),
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return payload, resp.StatusCode, nil
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("lcd api error (%d): %s", status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("lcd api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("lcd api error (%d)", status)
}

// TxByHash fetches a single transaction.
func (c *Client) TxByHash(ctx context.Context, hash string) (TxResponse, error) {
	payload, status, err := c.get(ctx, "/cosmos/tx/v1beta1/txs/"+url.PathEscape(hash), nil)
	if err != nil {
		return TxResponse{}, err
	}
	if status != http.StatusOK {
		return TxResponse{}, parseHTTPError(status, payload)
	}

	var decoded txByHashResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return TxResponse{}, fmt.Errorf("parse tx response: %w", err)
	}
	return decoded.TxResponse, nil
}

// AccountExists reports whether the address is known to the chain.
func (c *Client) AccountExists(ctx context.Context, address string) (bool, error) {
	payload, status, err := c.get(ctx, "/cosmos/auth/v1beta1/accounts/"+url.PathEscape(address), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, parseHTTPError(status, payload)
	}
}

// eventFilters are the two query passes that together cover all transactions
// touching a wallet: ones it signed and ones that credited it.
func eventFilters(address string) []string {
	return []string{
		fmt.Sprintf("message.sender='%s'", address),
		fmt.Sprintf("transfer.recipient='%s'", address),
	}
}

func (c *Client) fetchPage(ctx context.Context, filter string, offset int) (txsPage, error) {
	query := url.Values{}
	query.Set("events", filter)
	query.Set("pagination.limit", strconv.Itoa(c.opts.PageLimit))
	query.Set("pagination.offset", strconv.Itoa(offset))
	query.Set("order_by", "ORDER_BY_ASC")

	payload, status, err := c.get(ctx, "/cosmos/tx/v1beta1/txs", query)
	if err != nil {
		return txsPage{}, err
	}
	if status != http.StatusOK {
		return txsPage{}, parseHTTPError(status, payload)
	}

	var page txsPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return txsPage{}, fmt.Errorf("parse txs page: %w", err)
	}
	return page, nil
}

func (p txsPage) total() int {
	raw := p.Pagination.Total
	if raw == "" {
		raw = p.Total
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return total
}

// PagesCount estimates how many LCD pages cover the wallet history. Used for
// progress estimation before the full fetch.
func (c *Client) PagesCount(ctx context.Context, address string) (int, error) {
	pages := 0
	for _, filter := range eventFilters(address) {
		page, err := c.fetchPage(ctx, filter, 0)
		if err != nil {
			return 0, err
		}
		total := page.total()
		pages += (total + c.opts.PageLimit - 1) / c.opts.PageLimit
	}
	return pages, nil
}

// EstimateDuration converts a page count into a rough wall-clock estimate.
func EstimateDuration(pages int) time.Duration {
	return time.Duration(pages) * secondsPerPage * time.Second
}

// TxsByAddress fetches the wallet's transaction history, deduplicated by hash
// and ordered by block height.
func (c *Client) TxsByAddress(ctx context.Context, address string) ([]TxResponse, error) {
	seen := map[string]bool{}
	var txs []TxResponse

	for _, filter := range eventFilters(address) {
		offset := 0
		for {
			page, err := c.fetchPage(ctx, filter, offset)
			if err != nil {
				return nil, err
			}

			for _, tx := range page.TxResponses {
				if seen[tx.Txhash] {
					continue
				}
				seen[tx.Txhash] = true
				txs = append(txs, tx)
			}

			c.logger.Debug().
				Str("filter", filter).
				Int("offset", offset).
				Int("fetched", len(txs)).
				Msg("lcd page fetched")

			if c.opts.MaxTxs > 0 && len(txs) >= c.opts.MaxTxs {
				c.logger.Warn().Int("max_txs", c.opts.MaxTxs).Msg("transaction limit reached; history truncated")
				return sortByHeight(txs[:c.opts.MaxTxs]), nil
			}

			offset += len(page.TxResponses)
			if len(page.TxResponses) < c.opts.PageLimit {
				break
			}
			if total := page.total(); total > 0 && offset >= total {
				break
			}
		}
	}

	return sortByHeight(txs), nil
}

// ContractInfo resolves a CosmWasm contract label, memoised per process.
func (c *Client) ContractInfo(ctx context.Context, address string) (string, error) {
	if cached, ok := c.contracts.Get(address); ok {
		return cached.(string), nil
	}

	payload, status, err := c.get(ctx, "/cosmwasm/wasm/v1/contract/"+url.PathEscape(address), nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", parseHTTPError(status, payload)
	}

	var decoded contractInfoResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("parse contract info: %w", err)
	}

	c.contracts.Set(address, decoded.ContractInfo.Label, gocache.NoExpiration)
	return decoded.ContractInfo.Label, nil
}

func sortByHeight(txs []TxResponse) []TxResponse {
	heightOf := func(tx TxResponse) int64 {
		h, err := strconv.ParseInt(tx.Height, 10, 64)
		if err != nil {
			return 0
		}
		return h
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return heightOf(txs[i]) < heightOf(txs[j])
	})
	return txs
}
