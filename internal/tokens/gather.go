package tokens

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GatherOptions parameterise the OraiDEX token list fetcher.
type GatherOptions struct {
	ListURL   string
	Timeout   time.Duration
	UserAgent string
}

// Gatherer refreshes the token metadata registry from the OraiDEX chain
// registry API.
type Gatherer struct {
	opts   GatherOptions
	logger zerolog.Logger
	client *http.Client
}

// NewGatherer constructs a token list gatherer.
func NewGatherer(opts GatherOptions, logger zerolog.Logger) *Gatherer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if opts.ListURL == "" {
		opts.ListURL = "https://oraicommon.oraidex.io/api/v1/chains?dex=oraidex"
	}

	return &Gatherer{
		opts:   opts,
		logger: logger.With().Str("component", "token_gatherer").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

type chainEntry struct {
	Currencies []currencyEntry `json:"currencies"`
}

type currencyEntry struct {
	CoinDenom        string `json:"coinDenom"`
	CoinMinimalDenom string `json:"coinMinimalDenom"`
	CoinDecimals     int32  `json:"coinDecimals"`
}

// Fetch retrieves the token list and converts it into registry entries keyed
// by minimal denom.
func (g *Gatherer) Fetch(ctx context.Context) (map[string]Meta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.ListURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(g.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	g.logger.Info().Str("url", g.opts.ListURL).Msg("fetching token list")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var chains []chainEntry
	if err := json.Unmarshal(payload, &chains); err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("token list api returned no chains")
	}

	entries := map[string]Meta{}
	for _, currency := range chains[0].Currencies {
		if currency.CoinMinimalDenom == "" {
			continue
		}
		entries[currency.CoinMinimalDenom] = Meta{
			Symbol:   currency.CoinDenom,
			Decimals: currency.CoinDecimals,
		}
	}

	g.logger.Info().Int("tokens", len(entries)).Msg("token list fetched")
	return entries, nil
}

// WriteRegistry persists registry entries as the JSON file LoadRegistry reads.
func WriteRegistry(path string, entries map[string]Meta) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal token registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write token registry: %w", err)
	}
	return nil
}
