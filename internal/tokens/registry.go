package tokens

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultDecimals is assumed for denominations missing from the registry.
const DefaultDecimals = 6

// Meta describes one registered denomination.
type Meta struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// Registry maps denomination strings to display metadata. Loaded once at
// startup and read-only afterwards.
type Registry struct {
	entries map[string]Meta
}

// NewRegistry wraps an in-memory metadata table.
func NewRegistry(entries map[string]Meta) *Registry {
	if entries == nil {
		entries = map[string]Meta{}
	}
	return &Registry{entries: entries}
}

// LoadRegistry reads the denom metadata table from a JSON file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token registry: %w", err)
	}

	entries := map[string]Meta{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse token registry %s: %w", path, err)
	}
	return NewRegistry(entries), nil
}

// Len reports the number of registered denominations.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Resolve returns the display symbol and decimal places for a denomination.
// Unknown denominations fall back to the raw denom string and six decimals;
// lookup never fails.
func (r *Registry) Resolve(denom string) (string, int32) {
	meta, ok := r.entries[denom]
	if !ok {
		return denom, DefaultDecimals
	}
	symbol := meta.Symbol
	if symbol == "" {
		symbol = denom
	}
	decimals := meta.Decimals
	if decimals == 0 {
		decimals = DefaultDecimals
	}
	return symbol, decimals
}

// Normalize converts a raw integer-string amount plus a denomination into a
// human-scaled amount and its display symbol. Missing inputs yield a zero
// amount with the denom echoed back; a non-numeric raw amount yields zero.
// Failures are absorbed, never surfaced.
func (r *Registry) Normalize(rawAmount, denom string) (decimal.Decimal, string) {
	if rawAmount == "" || denom == "" {
		return decimal.Zero, denom
	}

	symbol, decimals := r.Resolve(denom)
	raw, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return decimal.Zero, symbol
	}
	return raw.Shift(-decimals), symbol
}
