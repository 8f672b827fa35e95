package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func testRegistry() *Registry {
	return NewRegistry(map[string]Meta{
		"orai": {Symbol: "ORAI", Decimals: 6},
		"factory/orai1wuv/So11111111111111111111111111111111111111112": {Symbol: "SOL", Decimals: 9},
	})
}

func TestResolveKnownDenom(t *testing.T) {
	symbol, decimals := testRegistry().Resolve("orai")
	if symbol != "ORAI" || decimals != 6 {
		t.Fatalf("unexpected resolution: %s/%d", symbol, decimals)
	}
}

func TestResolveUnknownDenomFallsBack(t *testing.T) {
	symbol, decimals := testRegistry().Resolve("ibc/ABCDEF")
	if symbol != "ibc/ABCDEF" {
		t.Fatalf("unknown denom should resolve to itself, got %s", symbol)
	}
	if decimals != DefaultDecimals {
		t.Fatalf("unknown denom should default to %d decimals, got %d", DefaultDecimals, decimals)
	}
}

func TestNormalizeScalesByDenomDecimals(t *testing.T) {
	registry := testRegistry()

	amount, currency := registry.Normalize("1000000", "orai")
	if !amount.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1, got %s", amount)
	}
	if currency != "ORAI" {
		t.Fatalf("expected ORAI, got %s", currency)
	}

	amount, currency = registry.Normalize("1500000000", "factory/orai1wuv/So11111111111111111111111111111111111111112")
	if !amount.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("9-decimal denom should scale to 1.5, got %s", amount)
	}
	if currency != "SOL" {
		t.Fatalf("expected SOL, got %s", currency)
	}
}

func TestNormalizeUnknownDenomUsesSixDecimals(t *testing.T) {
	amount, currency := testRegistry().Normalize("2500000", "unknown-denom")
	if !amount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 2.5, got %s", amount)
	}
	if currency != "unknown-denom" {
		t.Fatalf("expected raw denom as currency, got %s", currency)
	}
}

func TestNormalizeEmptyInputs(t *testing.T) {
	registry := testRegistry()

	amount, currency := registry.Normalize("", "orai")
	if !amount.IsZero() || currency != "orai" {
		t.Fatalf("empty amount should yield (0, denom), got (%s, %s)", amount, currency)
	}

	amount, currency = registry.Normalize("1000000", "")
	if !amount.IsZero() || currency != "" {
		t.Fatalf("empty denom should yield (0, \"\"), got (%s, %s)", amount, currency)
	}
}

func TestNormalizeNonNumericAbsorbed(t *testing.T) {
	amount, currency := testRegistry().Normalize("not-a-number", "orai")
	if !amount.IsZero() {
		t.Fatalf("non-numeric amount should yield zero, got %s", amount)
	}
	if currency != "ORAI" {
		t.Fatalf("currency should still resolve, got %s", currency)
	}
}

func TestLoadRegistryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "oraidex.json")

	entries := map[string]Meta{
		"orai":  {Symbol: "ORAI", Decimals: 6},
		"usdt9": {Symbol: "USDT", Decimals: 9},
	}
	if err := WriteRegistry(path, entries); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if registry.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", registry.Len())
	}

	symbol, decimals := registry.Resolve("usdt9")
	if symbol != "USDT" || decimals != 9 {
		t.Fatalf("unexpected resolution: %s/%d", symbol, decimals)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should error")
	}
}

func TestLoadRegistryMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("malformed file should error")
	}
}
