package app

import (
	"github.com/rs/zerolog"

	"taxcsv/internal/config"
	"taxcsv/internal/lcd"
	"taxcsv/internal/sol"
	"taxcsv/internal/tokens"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newLCDClient() *lcd.Client {
	return lcd.NewClient(lcd.Options{
		BaseURL:           a.Config.Orai.LCDURL,
		Timeout:           a.Config.Orai.RequestTimeout,
		UserAgent:         a.Config.Orai.UserAgent,
		RequestsPerSecond: a.Config.Orai.RequestsPerSecond,
		PageLimit:         a.Config.Orai.PageLimit,
		MaxTxs:            a.Config.Orai.MaxTxs,
	}, a.Logger)
}

func (a *App) newRPCClient() *sol.RPCClient {
	return sol.NewRPCClient(sol.RPCOptions{
		URL:               a.Config.Sol.RPCURL,
		Timeout:           a.Config.Sol.RequestTimeout,
		RequestsPerSecond: a.Config.Sol.RequestsPerSecond,
		UserAgent:         a.Config.Orai.UserAgent,
	}, a.Logger)
}

// loadRegistry loads the token metadata table. A missing or unreadable file
// degrades to an empty registry: every denom then resolves through the
// six-decimal fallback.
func (a *App) loadRegistry() *tokens.Registry {
	registry, err := tokens.LoadRegistry(a.Config.Tokens.Path)
	if err != nil {
		a.Logger.Warn().Err(err).Str("path", a.Config.Tokens.Path).
			Msg("token registry unavailable; falling back to raw denoms with 6 decimals")
		return tokens.NewRegistry(nil)
	}
	a.Logger.Info().Int("tokens", registry.Len()).Msg("token registry loaded")
	return registry
}

// OraiReportOptions configure an Oraichain report run.
type OraiReportOptions struct {
	Txid    string
	CSVPath string
	PNGPath string
}

// SolReportOptions configure a Solana report run.
type SolReportOptions struct {
	CSVPath string
	PNGPath string
	MaxTxs  int
}
