package app

import (
	"context"
	"fmt"

	"taxcsv/internal/tokens"
)

// UpdateTokens refreshes the token metadata registry from the OraiDEX chain
// registry API.
func (a *App) UpdateTokens(ctx context.Context) error {
	gatherer := tokens.NewGatherer(tokens.GatherOptions{
		ListURL:   a.Config.Tokens.ListURL,
		Timeout:   a.Config.Tokens.RequestTimeout,
		UserAgent: a.Config.Orai.UserAgent,
	}, a.Logger)

	entries, err := gatherer.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch token list: %w", err)
	}

	if err := tokens.WriteRegistry(a.Config.Tokens.Path, entries); err != nil {
		return err
	}

	a.Logger.Info().Str("path", a.Config.Tokens.Path).Int("tokens", len(entries)).Msg("token registry updated")
	return nil
}
