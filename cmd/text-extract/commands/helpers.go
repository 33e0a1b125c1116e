package commands

import (
	"context"
	"fmt"

	"github.com/ahmadbhutta823/text-extract-from-images/cmd/text-extract/ui"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/config"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/llm"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/storage"
)

// setup loads configuration and builds the logger shared by all commands.
func setup() (*config.Config, *observability.Logger, error) {
	ui.InitUI(noColor, verbose)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "text-extract",
	})

	return cfg, logger, nil
}

// newClient builds the vision model client from configuration.
func newClient(cfg *config.Config, logger *observability.Logger) *llm.Client {
	return llm.NewClient(llm.ClientConfig{
		APIKey:    cfg.API.APIKey,
		BaseURL:   cfg.API.BaseURL,
		Model:     cfg.API.Model,
		MaxTokens: cfg.API.MaxTokens,
		Timeout:   cfg.API.Timeout,
		Retry: llm.RetryPolicy{
			MaxRetries:     cfg.Retry.MaxRetries,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		},
	}, logger)
}

// openRunLedger opens the run ledger for an extraction run. Returns nil when
// the ledger is disabled or unreachable; history is never worth failing a
// run for.
func openRunLedger(ctx context.Context, cfg *config.Config, logger *observability.Logger) *storage.Ledger {
	if !cfg.Ledger.Enabled {
		return nil
	}

	ledger, err := storage.Open(ctx, cfg.Ledger.Driver, cfg.LedgerDSN(), logger)
	if err != nil {
		ui.Warning("Run history disabled: %v", err)
		logger.Warn().Err(err).Msg("Ledger unavailable")
		return nil
	}
	return ledger
}
