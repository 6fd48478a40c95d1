package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/config"
	"github.com/ytget/ytd/internal/history"
	"github.com/ytget/ytd/internal/logging"
	"github.com/ytget/ytd/internal/wizard"
)

// app bundles the shared dependencies of every command: configuration,
// logger, the optional history store, and the terminal prompter.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *history.Store
	prompter *wizard.TerminalPrompter
}

// newApp loads configuration, builds the logger, and brings up the history
// store. History problems never fail startup: the store just stays nil and
// downloads run without it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		prompter: wizard.NewTerminalPrompter(),
	}
	a.store = initHistory(ctx, cfg, logger)
	return a, nil
}

// initHistory opens the store, ensures the schema, and on a freshly created
// database seeds it from the metadata log. Every failure downgrades to "no
// history" with a debug log entry.
func initHistory(ctx context.Context, cfg *config.Config, logger *zap.Logger) *history.Store {
	if !cfg.HistoryEnabled || cfg.HistoryDB == "" {
		return nil
	}

	store, err := history.Open(cfg.HistoryDB, logger)
	if err != nil {
		logger.Debug("history disabled: open failed", zap.Error(err))
		return nil
	}

	created, err := store.EnsureSchema(ctx)
	if err != nil {
		logger.Debug("history disabled: schema init failed", zap.Error(err))
		return nil
	}

	if created && cfg.SaveMetadata != "" {
		added, err := store.ImportFromLog(ctx, cfg.SaveMetadata)
		if err != nil {
			logger.Debug("history import failed", zap.Error(err))
		} else if added > 0 {
			logger.Info("history seeded from metadata log", zap.Int("records", added))
		}
	}
	return store
}

func (a *app) close() {
	_ = a.logger.Sync()
}
