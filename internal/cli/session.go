package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/sigtrack/internal/config"
	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/store"
)

// session is an open store and the engine configured for it.
type session struct {
	cfg     *config.Config
	store   *store.Store
	engine  *engine.Engine
	metrics *engine.Metrics
}

// loadConfig resolves the config a command runs with. An explicit --config
// must exist; the default path is optional.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadOrDefault(opts.ConfigPath, true)
	}
	return config.LoadOrDefault(config.DefaultPath, false)
}

// configPath resolves p relative to the config file's directory.
func configPath(cfg *config.Config, p string) string {
	if p == "" || filepath.IsAbs(p) || cfg.Source == "" {
		return p
	}
	return filepath.Join(filepath.Dir(cfg.Source), p)
}

// databasePath returns --db if set, otherwise the configured database.
func databasePath(opts *RootOptions, cfg *config.Config) string {
	if opts.Database != "" {
		return opts.Database
	}
	return configPath(cfg, cfg.Database)
}

// openSession loads config and opens the store. Read-only commands pass
// mustExist so a mistyped path is reported instead of creating a new
// database. Failures are already reported through f.
func openSession(f *OutputFormatter, opts *RootOptions, mustExist bool, extra ...engine.Option) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.FailWith(ErrCodeConfig, ExitCommandError, err.Error())
	}

	dbPath := databasePath(opts, cfg)
	if mustExist {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, f.FailWith(ErrCodeNotFound, ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))
		}
	}

	f.VerboseLog("Opening database %s", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, f.FailWith(ErrCodeGeneric, ExitCommandError, fmt.Sprintf("failed to open database: %v", err))
	}

	metrics := engine.NewMetrics()
	engineOpts := []engine.Option{
		engine.WithBaseline(cfg.Baseline),
		engine.WithDateLayouts(cfg.DateLayouts),
		engine.WithStrictDates(cfg.StrictDates),
		engine.WithMetrics(metrics),
	}
	engineOpts = append(engineOpts, extra...)

	return &session{
		cfg:     cfg,
		store:   st,
		engine:  engine.New(st, engineOpts...),
		metrics: metrics,
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
