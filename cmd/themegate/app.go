package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"themegate/internal/config"
	"themegate/internal/engine"
	"themegate/internal/logging"
	"themegate/internal/rollout"
	"themegate/internal/store"
	"themegate/internal/usage"
	"themegate/internal/ux"
)

// resolvePath anchors relative paths at --workspace.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || workspace == "" {
		return p
	}
	return filepath.Join(workspace, p)
}

// flagBackend is the configured flag source. store is set only for the
// sqlite backend.
type flagBackend struct {
	source rollout.FlagSource
	store  *store.FlagStore
	path   string
}

func (b *flagBackend) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

func openFlags() (*flagBackend, error) {
	switch cfg.Rollout.Source {
	case config.SourceFile:
		path := resolvePath(cfg.Rollout.FlagsFile)
		return &flagBackend{source: rollout.NewFileSource(path), path: path}, nil
	default:
		path := resolvePath(cfg.Store.DatabasePath)
		fs, err := store.NewFlagStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open flag store: %w", err)
		}
		return &flagBackend{source: fs, store: fs, path: path}, nil
	}
}

// newEngine loads the rollout flags from b and builds an engine using the
// configured budget.
func newEngine(ctx context.Context, b *flagBackend) (*engine.Engine, error) {
	ctrl := rollout.NewController(b.source, logging.Get(logging.CategoryRollout))
	if err := ctrl.Reload(ctx); err != nil {
		return nil, err
	}
	return engine.New(ctrl,
		engine.WithBudget(cfg.Budget()),
		engine.WithAutoBaseline(cfg.Rollout.AutoBaselineOnRisk),
		engine.WithLogger(logging.Get(logging.CategoryMonitoring)),
	), nil
}

// loadPreferences migrates and loads the preferences file.
func loadPreferences() (*ux.PreferencesManager, error) {
	path := resolvePath(cfg.Preferences.Path)
	log := logging.Get(logging.CategoryPrefs)

	result, err := ux.MigratePreferences(path)
	if err != nil {
		return nil, err
	}
	if result.WasMigrated {
		log.Info("preferences migrated",
			zap.String("from", result.FromVersion),
			zap.String("to", result.ToVersion),
			zap.Strings("preserved", result.PreservedData),
			zap.Strings("defaults", result.DefaultsApplied),
			zap.String("backup", result.BackupPath))
	}

	pm := ux.NewPreferencesManager(path)
	if err := pm.Load(); err != nil {
		return nil, err
	}
	return pm, nil
}

// openUsage returns the usage tracker, or nil when tracking is disabled. A
// corrupt usage file is logged and counting restarts from zero.
func openUsage() *usage.Tracker {
	if !cfg.Usage.Enabled {
		return nil
	}
	log := logging.Get(logging.CategoryUsage)
	t, err := usage.NewTracker(resolvePath(cfg.Usage.Path))
	if err != nil {
		log.Warn("usage data unavailable", zap.Error(err))
		if t == nil {
			return nil
		}
		t.Reset()
	}
	return t
}

// closeUsage flushes t. Usage counters never fail a command.
func closeUsage(t *usage.Tracker) {
	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		logging.Get(logging.CategoryUsage).Warn("failed to save usage data", zap.String("path", t.Path()), zap.Error(err))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
