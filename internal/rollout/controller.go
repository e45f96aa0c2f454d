package rollout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FlagSource is a key/value flag store the controller can read from.
type FlagSource interface {
	LoadFlags(ctx context.Context) (map[string]string, error)
}

// FlagWriter is implemented by flag sources that accept writes.
type FlagWriter interface {
	SetFlag(ctx context.Context, key, value string) error
}

// Controller owns the current rollout Config. It is the only component
// that reads operator flag state; hosts call Reload at boot and whenever the
// flag source changes.
type Controller struct {
	mu       sync.RWMutex
	source   FlagSource
	cfg      Config
	loadedAt time.Time
	logger   *zap.Logger
}

// NewController creates a controller that starts unrestricted until the
// first Reload. A nil source keeps it unrestricted forever.
func NewController(source FlagSource, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		source: source,
		cfg:    Unrestricted(),
		logger: logger,
	}
}

// Reload reads the flag source and replaces the current config. On error
// the previous config stays in effect.
func (c *Controller) Reload(ctx context.Context) error {
	if c.source == nil {
		return nil
	}

	flags, err := c.source.LoadFlags(ctx)
	if err != nil {
		c.logger.Warn("rollout flag reload failed, keeping previous config", zap.Error(err))
		return fmt.Errorf("failed to load rollout flags: %w", err)
	}

	cfg := ParseConfig(FlagsFromMap(flags))

	c.mu.Lock()
	prev := c.cfg
	c.cfg = cfg
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("rollout flags reloaded",
		zap.Any("enabled_themes", cfg.EnabledThemes),
		zap.Stringer("max_fx_quality", cfg.MaxFxQuality),
		zap.Bool("baseline_fx_only", cfg.BaselineFxOnly))
	if prev.BaselineFxOnly != cfg.BaselineFxOnly {
		c.logger.Info("baseline-only kill switch changed", zap.Bool("baseline_fx_only", cfg.BaselineFxOnly))
	}
	return nil
}

// Config returns a copy of the current config.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := c.cfg
	cfg.EnabledThemes = append(cfg.EnabledThemes[:0:0], c.cfg.EnabledThemes...)
	return cfg
}

// LoadedAt reports when the config was last reloaded (zero before the first).
func (c *Controller) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Resolve applies the current config to req.
func (c *Controller) Resolve(req Request) Runtime {
	return ResolveThemeRolloutRuntime(req, c.Config())
}

// Writer returns the source as a FlagWriter when it supports writes.
func (c *Controller) Writer() (FlagWriter, bool) {
	w, ok := c.source.(FlagWriter)
	return w, ok
}
