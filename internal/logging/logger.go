// Package logging builds the zap root logger and hands out per-category
// child loggers.
//
// Category loggers follow the logging.debug_mode toggle: with debug mode off
// every category logs warnings and above only; with it on, each category
// logs at the root level unless it is switched off in logging.categories,
// in which case it is silent.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"themegate/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot        Category = "boot"        // startup and config
	CategoryRollout     Category = "rollout"     // flag reloads, kill switch
	CategoryStore       Category = "store"       // sqlite flag store
	CategoryPrefs       Category = "prefs"       // preferences file
	CategoryDiagnostics Category = "diagnostics" // ambient sampling
	CategoryMonitoring  Category = "monitoring"  // risk evaluation
	CategoryWatch       Category = "watch"       // fsnotify and the live view
	CategoryUsage       Category = "usage"       // persisted usage counters
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	cfg     config.LoggingConfig
	loggers = make(map[Category]*zap.Logger)
)

// New builds the root logger from cfg the way the CLI does: a production
// config whose level is raised to debug when verbose is set.
func New(lc config.LoggingConfig, verbose bool) (*zap.Logger, zap.AtomicLevel, error) {
	zc := zap.NewProductionConfig()

	level := ParseLevel(lc.Level)
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch lc.Format {
	case "console", "text":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if lc.File != "" {
		if err := os.MkdirAll(filepath.Dir(lc.File), 0755); err != nil {
			return nil, zc.Level, fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = []string{lc.File}
	}

	l, err := zc.Build()
	if err != nil {
		return nil, zc.Level, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, zc.Level, nil
}

// ParseLevel maps a config level name to a zap level. Unknown names are info.
func ParseLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize installs base as the root for category loggers.
func Initialize(base *zap.Logger, lc config.LoggingConfig) {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		base = zap.NewNop()
	}
	root = base
	cfg = lc
	loggers = make(map[Category]*zap.Logger)

	root.Named(string(CategoryBoot)).Debug("logging initialized",
		zap.Bool("debug_mode", lc.DebugMode),
		zap.Int("category_overrides", len(lc.Categories)))
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.DebugMode
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	var l *zap.Logger
	switch {
	case !cfg.DebugMode:
		l = root.Named(string(category)).WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	case cfg.IsCategoryEnabled(string(category)):
		l = root.Named(string(category))
	default:
		l = zap.NewNop()
	}
	loggers[category] = l
	return l
}

// Sync flushes the root logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration at debug.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("operation slow",
			zap.String("op", t.op),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		Get(t.category).Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
