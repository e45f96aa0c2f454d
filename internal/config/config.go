package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"themegate/internal/diagnostics"
	"themegate/internal/monitoring"
	"themegate/internal/rollout"
)

const (
	// WorkspaceDir holds themegate state relative to the working directory.
	WorkspaceDir = ".themegate"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "THEMEGATE_"
)

// DefaultPath is where the CLI looks for config.yaml.
var DefaultPath = filepath.Join(WorkspaceDir, "config.yaml")

// Flag source backends.
const (
	SourceSQLite = "sqlite"
	SourceFile   = "file"
)

// Config holds all themegate configuration.
type Config struct {
	Policy      PolicyConfig      `yaml:"policy" envPrefix:"POLICY_"`
	Store       StoreConfig       `yaml:"store" envPrefix:"STORE_"`
	Rollout     RolloutConfig     `yaml:"rollout" envPrefix:"ROLLOUT_"`
	Preferences PreferencesConfig `yaml:"preferences" envPrefix:"PREFS_"`
	Usage       UsageConfig       `yaml:"usage" envPrefix:"USAGE_"`
	Logging     LoggingConfig     `yaml:"logging" envPrefix:"LOG_"`
}

// PolicyConfig holds the tunable monitoring and diagnostics constants.
type PolicyConfig struct {
	AverageFrameBudgetMs   float64 `yaml:"average_frame_budget_ms" env:"AVERAGE_FRAME_BUDGET_MS"`
	MaxFrameBudgetMs       float64 `yaml:"max_frame_budget_ms" env:"MAX_FRAME_BUDGET_MS"`
	InvalidationsPerSecond float64 `yaml:"invalidations_per_second" env:"INVALIDATIONS_PER_SECOND"`
	DiagnosticsWindow      string  `yaml:"diagnostics_window" env:"DIAGNOSTICS_WINDOW"`
	DiagnosticsCapacity    int     `yaml:"diagnostics_capacity" env:"DIAGNOSTICS_CAPACITY"`
}

// StoreConfig configures the SQLite flag store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path" env:"DB"`
}

// RolloutConfig selects the flag source and how it is watched.
type RolloutConfig struct {
	Source             string `yaml:"source" env:"SOURCE"` // sqlite, file
	FlagsFile          string `yaml:"flags_file" env:"FLAGS_FILE"`
	Watch              bool   `yaml:"watch" env:"WATCH"`
	Debounce           string `yaml:"debounce" env:"DEBOUNCE"`
	AutoBaselineOnRisk bool   `yaml:"auto_baseline_on_risk" env:"AUTO_BASELINE_ON_RISK"`
}

// PreferencesConfig locates the user preferences file.
type PreferencesConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// UsageConfig controls the persisted usage counters.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	budget := monitoring.DefaultBudget()
	return &Config{
		Policy: PolicyConfig{
			AverageFrameBudgetMs:   budget.AverageFrameMs,
			MaxFrameBudgetMs:       budget.MaxFrameMs,
			InvalidationsPerSecond: budget.InvalidationsPerSecond,
			DiagnosticsWindow:      "4s",
			DiagnosticsCapacity:    diagnostics.DefaultCapacity,
		},
		Store: StoreConfig{
			DatabasePath: filepath.Join(WorkspaceDir, "flags.db"),
		},
		Rollout: RolloutConfig{
			Source:    SourceSQLite,
			FlagsFile: filepath.Join(WorkspaceDir, "flags.yaml"),
			Debounce:  rollout.DefaultDebounce.String(),
		},
		Preferences: PreferencesConfig{
			Path: filepath.Join(WorkspaceDir, "preferences.json"),
		},
		Usage: UsageConfig{
			Enabled: true,
			Path:    filepath.Join(WorkspaceDir, "usage.json"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies THEMEGATE_* variables on top of the loaded
// values. Unset variables leave fields untouched.
func (c *Config) applyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Budget returns the monitoring thresholds.
func (c *Config) Budget() monitoring.Budget {
	return monitoring.Budget{
		AverageFrameMs:         c.Policy.AverageFrameBudgetMs,
		MaxFrameMs:             c.Policy.MaxFrameBudgetMs,
		InvalidationsPerSecond: c.Policy.InvalidationsPerSecond,
	}
}

// GetDiagnosticsWindow returns the diagnostics retention window.
func (c *Config) GetDiagnosticsWindow() time.Duration {
	d, err := time.ParseDuration(c.Policy.DiagnosticsWindow)
	if err != nil || d <= 0 {
		return diagnostics.DefaultWindowMs * time.Millisecond
	}
	return d
}

// GetWatchDebounce returns the flags watcher debounce.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Rollout.Debounce)
	if err != nil || d < 0 {
		return rollout.DefaultDebounce
	}
	return d
}

// ValidSources lists the supported flag backends.
var ValidSources = []string{SourceSQLite, SourceFile}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Policy.AverageFrameBudgetMs <= 0 || c.Policy.MaxFrameBudgetMs <= 0 {
		return fmt.Errorf("frame budgets must be positive (average=%v, max=%v)",
			c.Policy.AverageFrameBudgetMs, c.Policy.MaxFrameBudgetMs)
	}
	if c.Policy.AverageFrameBudgetMs > c.Policy.MaxFrameBudgetMs {
		return fmt.Errorf("average frame budget %vms exceeds max frame budget %vms",
			c.Policy.AverageFrameBudgetMs, c.Policy.MaxFrameBudgetMs)
	}
	if c.Policy.InvalidationsPerSecond <= 0 {
		return fmt.Errorf("invalidation budget must be positive, got %v", c.Policy.InvalidationsPerSecond)
	}
	if c.Policy.DiagnosticsCapacity <= 0 {
		return fmt.Errorf("diagnostics capacity must be positive, got %d", c.Policy.DiagnosticsCapacity)
	}
	if c.Policy.DiagnosticsWindow != "" {
		if d, err := time.ParseDuration(c.Policy.DiagnosticsWindow); err != nil || d <= 0 {
			return fmt.Errorf("invalid diagnostics window: %q", c.Policy.DiagnosticsWindow)
		}
	}

	validSource := false
	for _, s := range ValidSources {
		if c.Rollout.Source == s {
			validSource = true
			break
		}
	}
	if !validSource {
		return fmt.Errorf("invalid rollout source: %s (valid: %v)", c.Rollout.Source, ValidSources)
	}
	if c.Rollout.Source == SourceSQLite && c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path is required for the sqlite source")
	}
	if c.Rollout.Source == SourceFile && c.Rollout.FlagsFile == "" {
		return fmt.Errorf("rollout.flags_file is required for the file source")
	}
	if c.Usage.Enabled && c.Usage.Path == "" {
		return fmt.Errorf("usage.path is required when usage tracking is enabled")
	}

	return c.Logging.Validate()
}
