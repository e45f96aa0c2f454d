package ux

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"themegate/internal/motion"
	"themegate/internal/theme"
)

// PreferencesVersion is the current schema version for preferences.json.
const PreferencesVersion = "2.0"

// ReducedMotionSetting chooses where the reduced-motion signal comes from.
type ReducedMotionSetting string

const (
	ReducedMotionSystem ReducedMotionSetting = "system" // follow the OS query
	ReducedMotionOn     ReducedMotionSetting = "on"
	ReducedMotionOff    ReducedMotionSetting = "off"
)

// Preferences is the persisted preferences schema.
type Preferences struct {
	// Version is the schema version for migration detection
	Version string `json:"version"`

	Theme                string               `json:"theme"`
	FxQuality            int                  `json:"fx_quality"`
	MotionMode           string               `json:"motion_mode"`
	InteractionIntensity float64              `json:"interaction_intensity"`
	ReducedMotion        ReducedMotionSetting `json:"reduced_motion"`
	SaveData             bool                 `json:"save_data"`

	UpdatedAt string `json:"updated_at,omitempty"`
}

// DefaultPreferences returns preferences for a fresh install.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Version:              PreferencesVersion,
		Theme:                string(theme.DefaultTheme),
		FxQuality:            int(motion.DefaultFxQuality),
		MotionMode:           string(theme.MotionFull),
		InteractionIntensity: 1,
		ReducedMotion:        ReducedMotionSystem,
	}
}

// RawInput converts preferences into resolver input. systemReduced is the
// OS reduced-motion signal, consulted only for the "system" setting.
func (p Preferences) RawInput(systemReduced bool) motion.RawInput {
	reduced := systemReduced
	switch p.ReducedMotion {
	case ReducedMotionOn:
		reduced = true
	case ReducedMotionOff:
		reduced = false
	}

	return motion.RawInput{
		ThemeID:              p.Theme,
		FxQuality:            motion.Float(float64(p.FxQuality)),
		MotionMode:           p.MotionMode,
		ReducedMotion:        reduced,
		InteractionIntensity: motion.Float(p.InteractionIntensity),
	}
}

// PreferencesManager handles loading/saving preferences.
type PreferencesManager struct {
	mu          sync.RWMutex
	path        string
	preferences *Preferences
}

// NewPreferencesManager creates a manager for the file at path.
func NewPreferencesManager(path string) *PreferencesManager {
	return &PreferencesManager{path: path}
}

// Path returns the preferences file path.
func (pm *PreferencesManager) Path() string { return pm.path }

// Load reads preferences from disk, creating defaults if not exists.
func (pm *PreferencesManager) Load() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	data, err := os.ReadFile(pm.path)
	if err != nil {
		if os.IsNotExist(err) {
			pm.preferences = DefaultPreferences()
			return nil
		}
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, prefs); err != nil {
		return fmt.Errorf("failed to parse preferences: %w", err)
	}

	pm.preferences = prefs
	return nil
}

// Save writes preferences to disk.
func (pm *PreferencesManager) Save() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.preferences == nil {
		pm.preferences = DefaultPreferences()
	}
	return writePreferences(pm.path, pm.preferences)
}

func writePreferences(path string, prefs *Preferences) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// Get returns a copy of the current preferences.
func (pm *PreferencesManager) Get() Preferences {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.preferences == nil {
		return *DefaultPreferences()
	}
	return *pm.preferences
}

// update applies fn under the write lock and stamps UpdatedAt.
func (pm *PreferencesManager) update(fn func(*Preferences)) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.preferences == nil {
		pm.preferences = DefaultPreferences()
	}
	fn(pm.preferences)
	pm.preferences.UpdatedAt = time.Now().Format(time.RFC3339)
}

// SetTheme stores a known theme id.
func (pm *PreferencesManager) SetTheme(raw string) error {
	id, ok := theme.ParseThemeID(raw)
	if !ok {
		return fmt.Errorf("unknown theme: %q (valid: %v)", raw, theme.All())
	}
	pm.update(func(p *Preferences) { p.Theme = string(id) })
	return nil
}

// SetFxQuality stores a tier in [0, 3].
func (pm *PreferencesManager) SetFxQuality(q int) error {
	if q < int(theme.FxOff) || q > int(theme.FxHigh) {
		return fmt.Errorf("fx quality must be between %d and %d, got %d", theme.FxOff, theme.FxHigh, q)
	}
	pm.update(func(p *Preferences) { p.FxQuality = q })
	return nil
}

// SetMotionMode stores a known motion mode.
func (pm *PreferencesManager) SetMotionMode(raw string) error {
	mode, ok := theme.ParseMotionMode(raw)
	if !ok {
		return fmt.Errorf("unknown motion mode: %q", raw)
	}
	pm.update(func(p *Preferences) { p.MotionMode = string(mode) })
	return nil
}

// SetInteractionIntensity stores an intensity in [0, 1].
func (pm *PreferencesManager) SetInteractionIntensity(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("interaction intensity must be within [0, 1], got %v", v)
	}
	pm.update(func(p *Preferences) { p.InteractionIntensity = v })
	return nil
}

// SetReducedMotion stores the reduced-motion source.
func (pm *PreferencesManager) SetReducedMotion(setting ReducedMotionSetting) error {
	switch setting {
	case ReducedMotionSystem, ReducedMotionOn, ReducedMotionOff:
	default:
		return fmt.Errorf("reduced motion must be system, on or off, got %q", setting)
	}
	pm.update(func(p *Preferences) { p.ReducedMotion = setting })
	return nil
}

// SetSaveData toggles the data saver.
func (pm *PreferencesManager) SetSaveData(on bool) {
	pm.update(func(p *Preferences) { p.SaveData = on })
}
