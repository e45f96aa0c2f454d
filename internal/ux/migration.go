package ux

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"themegate/internal/theme"
)

// MigrationResult contains information about a preferences migration.
type MigrationResult struct {
	WasMigrated     bool
	FromVersion     string
	ToVersion       string
	PreservedData   []string // fields carried over from the old file
	DefaultsApplied []string // defaults filled in
	BackupPath      string   // set when an unreadable file was moved aside
}

// legacyThemes maps v1 light/dark themes onto the current set.
var legacyThemes = map[string]theme.ThemeID{
	"light": theme.Minimalistic,
	"dark":  theme.Cyberpunk,
}

// MigratePreferences checks and migrates the preferences file at path to the
// latest schema. A missing file is created with defaults; an unparseable one
// is moved to path+".bak" and replaced.
func MigratePreferences(path string) (*MigrationResult, error) {
	result := &MigrationResult{ToVersion: PreferencesVersion}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read preferences: %w", err)
		}
		if err := writePreferences(path, DefaultPreferences()); err != nil {
			return nil, fmt.Errorf("failed to save new preferences: %w", err)
		}
		result.WasMigrated = true
		result.DefaultsApplied = []string{"new_install_defaults"}
		return result, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		backup := path + ".bak"
		if err := os.WriteFile(backup, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to back up preferences: %w", err)
		}
		if err := writePreferences(path, DefaultPreferences()); err != nil {
			return nil, fmt.Errorf("failed to save reset preferences: %w", err)
		}
		result.WasMigrated = true
		result.BackupPath = backup
		result.DefaultsApplied = []string{"reset_unreadable_file"}
		return result, nil
	}

	version, _ := raw["version"].(string)
	result.FromVersion = version
	if version == PreferencesVersion {
		return result, nil
	}

	prefs := migrateFromV1(raw, result)
	if err := writePreferences(path, prefs); err != nil {
		return nil, fmt.Errorf("failed to save migrated preferences: %w", err)
	}
	result.WasMigrated = true
	return result, nil
}

// migrateFromV1 reads the v1 shape: theme as light/dark or an id,
// enable_animations instead of a motion mode, and reduce_motion as a bool.
func migrateFromV1(raw map[string]any, result *MigrationResult) *Preferences {
	prefs := DefaultPreferences()

	if name, ok := raw["theme"].(string); ok {
		if id, ok := legacyThemes[strings.ToLower(strings.TrimSpace(name))]; ok {
			prefs.Theme = string(id)
			result.PreservedData = append(result.PreservedData, "theme")
		} else if id, ok := theme.ParseThemeID(name); ok {
			prefs.Theme = string(id)
			result.PreservedData = append(result.PreservedData, "theme")
		} else {
			result.DefaultsApplied = append(result.DefaultsApplied, "theme")
		}
	}

	if q, ok := raw["fx_quality"].(float64); ok {
		prefs.FxQuality = int(theme.ClampFxQuality(int(q)))
		result.PreservedData = append(result.PreservedData, "fx_quality")
	}

	if animations, ok := raw["enable_animations"].(bool); ok {
		if !animations {
			prefs.MotionMode = string(theme.MotionOff)
		}
		result.PreservedData = append(result.PreservedData, "enable_animations")
	}

	if reduce, ok := raw["reduce_motion"].(bool); ok {
		if reduce {
			prefs.ReducedMotion = ReducedMotionOn
		}
		result.PreservedData = append(result.PreservedData, "reduce_motion")
	}

	if saveData, ok := raw["save_data"].(bool); ok {
		prefs.SaveData = saveData
		result.PreservedData = append(result.PreservedData, "save_data")
	}

	return prefs
}
