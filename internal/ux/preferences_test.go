package ux

import (
	"path/filepath"
	"testing"

	"themegate/internal/motion"
	"themegate/internal/theme"
)

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	if prefs.Version != PreferencesVersion {
		t.Fatalf("unexpected preferences version: %s", prefs.Version)
	}
	if prefs.Theme != string(theme.DefaultTheme) {
		t.Fatalf("unexpected default theme: %s", prefs.Theme)
	}
	if prefs.ReducedMotion != ReducedMotionSystem {
		t.Fatalf("expected reduced motion to follow the system")
	}
}

func TestPreferencesManagerLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".themegate", "preferences.json")
	pm := NewPreferencesManager(path)
	if err := pm.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := pm.SetTheme("Neo_Brutalism"); err != nil {
		t.Fatalf("set theme failed: %v", err)
	}
	if err := pm.SetFxQuality(3); err != nil {
		t.Fatalf("set quality failed: %v", err)
	}
	if err := pm.SetMotionMode("toned-down"); err != nil {
		t.Fatalf("set motion failed: %v", err)
	}
	if err := pm.SetInteractionIntensity(0.25); err != nil {
		t.Fatalf("set intensity failed: %v", err)
	}
	if err := pm.SetReducedMotion(ReducedMotionOff); err != nil {
		t.Fatalf("set reduced motion failed: %v", err)
	}
	pm.SetSaveData(true)
	if err := pm.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	pm2 := NewPreferencesManager(path)
	if err := pm2.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got := pm2.Get()
	if got.Theme != string(theme.NeoBrutalism) || got.FxQuality != 3 || got.MotionMode != "toned-down" {
		t.Fatalf("preferences not persisted: %+v", got)
	}
	if got.InteractionIntensity != 0.25 || got.ReducedMotion != ReducedMotionOff || !got.SaveData {
		t.Fatalf("preferences not persisted: %+v", got)
	}
	if got.UpdatedAt == "" {
		t.Fatalf("expected updated_at to be stamped")
	}
}

func TestSettersRejectInvalid(t *testing.T) {
	pm := NewPreferencesManager(filepath.Join(t.TempDir(), "p.json"))

	if err := pm.SetTheme("vaporwave"); err == nil {
		t.Fatalf("expected error for unknown theme")
	}
	if err := pm.SetFxQuality(4); err == nil {
		t.Fatalf("expected error for quality 4")
	}
	if err := pm.SetMotionMode("wild"); err == nil {
		t.Fatalf("expected error for unknown motion mode")
	}
	if err := pm.SetInteractionIntensity(1.5); err == nil {
		t.Fatalf("expected error for intensity 1.5")
	}
	if err := pm.SetReducedMotion("sometimes"); err == nil {
		t.Fatalf("expected error for reduced motion setting")
	}
	if got := pm.Get(); got.Theme != string(theme.DefaultTheme) {
		t.Fatalf("rejected values must not be stored, got theme %s", got.Theme)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	pm := NewPreferencesManager(filepath.Join(t.TempDir(), "p.json"))
	if err := pm.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	p := pm.Get()
	p.Theme = "mutated"
	if pm.Get().Theme == "mutated" {
		t.Fatalf("Get must return a copy")
	}
}

func TestRawInput(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.Theme = string(theme.Royal)
	prefs.FxQuality = 3

	tests := []struct {
		setting ReducedMotionSetting
		system  bool
		want    bool
	}{
		{ReducedMotionSystem, true, true},
		{ReducedMotionSystem, false, false},
		{ReducedMotionOn, false, true},
		{ReducedMotionOff, true, false},
	}
	for _, tt := range tests {
		prefs.ReducedMotion = tt.setting
		raw := prefs.RawInput(tt.system)
		if raw.ReducedMotion != tt.want {
			t.Errorf("setting=%s system=%v: got reduced=%v want %v", tt.setting, tt.system, raw.ReducedMotion, tt.want)
		}
	}

	prefs.ReducedMotion = ReducedMotionOn
	cfg := motion.ResolveRuntimeConfig(prefs.RawInput(false))
	if cfg.ThemeID != theme.Royal || cfg.FxQuality != theme.FxHigh {
		t.Fatalf("unexpected runtime config: %+v", cfg)
	}
	if cfg.MotionMode != theme.MotionTonedDown {
		t.Fatalf("reduced motion must tone down full mode, got %s", cfg.MotionMode)
	}
}
