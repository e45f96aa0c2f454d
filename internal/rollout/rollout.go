// Package rollout reconciles operator flags (theme allow-list, quality cap,
// baseline-only kill switch) against the theme and quality a user asked for.
package rollout

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"themegate/internal/theme"
)

// Flag keys as stored in the operator flag store.
const (
	KeyEnabledThemes  = "rollout.enabled_themes"
	KeyMaxFxQuality   = "rollout.max_fx_quality"
	KeyBaselineFxOnly = "rollout.baseline_fx_only"
)

// Keys lists every flag key the controller reads.
var Keys = []string{KeyEnabledThemes, KeyMaxFxQuality, KeyBaselineFxOnly}

// RawFlags are the unparsed flag strings.
type RawFlags struct {
	EnabledThemes  string `yaml:"enabled_themes" json:"enabled_themes"`
	MaxFxQuality   string `yaml:"max_fx_quality" json:"max_fx_quality"`
	BaselineFxOnly string `yaml:"baseline_fx_only" json:"baseline_fx_only"`
}

// FlagsFromMap picks the rollout keys out of a key/value flag map.
func FlagsFromMap(m map[string]string) RawFlags {
	return RawFlags{
		EnabledThemes:  m[KeyEnabledThemes],
		MaxFxQuality:   m[KeyMaxFxQuality],
		BaselineFxOnly: m[KeyBaselineFxOnly],
	}
}

// Config is the parsed operator state. An empty EnabledThemes means the
// rollout is unrestricted. The zero value caps quality at off; start from
// Unrestricted when building one by hand.
type Config struct {
	EnabledThemes  []theme.ThemeID `json:"enabled_themes"`
	MaxFxQuality   theme.FxQuality `json:"max_fx_quality"`
	BaselineFxOnly bool            `json:"baseline_fx_only"`
}

// Unrestricted is the config used when no flags are set.
func Unrestricted() Config {
	return Config{EnabledThemes: []theme.ThemeID{}, MaxFxQuality: theme.FxHigh}
}

// ParseConfig parses every raw flag. It never fails; garbage degrades to
// the unrestricted value for that flag.
func ParseConfig(raw RawFlags) Config {
	return Config{
		EnabledThemes:  ParseEnabledThemes(raw.EnabledThemes),
		MaxFxQuality:   ParseMaxFxQuality(raw.MaxFxQuality),
		BaselineFxOnly: ParseBaselineOnly(raw.BaselineFxOnly),
	}
}

// ParseEnabledThemes splits a comma separated allow-list, drops empty and
// unknown tokens, removes duplicates and sorts lexicographically so the
// fallback theme does not depend on how the operator typed the list.
func ParseEnabledThemes(raw string) []theme.ThemeID {
	seen := make(map[theme.ThemeID]bool)
	out := []theme.ThemeID{}
	for _, token := range strings.Split(raw, ",") {
		id, ok := theme.ParseThemeID(token)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseMaxFxQuality reads an integer tier, clamped to [off, high]. Empty or
// non-numeric input means no cap.
func ParseMaxFxQuality(raw string) theme.FxQuality {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return theme.FxHigh
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return theme.ClampFxQuality(n)
	}
	if q, ok := theme.ParseFxQualityName(raw); ok {
		return q
	}
	return theme.FxHigh
}

// ParseBaselineOnly reads a boolean-ish kill switch.
func ParseBaselineOnly(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Request is what the user asked for. ThemeID is raw because rollout is the
// component that decides what happens to unrecognised themes.
type Request struct {
	ThemeID   string
	FxQuality theme.FxQuality
}

// Runtime is the reconciled outcome.
type Runtime struct {
	ThemeID        theme.ThemeID   `json:"theme_id"`
	ThemeBlocked   bool            `json:"theme_blocked"`
	FxQuality      theme.FxQuality `json:"fx_quality"`
	BaselineFxOnly bool            `json:"baseline_fx_only"`
}

// ResolveThemeRolloutRuntime applies cfg to req.
//
// With a non-empty allow-list the result is always a member of it: a
// requested theme outside the list is replaced by the lexicographically
// first allowed theme and ThemeBlocked is set; cfg.EnabledThemes need not
// be sorted. With an empty allow-list any recognised theme passes, and an
// unrecognised one falls back to theme.DefaultTheme.
func ResolveThemeRolloutRuntime(req Request, cfg Config) Runtime {
	requested, known := theme.ParseThemeID(req.ThemeID)

	rt := Runtime{
		ThemeID:        requested,
		FxQuality:      theme.MinFxQuality(theme.ClampFxQuality(int(req.FxQuality)), cfg.MaxFxQuality),
		BaselineFxOnly: cfg.BaselineFxOnly,
	}

	if len(cfg.EnabledThemes) == 0 {
		if !known {
			rt.ThemeID = theme.DefaultTheme
		}
		return rt
	}

	if known && containsTheme(cfg.EnabledThemes, requested) {
		return rt
	}

	rt.ThemeID = slices.Min(cfg.EnabledThemes)
	rt.ThemeBlocked = true
	return rt
}

func containsTheme(list []theme.ThemeID, id theme.ThemeID) bool {
	for _, t := range list {
		if t == id {
			return true
		}
	}
	return false
}
