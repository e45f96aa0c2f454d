// Package motion resolves raw, untrusted theme and motion signals into a
// bounded RuntimeConfig.
//
// ResolveRuntimeConfig is total: every input, however malformed, produces a
// config that satisfies the invariants below. Malformed signals are clamped
// toward less motion, never more.
//
//   - ReducedMotion implies MotionMode != full
//   - MotionMode toned-down implies InteractionIntensity <= TonedDownIntensityCeiling
//   - MotionMode off implies InteractionIntensity == 0
//   - InteractionIntensity is always within [0, 1]
//   - Degenerate input implies InteractionIntensity <= DegenerateIntensityCeiling
package motion

import (
	"math"

	"themegate/internal/theme"
)

const (
	// TonedDownIntensityCeiling caps intensity in toned-down mode.
	TonedDownIntensityCeiling = 0.6
	// DegenerateIntensityCeiling caps intensity when the raw input was out of range.
	DegenerateIntensityCeiling = 0.4
	// DefaultFxQuality applies when no quality was supplied.
	DefaultFxQuality = theme.FxMedium
)

// RawInput carries the unvalidated signals from preferences, UI controls and
// the OS reduced-motion query. Nil pointers mean "not provided".
type RawInput struct {
	ThemeID              string
	FxQuality            *float64
	MotionMode           string
	ReducedMotion        bool
	InteractionIntensity *float64
}

// RuntimeConfig is the resolved, trusted configuration.
type RuntimeConfig struct {
	ThemeID              theme.ThemeID    `json:"theme_id"`
	FxQuality            theme.FxQuality  `json:"fx_quality"`
	MotionMode           theme.MotionMode `json:"motion_mode"`
	ReducedMotion        bool             `json:"reduced_motion"`
	InteractionIntensity float64          `json:"interaction_intensity"`
	// Degenerate records that at least one raw value had to be clamped from
	// outside its domain.
	Degenerate bool `json:"degenerate"`
}

// ResolveRuntimeConfig normalises raw into a RuntimeConfig.
func ResolveRuntimeConfig(raw RawInput) RuntimeConfig {
	degenerate := false

	themeID, ok := theme.ParseThemeID(raw.ThemeID)
	if !ok {
		themeID = theme.DefaultTheme
	}

	quality, qualityDegenerate := resolveQuality(raw.FxQuality)
	degenerate = degenerate || qualityDegenerate

	mode := theme.MotionFull
	if raw.MotionMode != "" {
		parsed, known := theme.ParseMotionMode(raw.MotionMode)
		mode = parsed
		if !known {
			degenerate = true
		}
	}
	if raw.ReducedMotion && mode == theme.MotionFull {
		mode = theme.MotionTonedDown
	}

	intensity := 1.0
	if raw.InteractionIntensity != nil {
		intensity = *raw.InteractionIntensity
		if math.IsNaN(intensity) || math.IsInf(intensity, 0) {
			intensity = 0
			degenerate = true
		}
	}
	intensity = clamp01(intensity)

	switch mode {
	case theme.MotionTonedDown:
		intensity = math.Min(intensity, TonedDownIntensityCeiling)
	case theme.MotionOff:
		intensity = 0
	}
	if degenerate {
		intensity = math.Min(intensity, DegenerateIntensityCeiling)
	}

	return RuntimeConfig{
		ThemeID:              themeID,
		FxQuality:            quality,
		MotionMode:           mode,
		ReducedMotion:        raw.ReducedMotion,
		InteractionIntensity: intensity,
		Degenerate:           degenerate,
	}
}

// resolveQuality floors and clamps a raw quality. Anything outside [0, 3]
// (including NaN and infinities) is reported as degenerate.
func resolveQuality(raw *float64) (theme.FxQuality, bool) {
	if raw == nil {
		return DefaultFxQuality, false
	}
	v := *raw
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return theme.FxLow, true
	}
	degenerate := v < float64(theme.FxOff) || v > float64(theme.FxHigh)
	v = math.Max(float64(theme.FxOff), math.Min(float64(theme.FxHigh), v))
	return theme.FxQuality(int(math.Floor(v))), degenerate
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Float is a small helper for building RawInput literals.
func Float(v float64) *float64 { return &v }
