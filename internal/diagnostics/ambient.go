package diagnostics

import (
	"math"

	"themegate/internal/theme"
)

// Ambient tick bounds in milliseconds.
const (
	ReducedMotionTickMs = 1200
	SlowestTickMs       = 900
	FastestTickMs       = 240
)

// Intensity thresholds for ResolveAmbientFxQuality.
const (
	LowQualityBelow    = 0.35
	MediumQualityBelow = 0.7
)

// ResolveAmbientTickMs picks the ambient update cadence. Higher intensity
// ticks faster; reduced motion pins the cadence to a long interval.
func ResolveAmbientTickMs(intensity float64, reducedMotion bool) int {
	if reducedMotion {
		return ReducedMotionTickMs
	}
	if math.IsNaN(intensity) {
		intensity = 0
	}
	intensity = math.Max(0, math.Min(1, intensity))
	span := float64(SlowestTickMs - FastestTickMs)
	return int(math.Round(SlowestTickMs - span*intensity))
}

// ResolveAmbientFxQuality maps an intensity signal to a quality tier.
func ResolveAmbientFxQuality(intensity float64, saveData, reducedMotion bool) theme.FxQuality {
	switch {
	case reducedMotion, saveData, !finite(intensity), intensity < LowQualityBelow:
		return theme.FxLow
	case intensity < MediumQualityBelow:
		return theme.FxMedium
	default:
		return theme.FxHigh
	}
}
