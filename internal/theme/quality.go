package theme

import (
	"fmt"
	"strings"
)

// FxQuality is the ordered tier that gates post effects.
type FxQuality int

const (
	FxOff    FxQuality = 0
	FxLow    FxQuality = 1
	FxMedium FxQuality = 2
	FxHigh   FxQuality = 3
)

// ClampFxQuality forces q into [FxOff, FxHigh].
func ClampFxQuality(q int) FxQuality {
	if q < int(FxOff) {
		return FxOff
	}
	if q > int(FxHigh) {
		return FxHigh
	}
	return FxQuality(q)
}

// MinFxQuality returns the lower of two tiers.
func MinFxQuality(a, b FxQuality) FxQuality {
	if a < b {
		return a
	}
	return b
}

func (q FxQuality) String() string {
	switch q {
	case FxOff:
		return "off"
	case FxLow:
		return "low"
	case FxMedium:
		return "medium"
	case FxHigh:
		return "high"
	default:
		return fmt.Sprintf("FxQuality(%d)", int(q))
	}
}

// ParseFxQualityName accepts tier names ("off", "low", "medium", "high").
func ParseFxQualityName(raw string) (FxQuality, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "off":
		return FxOff, true
	case "low":
		return FxLow, true
	case "medium", "med":
		return FxMedium, true
	case "high":
		return FxHigh, true
	}
	return FxOff, false
}

// MotionMode caps interaction intensity and suppresses effect categories.
type MotionMode string

const (
	MotionFull      MotionMode = "full"
	MotionTonedDown MotionMode = "toned-down"
	MotionOff       MotionMode = "off"
)

// ParseMotionMode normalises raw and reports whether it names a known mode.
// Empty input is not a known mode; callers decide the default.
func ParseMotionMode(raw string) (MotionMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "full":
		return MotionFull, true
	case "toned-down", "toned_down", "toneddown":
		return MotionTonedDown, true
	case "off", "none":
		return MotionOff, true
	}
	return MotionTonedDown, false
}

// Reduced reports whether the mode is anything less than full motion.
func (m MotionMode) Reduced() bool {
	return m != MotionFull
}
