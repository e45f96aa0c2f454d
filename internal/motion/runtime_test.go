package motion

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"themegate/internal/theme"
)

func TestResolveRuntimeConfig_DegenerateInputIsClamped(t *testing.T) {
	cfg := ResolveRuntimeConfig(RawInput{
		ThemeID:              "cyberpunk",
		FxQuality:            Float(7),
		MotionMode:           "full",
		ReducedMotion:        true,
		InteractionIntensity: Float(2.4),
	})

	assert.Equal(t, theme.FxHigh, cfg.FxQuality)
	assert.Equal(t, theme.MotionTonedDown, cfg.MotionMode)
	assert.LessOrEqual(t, cfg.InteractionIntensity, DegenerateIntensityCeiling)
	assert.True(t, cfg.Degenerate)
}

func TestResolveRuntimeConfig_Defaults(t *testing.T) {
	cfg := ResolveRuntimeConfig(RawInput{})

	want := RuntimeConfig{
		ThemeID:              theme.DefaultTheme,
		FxQuality:            DefaultFxQuality,
		MotionMode:           theme.MotionFull,
		InteractionIntensity: 1,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("ResolveRuntimeConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRuntimeConfig_Cases(t *testing.T) {
	tests := []struct {
		name         string
		in           RawInput
		wantQuality  theme.FxQuality
		wantMode     theme.MotionMode
		maxIntensity float64
		wantDegen    bool
	}{
		{
			name:         "fractional quality floors",
			in:           RawInput{FxQuality: Float(2.9)},
			wantQuality:  theme.FxMedium,
			wantMode:     theme.MotionFull,
			maxIntensity: 1,
		},
		{
			name:         "negative quality clamps to off",
			in:           RawInput{FxQuality: Float(-3)},
			wantQuality:  theme.FxOff,
			wantMode:     theme.MotionFull,
			maxIntensity: DegenerateIntensityCeiling,
			wantDegen:    true,
		},
		{
			name:         "huge quality clamps to high",
			in:           RawInput{FxQuality: Float(1e19)},
			wantQuality:  theme.FxHigh,
			wantMode:     theme.MotionFull,
			maxIntensity: DegenerateIntensityCeiling,
			wantDegen:    true,
		},
		{
			name:         "beyond int range clamps to high",
			in:           RawInput{FxQuality: Float(1e30)},
			wantQuality:  theme.FxHigh,
			wantMode:     theme.MotionFull,
			maxIntensity: DegenerateIntensityCeiling,
			wantDegen:    true,
		},
		{
			name:         "hugely negative quality clamps to off",
			in:           RawInput{FxQuality: Float(-1e30)},
			wantQuality:  theme.FxOff,
			wantMode:     theme.MotionFull,
			maxIntensity: DegenerateIntensityCeiling,
			wantDegen:    true,
		},
		{
			name:         "NaN quality is low",
			in:           RawInput{FxQuality: Float(math.NaN())},
			wantQuality:  theme.FxLow,
			wantMode:     theme.MotionFull,
			maxIntensity: DegenerateIntensityCeiling,
			wantDegen:    true,
		},
		{
			name:         "unknown motion falls back to toned-down",
			in:           RawInput{MotionMode: "hyper", InteractionIntensity: Float(0.9)},
			wantQuality:  DefaultFxQuality,
			wantMode:     theme.MotionTonedDown,
			maxIntensity: DegenerateIntensityCeiling,
			wantDegen:    true,
		},
		{
			name:         "toned-down caps intensity",
			in:           RawInput{MotionMode: "toned-down", InteractionIntensity: Float(0.95)},
			wantQuality:  DefaultFxQuality,
			wantMode:     theme.MotionTonedDown,
			maxIntensity: TonedDownIntensityCeiling,
		},
		{
			name:         "off zeroes intensity",
			in:           RawInput{MotionMode: "off", ReducedMotion: true, InteractionIntensity: Float(1)},
			wantQuality:  DefaultFxQuality,
			wantMode:     theme.MotionOff,
			maxIntensity: 0,
		},
		{
			name:         "infinite intensity",
			in:           RawInput{InteractionIntensity: Float(math.Inf(1))},
			wantQuality:  DefaultFxQuality,
			wantMode:     theme.MotionFull,
			maxIntensity: 0,
			wantDegen:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ResolveRuntimeConfig(tt.in)
			assert.Equal(t, tt.wantQuality, cfg.FxQuality)
			assert.Equal(t, tt.wantMode, cfg.MotionMode)
			assert.LessOrEqual(t, cfg.InteractionIntensity, tt.maxIntensity)
			assert.GreaterOrEqual(t, cfg.InteractionIntensity, 0.0)
			assert.Equal(t, tt.wantDegen, cfg.Degenerate)
		})
	}
}

func TestResolveRuntimeConfig_UnknownThemeFallsBack(t *testing.T) {
	cfg := ResolveRuntimeConfig(RawInput{ThemeID: "vaporwave"})
	assert.Equal(t, theme.DefaultTheme, cfg.ThemeID)
}

func TestResolveRuntimeConfig_Invariants(t *testing.T) {
	qualities := []float64{-10, -1, 0, 1, 1.5, 2, 3, 4, 99, math.NaN()}
	intensities := []float64{-2, 0, 0.3, 0.6, 0.61, 1, 2.4, math.Inf(-1)}
	modes := []string{"", "full", "toned-down", "off", "bogus"}

	for _, q := range qualities {
		for _, i := range intensities {
			for _, m := range modes {
				for _, reduced := range []bool{false, true} {
					cfg := ResolveRuntimeConfig(RawInput{
						FxQuality:            Float(q),
						MotionMode:           m,
						ReducedMotion:        reduced,
						InteractionIntensity: Float(i),
					})
					if reduced && cfg.MotionMode == theme.MotionFull {
						t.Fatalf("reduced motion left mode full: q=%v i=%v m=%q", q, i, m)
					}
					if cfg.MotionMode == theme.MotionTonedDown && cfg.InteractionIntensity > TonedDownIntensityCeiling {
						t.Fatalf("toned-down intensity %v above ceiling", cfg.InteractionIntensity)
					}
					if cfg.InteractionIntensity < 0 || cfg.InteractionIntensity > 1 {
						t.Fatalf("intensity %v outside [0,1]", cfg.InteractionIntensity)
					}
					if cfg.FxQuality < theme.FxOff || cfg.FxQuality > theme.FxHigh {
						t.Fatalf("quality %v outside tier range", cfg.FxQuality)
					}
				}
			}
		}
	}
}

func TestResolveRuntimeConfig_Idempotent(t *testing.T) {
	in := RawInput{ThemeID: "royal", FxQuality: Float(3), MotionMode: "full", InteractionIntensity: Float(0.7)}
	assert.Equal(t, ResolveRuntimeConfig(in), ResolveRuntimeConfig(in))
}
