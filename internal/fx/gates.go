// Package fx holds the post-effect gating matrix and the per-theme stack
// resolver. The matrix in this file is the only place effect tiers are
// declared; everything else asks IsEffectAllowedAtQuality.
package fx

import (
	"strings"

	"themegate/internal/theme"
)

// PostEffect names a visual post-processing pass.
type PostEffect string

const (
	Vignette            PostEffect = "Vignette"
	Noise               PostEffect = "Noise"
	Sepia               PostEffect = "Sepia"
	Scanline            PostEffect = "Scanline"
	Grid                PostEffect = "Grid"
	DotScreen           PostEffect = "DotScreen"
	Pixelation          PostEffect = "Pixelation"
	ChromaticAberration PostEffect = "ChromaticAberration"
	Glitch              PostEffect = "Glitch"
	GodRays             PostEffect = "GodRays"
	Bloom               PostEffect = "Bloom"
)

type gate struct {
	effect  PostEffect
	minTier theme.FxQuality
	heavy   bool
}

// matrix is ordered cheapest first.
var matrix = []gate{
	{Vignette, theme.FxOff, false},
	{Noise, theme.FxOff, false},
	{Sepia, theme.FxLow, false},
	{Scanline, theme.FxLow, false},
	{Grid, theme.FxLow, false},
	{DotScreen, theme.FxMedium, false},
	{Pixelation, theme.FxMedium, false},
	{ChromaticAberration, theme.FxHigh, true},
	{Glitch, theme.FxHigh, true},
	{GodRays, theme.FxHigh, true},
	{Bloom, theme.FxHigh, true},
}

func lookup(effect PostEffect) (gate, bool) {
	for _, g := range matrix {
		if g.effect == effect {
			return g, true
		}
	}
	return gate{}, false
}

// Effects returns every known effect in matrix order.
func Effects() []PostEffect {
	out := make([]PostEffect, 0, len(matrix))
	for _, g := range matrix {
		out = append(out, g.effect)
	}
	return out
}

// MinimumTier returns the lowest quality at which effect may run.
func MinimumTier(effect PostEffect) (theme.FxQuality, bool) {
	g, ok := lookup(effect)
	return g.minTier, ok
}

// IsEffectAllowedAtQuality reports whether effect may run at quality.
// Unknown effects are never allowed.
func IsEffectAllowedAtQuality(effect PostEffect, quality theme.FxQuality) bool {
	g, ok := lookup(effect)
	if !ok {
		return false
	}
	return quality >= g.minTier
}

// IsHeavy reports whether effect is chromatic, flicker-inducing or otherwise
// too expensive to run under reduced motion.
func IsHeavy(effect PostEffect) bool {
	g, ok := lookup(effect)
	return ok && g.heavy
}

// IsBaseline reports whether effect belongs to the always-safe baseline class.
func IsBaseline(effect PostEffect) bool {
	return effect == Vignette || effect == Noise
}

// ParsePostEffect matches raw case-insensitively against the known effects.
func ParsePostEffect(raw string) (PostEffect, bool) {
	raw = strings.TrimSpace(raw)
	for _, g := range matrix {
		if strings.EqualFold(string(g.effect), raw) {
			return g.effect, true
		}
	}
	return "", false
}
