package fx

import "themegate/internal/theme"

// desired lists each theme's signature effects. Thematically exclusive
// effects are kept disjoint; minimalistic never inherits cyberpunk's
// Scanline/Glitch.
var desired = map[theme.ThemeID][]PostEffect{
	theme.Minimalistic:    {Noise},
	theme.NeoBrutalism:    {Noise, Grid, DotScreen},
	theme.Cyberpunk:       {Noise, Scanline, ChromaticAberration, Glitch},
	theme.Steampunk:       {Noise, GodRays},
	theme.Royal:           {Vignette, Noise, Bloom},
	theme.Chibi:           {Noise, DotScreen, Pixelation, Bloom},
	theme.PostApocalyptic: {Vignette, Noise, Sepia, Grid},
}

// DesiredEffects returns a copy of the theme's signature effect list.
func DesiredEffects(id theme.ThemeID) []PostEffect {
	list := desired[id]
	out := make([]PostEffect, len(list))
	copy(out, list)
	return out
}

// StackInput is everything the stack resolver needs for one frame.
type StackInput struct {
	ThemeID        theme.ThemeID
	FxQuality      theme.FxQuality
	ReducedMotion  bool
	MotionMode     theme.MotionMode
	BaselineFxOnly bool
}

// PostFxStack is the concrete effect set for one frame. Slices are never nil.
type PostFxStack struct {
	Baseline []PostEffect `json:"baseline"`
	Enabled  []PostEffect `json:"enabled"`
	Heavy    []PostEffect `json:"heavy"`
}

// Contains reports whether effect is enabled.
func (s PostFxStack) Contains(effect PostEffect) bool {
	for _, e := range s.Enabled {
		if e == effect {
			return true
		}
	}
	return false
}

// ResolveThemePostFxStack computes the baseline, enabled and heavy effect
// sets for a theme.
//
// Heavy effects are dropped whenever motion is reduced in any way, regardless
// of quality. BaselineFxOnly is the operator kill switch and short-circuits
// to the baseline set.
func ResolveThemePostFxStack(in StackInput) PostFxStack {
	stack := PostFxStack{
		Baseline: []PostEffect{},
		Enabled:  []PostEffect{},
		Heavy:    []PostEffect{},
	}

	suppressHeavy := in.ReducedMotion || in.MotionMode.Reduced()

	for _, effect := range desired[in.ThemeID] {
		if IsBaseline(effect) {
			stack.Baseline = append(stack.Baseline, effect)
			stack.Enabled = append(stack.Enabled, effect)
			continue
		}
		if in.BaselineFxOnly {
			continue
		}
		if !IsEffectAllowedAtQuality(effect, in.FxQuality) {
			continue
		}
		if suppressHeavy && IsHeavy(effect) {
			continue
		}
		stack.Enabled = append(stack.Enabled, effect)
		if IsHeavy(effect) {
			stack.Heavy = append(stack.Heavy, effect)
		}
	}

	return stack
}
