package rollout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"themegate/internal/theme"
)

func TestParseEnabledThemes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []theme.ThemeID
	}{
		{"empty", "", []theme.ThemeID{}},
		{"only separators", ",,,", []theme.ThemeID{}},
		{"garbage", "vaporwave, ,synthwave", []theme.ThemeID{}},
		{"sorted", "cyberpunk, chibi", []theme.ThemeID{theme.Chibi, theme.Cyberpunk}},
		{"dedupe and normalise", "Royal,royal, ROYAL ,neo_brutalism", []theme.ThemeID{theme.NeoBrutalism, theme.Royal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnabledThemes(tt.raw))
		})
	}
}

func TestParseMaxFxQuality(t *testing.T) {
	assert.Equal(t, theme.FxHigh, ParseMaxFxQuality(""))
	assert.Equal(t, theme.FxLow, ParseMaxFxQuality(" 1 "))
	assert.Equal(t, theme.FxHigh, ParseMaxFxQuality("12"))
	assert.Equal(t, theme.FxOff, ParseMaxFxQuality("-2"))
	assert.Equal(t, theme.FxMedium, ParseMaxFxQuality("medium"))
	assert.Equal(t, theme.FxHigh, ParseMaxFxQuality("lots"))
}

func TestParseBaselineOnly(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "on"} {
		assert.True(t, ParseBaselineOnly(v), v)
	}
	for _, v := range []string{"", "0", "false", "nope", "off"} {
		assert.False(t, ParseBaselineOnly(v), v)
	}
}

func TestResolve_BlockedThemeFallsBackToFirstEnabled(t *testing.T) {
	cfg := ParseConfig(RawFlags{EnabledThemes: "chibi,cyberpunk"})

	rt := ResolveThemeRolloutRuntime(Request{ThemeID: "steampunk", FxQuality: theme.FxHigh}, cfg)

	assert.Equal(t, theme.Chibi, rt.ThemeID)
	assert.True(t, rt.ThemeBlocked)
	assert.Equal(t, theme.FxHigh, rt.FxQuality)
}

func TestResolve_UnsortedAllowListFallsBackToMinimum(t *testing.T) {
	cfg := Config{EnabledThemes: []theme.ThemeID{theme.Cyberpunk, theme.Chibi}, MaxFxQuality: theme.FxHigh}

	rt := ResolveThemeRolloutRuntime(Request{ThemeID: "royal", FxQuality: theme.FxHigh}, cfg)

	assert.Equal(t, theme.Chibi, rt.ThemeID)
	assert.True(t, rt.ThemeBlocked)
	assert.Equal(t, []theme.ThemeID{theme.Cyberpunk, theme.Chibi}, cfg.EnabledThemes, "config is not reordered")
}

func TestResolve_AllowedThemePasses(t *testing.T) {
	cfg := ParseConfig(RawFlags{EnabledThemes: "chibi,cyberpunk"})

	rt := ResolveThemeRolloutRuntime(Request{ThemeID: "cyberpunk", FxQuality: theme.FxMedium}, cfg)

	assert.Equal(t, theme.Cyberpunk, rt.ThemeID)
	assert.False(t, rt.ThemeBlocked)
}

func TestResolve_UnknownThemeWithAllowList(t *testing.T) {
	cfg := ParseConfig(RawFlags{EnabledThemes: "royal"})

	rt := ResolveThemeRolloutRuntime(Request{ThemeID: "vaporwave"}, cfg)

	assert.Equal(t, theme.Royal, rt.ThemeID)
	assert.True(t, rt.ThemeBlocked)
}

func TestResolve_EmptyAllowListFallsBackToDefault(t *testing.T) {
	cfg := ParseConfig(RawFlags{EnabledThemes: ",,,"})
	assert.Empty(t, cfg.EnabledThemes)

	rt := ResolveThemeRolloutRuntime(Request{ThemeID: "not-a-theme", FxQuality: theme.FxLow}, cfg)
	assert.Equal(t, theme.DefaultTheme, rt.ThemeID)
	assert.False(t, rt.ThemeBlocked)

	rt = ResolveThemeRolloutRuntime(Request{ThemeID: "steampunk", FxQuality: theme.FxLow}, cfg)
	assert.Equal(t, theme.Steampunk, rt.ThemeID, "an empty allow-list is unrestricted")
}

func TestResolve_QualityCapAndKillSwitch(t *testing.T) {
	cfg := ParseConfig(RawFlags{MaxFxQuality: "1", BaselineFxOnly: "true"})

	rt := ResolveThemeRolloutRuntime(Request{ThemeID: "royal", FxQuality: theme.FxHigh}, cfg)
	assert.Equal(t, theme.FxLow, rt.FxQuality)
	assert.True(t, rt.BaselineFxOnly)

	rt = ResolveThemeRolloutRuntime(Request{ThemeID: "royal", FxQuality: theme.FxOff}, cfg)
	assert.Equal(t, theme.FxOff, rt.FxQuality, "cap never raises quality")
}

func TestResolve_MembershipInvariant(t *testing.T) {
	lists := []string{"chibi", "royal,steampunk", "cyberpunk,minimalistic,post-apocalyptic"}
	requests := append([]string{"", "bogus"}, themeStrings()...)

	for _, list := range lists {
		cfg := ParseConfig(RawFlags{EnabledThemes: list})
		for _, req := range requests {
			rt := ResolveThemeRolloutRuntime(Request{ThemeID: req, FxQuality: theme.FxHigh}, cfg)
			assert.Contains(t, cfg.EnabledThemes, rt.ThemeID, "list=%q req=%q", list, req)
		}
	}
}

func TestFlagsFromMap(t *testing.T) {
	raw := FlagsFromMap(map[string]string{
		KeyEnabledThemes:  "royal",
		KeyMaxFxQuality:   "2",
		KeyBaselineFxOnly: "on",
		"unrelated":       "x",
	})
	assert.Equal(t, RawFlags{EnabledThemes: "royal", MaxFxQuality: "2", BaselineFxOnly: "on"}, raw)
}

func themeStrings() []string {
	var out []string
	for _, id := range theme.All() {
		out = append(out, string(id))
	}
	return out
}
