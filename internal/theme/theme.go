// Package theme defines the closed set of visual themes, the fx quality scale,
// and the motion modes that every other gating package compares against.
package theme

import "strings"

// ThemeID identifies one of the supported visual themes.
type ThemeID string

const (
	Minimalistic    ThemeID = "minimalistic"
	NeoBrutalism    ThemeID = "neo-brutalism"
	Cyberpunk       ThemeID = "cyberpunk"
	Steampunk       ThemeID = "steampunk"
	Royal           ThemeID = "royal"
	Chibi           ThemeID = "chibi"
	PostApocalyptic ThemeID = "post-apocalyptic"
)

// DefaultTheme is used whenever a requested theme cannot be recognised.
const DefaultTheme = Minimalistic

// all is kept in declaration order; callers rely on it for stable output.
var all = []ThemeID{
	Minimalistic,
	NeoBrutalism,
	Cyberpunk,
	Steampunk,
	Royal,
	Chibi,
	PostApocalyptic,
}

// All returns every theme in declaration order.
func All() []ThemeID {
	out := make([]ThemeID, len(all))
	copy(out, all)
	return out
}

// Valid reports whether id is a member of the closed theme set.
func (id ThemeID) Valid() bool {
	for _, t := range all {
		if t == id {
			return true
		}
	}
	return false
}

func (id ThemeID) String() string { return string(id) }

// ParseThemeID normalises raw (trim, lower case, "_" as "-") and reports
// whether the result is a known theme.
func ParseThemeID(raw string) (ThemeID, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "_", "-")
	id := ThemeID(v)
	if !id.Valid() {
		return "", false
	}
	return id, true
}
