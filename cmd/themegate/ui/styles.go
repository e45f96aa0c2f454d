// Package ui provides the terminal styling and live view for themegate.
// Each gated theme gets its own palette so CLI output previews the theme
// it describes.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"themegate/internal/theme"
)

// Semantic colors (same in every palette)
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Palette holds the color scheme for one theme.
type Palette struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

var palettes = map[theme.ThemeID]Palette{
	theme.Minimalistic: {
		Background: "#f4f5f6", Foreground: "#101F38", Primary: "#101F38",
		Accent: "#8BC34A", Muted: "#6b7280", Border: "#dce0e5",
	},
	theme.NeoBrutalism: {
		Background: "#fffbe6", Foreground: "#000000", Primary: "#000000",
		Accent: "#ff5470", Muted: "#4b4b4b", Border: "#000000",
	},
	theme.Cyberpunk: {
		Background: "#0d0221", Foreground: "#f2f2f2", Primary: "#00f0ff",
		Accent: "#ff2a6d", Muted: "#6a5acd", Border: "#261447", IsDark: true,
	},
	theme.Steampunk: {
		Background: "#2b1d0e", Foreground: "#f3e2c7", Primary: "#c8963e",
		Accent: "#b87333", Muted: "#8c7355", Border: "#5c4326", IsDark: true,
	},
	theme.Royal: {
		Background: "#1b1035", Foreground: "#f5f0ff", Primary: "#d4af37",
		Accent: "#7b2cbf", Muted: "#9d8ec4", Border: "#3c2a6b", IsDark: true,
	},
	theme.Chibi: {
		Background: "#fff0f6", Foreground: "#5a2a4a", Primary: "#ff77b7",
		Accent: "#7fd8be", Muted: "#b58aa5", Border: "#ffc2dd",
	},
	theme.PostApocalyptic: {
		Background: "#1f1d1a", Foreground: "#d9cbb0", Primary: "#c2a14d",
		Accent: "#8a9a5b", Muted: "#7a6f5d", Border: "#3d3830", IsDark: true,
	},
}

// PaletteFor returns the palette for id, falling back to the default theme.
func PaletteFor(id theme.ThemeID) Palette {
	if p, ok := palettes[id]; ok {
		return p
	}
	return palettes[theme.DefaultTheme]
}

// Styles holds all the styled components
type Styles struct {
	Palette Palette

	Header lipgloss.Style
	Footer lipgloss.Style
	Title  lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Badge   lipgloss.Style
	Panel   lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles creates a new Styles instance with the given palette
func NewStyles(p Palette) Styles {
	return Styles{
		Palette: p,

		Header: lipgloss.NewStyle().
			Background(p.Primary).
			Foreground(p.Background).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true).
			MarginBottom(1),

		Body: lipgloss.NewStyle().
			Foreground(p.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(p.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(p.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Badge: lipgloss.NewStyle().
			Background(p.Accent).
			Foreground(p.Background).
			Padding(0, 1).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),

		Divider: lipgloss.NewStyle().
			Foreground(p.Border),
	}
}

// StylesFor returns styles using id's palette.
func StylesFor(id theme.ThemeID) Styles {
	return NewStyles(PaletteFor(id))
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", width))
}

// Status renders ok/risk text in the matching semantic color.
func (s Styles) Status(ok bool, text string) string {
	if ok {
		return s.Success.Render(text)
	}
	return s.Error.Render(text)
}
