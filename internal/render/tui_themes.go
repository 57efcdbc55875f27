package render

import (
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/researchcopilot/internal/models"
)

// TUITheme defines the color scheme for the TUI interface
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color

	// Markdown is the matching markdown theme for replies
	Markdown string
}

// RoleColor returns the label color for messages of role
func (t TUITheme) RoleColor(role models.Role) lipgloss.Color {
	switch role {
	case models.RoleUser:
		return t.Primary
	case models.RoleAssistant:
		return t.Secondary
	default:
		return t.Warning
	}
}

var tuiThemes = []TUITheme{
	{
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",
		Background:  "#1a1b26", Surface: "#24283b", Border: "#414868",
		Primary: "#7aa2f7", Secondary: "#9ece6a", Accent: "#bb9af7",
		Warning: "#e0af68", Error: "#f7768e",
		Text: "#c0caf5", TextDim: "#565f89", TextMute: "#3b4261",
		Markdown: ThemeTokyoNight,
	},
	{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - Warm dark theme with pastel colors",
		Background:  "#1e1e2e", Surface: "#313244", Border: "#45475a",
		Primary: "#89b4fa", Secondary: "#a6e3a1", Accent: "#cba6f7",
		Warning: "#f9e2af", Error: "#f38ba8",
		Text: "#cdd6f4", TextDim: "#6c7086", TextMute: "#45475a",
		Markdown: ThemeCatppuccin,
	},
	{
		Name:        "nord",
		Description: "Nord - Arctic-inspired theme with cool tones",
		Background:  "#2e3440", Surface: "#3b4252", Border: "#4c566a",
		Primary: "#88c0d0", Secondary: "#a3be8c", Accent: "#b48ead",
		Warning: "#ebcb8b", Error: "#bf616a",
		Text: "#eceff4", TextDim: "#7b88a1", TextMute: "#4c566a",
		Markdown: ThemeDark,
	},
	{
		Name:        "dracula",
		Description: "Dracula - Dark theme with vibrant colors",
		Background:  "#282a36", Surface: "#44475a", Border: "#6272a4",
		Primary: "#8be9fd", Secondary: "#50fa7b", Accent: "#ff79c6",
		Warning: "#f1fa8c", Error: "#ff5555",
		Text: "#f8f8f2", TextDim: "#6272a4", TextMute: "#44475a",
		Markdown: ThemeDracula,
	},
}

// TokyoNightTheme is the default TUI theme
var TokyoNightTheme = tuiThemes[0]

// GetTUIThemeByName returns a TUI theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	i := slices.IndexFunc(tuiThemes, func(t TUITheme) bool { return t.Name == name })
	if i < 0 {
		return TUITheme{}, false
	}
	return tuiThemes[i], true
}

// ResolveTUITheme returns the named theme or the default
func ResolveTUITheme(name string) TUITheme {
	if theme, ok := GetTUIThemeByName(name); ok {
		return theme
	}
	return TokyoNightTheme
}

// AvailableTUIThemes returns a list of all available TUI themes
func AvailableTUIThemes() []TUITheme {
	return slices.Clone(tuiThemes)
}

// TUIThemeNames returns just the theme names for selection
func TUIThemeNames() []string {
	names := make([]string, len(tuiThemes))
	for i, t := range tuiThemes {
		names[i] = t.Name
	}
	return names
}
