package render

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Built-in markdown themes
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyonight"
	ThemeCatppuccin = "catppuccin"
	ThemeDracula    = "dracula"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// builtinStyles maps theme names to glamour style configs
var builtinStyles = map[string]ansi.StyleConfig{
	ThemeDark:       styles.DarkStyleConfig,
	ThemeLight:      styles.LightStyleConfig,
	ThemeTokyoNight: styles.TokyoNightStyleConfig,
	ThemeCatppuccin: catppuccinStyle(),
	ThemeDracula:    styles.DraculaStyleConfig,
	ThemeNoTTY:      styles.NoTTYStyleConfig,
	ThemeASCII:      styles.ASCIIStyleConfig,
}

// IsBuiltinStyle reports whether style names a built-in theme
func IsBuiltinStyle(style string) bool {
	_, ok := builtinStyles[style]
	return ok
}

// styleOption resolves a theme name; anything else is treated as a glamour
// style name or a path to a JSON style file.
func styleOption(style string) glamour.TermRendererOption {
	if cfg, ok := builtinStyles[style]; ok {
		return glamour.WithStyles(cfg)
	}
	return glamour.WithStylePath(style)
}

// catppuccinStyle derives a Catppuccin Mocha palette from the dark style
func catppuccinStyle() ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	cfg.Document.Color = strPtr("#cdd6f4")
	cfg.Heading.Color = strPtr("#89b4fa")
	cfg.H1.Color = strPtr("#1e1e2e")
	cfg.H1.BackgroundColor = strPtr("#89b4fa")
	cfg.Link.Color = strPtr("#f5c2e7")
	cfg.LinkText.Color = strPtr("#cba6f7")
	cfg.Code.Color = strPtr("#fab387")
	cfg.Code.BackgroundColor = strPtr("#313244")
	cfg.BlockQuote.Color = strPtr("#a6adc8")
	return cfg
}

func strPtr(s string) *string {
	return &s
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the built-in markdown themes
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeCatppuccin, Description: "Catppuccin Mocha color scheme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
