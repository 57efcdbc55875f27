package render

import (
	"regexp"
	"testing"

	"github.com/diogo/researchcopilot/internal/models"
)

func TestIsBuiltinStyle(t *testing.T) {
	for _, name := range ThemeNames() {
		if !IsBuiltinStyle(name) {
			t.Errorf("%s should be built in", name)
		}
	}
	if IsBuiltinStyle("/tmp/custom.json") {
		t.Error("paths are not built in")
	}
}

func TestCatppuccinStyleLeavesDarkUntouched(t *testing.T) {
	cat := builtinStyles[ThemeCatppuccin]
	dark := builtinStyles[ThemeDark]
	if cat.Document.Color == nil || *cat.Document.Color != "#cdd6f4" {
		t.Errorf("catppuccin document color = %v", cat.Document.Color)
	}
	if dark.Document.Color != nil && *dark.Document.Color == "#cdd6f4" {
		t.Error("deriving catppuccin must not alter the dark style")
	}
}

func TestTUIThemes(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

	for _, theme := range AvailableTUIThemes() {
		t.Run(theme.Name, func(t *testing.T) {
			colors := map[string]string{
				"Background": string(theme.Background),
				"Surface":    string(theme.Surface),
				"Border":     string(theme.Border),
				"Primary":    string(theme.Primary),
				"Secondary":  string(theme.Secondary),
				"Accent":     string(theme.Accent),
				"Warning":    string(theme.Warning),
				"Error":      string(theme.Error),
				"Text":       string(theme.Text),
				"TextDim":    string(theme.TextDim),
				"TextMute":   string(theme.TextMute),
			}
			for field, value := range colors {
				if !hex.MatchString(value) {
					t.Errorf("%s = %q is not a hex color", field, value)
				}
			}
			if !IsBuiltinStyle(theme.Markdown) {
				t.Errorf("markdown theme %q is not built in", theme.Markdown)
			}
			got, ok := GetTUIThemeByName(theme.Name)
			if !ok || got.Name != theme.Name {
				t.Errorf("GetTUIThemeByName(%q) = %v, %v", theme.Name, got.Name, ok)
			}
		})
	}
}

func TestResolveTUITheme(t *testing.T) {
	if ResolveTUITheme("nord").Name != "nord" {
		t.Error("nord should resolve")
	}
	if ResolveTUITheme("unknown").Name != TokyoNightTheme.Name {
		t.Error("unknown names fall back to the default")
	}
	if len(TUIThemeNames()) != len(AvailableTUIThemes()) {
		t.Error("names and themes disagree")
	}
}

func TestRoleColor(t *testing.T) {
	theme := TokyoNightTheme
	if theme.RoleColor(models.RoleUser) != theme.Primary {
		t.Error("user label uses the primary color")
	}
	if theme.RoleColor(models.RoleAssistant) != theme.Secondary {
		t.Error("assistant label uses the secondary color")
	}
	if theme.RoleColor(models.RoleSystem) != theme.Warning {
		t.Error("system label uses the warning color")
	}
}
