package styles

import (
	"testing"

	"github.com/Iron-Ham/prodcon/internal/config"
)

func TestBuiltinThemesMatchConfig(t *testing.T) {
	builtin := BuiltinThemes()
	valid := config.ValidThemes()
	if len(builtin) != len(valid) {
		t.Fatalf("BuiltinThemes() = %v, config.ValidThemes() = %v", builtin, valid)
	}
	for _, name := range valid {
		if !IsBuiltinTheme(name) {
			t.Errorf("config accepts theme %q that has no palette", name)
		}
	}
}

func TestIsBuiltinTheme(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"default", true},
		{"mono", true},
		{"Default", false},
		{"dracula", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBuiltinTheme(tt.name); got != tt.want {
				t.Errorf("IsBuiltinTheme(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestGetPalette(t *testing.T) {
	tests := []struct {
		name     ThemeName
		wantName string
	}{
		{ThemeDefault, "default"},
		{ThemeMono, "mono"},
		{"unknown", "default"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			p := GetPalette(tt.name)
			if p == nil {
				t.Fatal("GetPalette() returned nil")
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
		})
	}
}

func TestPalettesAreComplete(t *testing.T) {
	for _, name := range BuiltinThemes() {
		p := GetPalette(ThemeName(name))
		colors := map[string]string{
			"primary":   string(p.Primary),
			"secondary": string(p.Secondary),
			"warning":   string(p.Warning),
			"error":     string(p.Error),
			"muted":     string(p.Muted),
			"surface":   string(p.Surface),
			"text":      string(p.Text),
			"border":    string(p.Border),
			"producer":  string(p.Producer),
			"consumer":  string(p.Consumer),
			"flash":     string(p.Flash),
		}
		for field, c := range colors {
			if !isValidHexColor(c) {
				t.Errorf("%s palette: %s = %q is not a hex color", name, field, c)
			}
		}
	}
}
