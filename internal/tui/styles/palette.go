package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault ThemeName = "default" // Purple/green dark theme
	ThemeMono    ThemeName = "mono"    // Grayscale, for terminals with poor color support
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{
		string(ThemeDefault),
		string(ThemeMono),
	}
}

// IsBuiltinTheme checks if a theme name is a built-in theme.
func IsBuiltinTheme(name string) bool {
	return slices.Contains(BuiltinThemes(), name)
}

// ColorPalette defines the color scheme for a theme.
type ColorPalette struct {
	// Name is the theme name shown in the footer
	Name string
	// Primary accent color (title, active mode)
	Primary lipgloss.Color
	// Secondary accent color (help keys)
	Secondary lipgloss.Color
	// Warning color (interval-polled mode badge)
	Warning lipgloss.Color
	// Error color (rejected registrations)
	Error lipgloss.Color
	// Muted color (de-emphasized text)
	Muted lipgloss.Color
	// Surface color (status bar background)
	Surface lipgloss.Color
	// Text color (main content)
	Text lipgloss.Color
	// Border color (rules and frames)
	Border lipgloss.Color

	// Producer colors producer counts and the growing edge of the list
	Producer lipgloss.Color
	// Consumer colors consumer counts
	Consumer lipgloss.Color
	// Flash highlights rows briefly after the count changes
	Flash lipgloss.Color
}

// DefaultPalette returns the default purple/green dark palette.
func DefaultPalette() *ColorPalette {
	return &ColorPalette{
		Name:      string(ThemeDefault),
		Primary:   lipgloss.Color("#A78BFA"), // violet-400
		Secondary: lipgloss.Color("#10B981"), // green
		Warning:   lipgloss.Color("#F59E0B"), // amber
		Error:     lipgloss.Color("#F87171"), // red-400
		Muted:     lipgloss.Color("#9CA3AF"), // gray
		Surface:   lipgloss.Color("#1F2937"), // dark surface
		Text:      lipgloss.Color("#F9FAFB"), // light text
		Border:    lipgloss.Color("#6B7280"), // gray-500
		Producer:  lipgloss.Color("#10B981"),
		Consumer:  lipgloss.Color("#60A5FA"), // blue
		Flash:     lipgloss.Color("#FBBF24"), // yellow
	}
}

// MonoPalette returns a grayscale palette.
func MonoPalette() *ColorPalette {
	return &ColorPalette{
		Name:      string(ThemeMono),
		Primary:   lipgloss.Color("#FFFFFF"),
		Secondary: lipgloss.Color("#D4D4D4"),
		Warning:   lipgloss.Color("#E5E5E5"),
		Error:     lipgloss.Color("#FFFFFF"),
		Muted:     lipgloss.Color("#A3A3A3"),
		Surface:   lipgloss.Color("#262626"),
		Text:      lipgloss.Color("#F5F5F5"),
		Border:    lipgloss.Color("#737373"),
		Producer:  lipgloss.Color("#F5F5F5"),
		Consumer:  lipgloss.Color("#A3A3A3"),
		Flash:     lipgloss.Color("#FFFFFF"),
	}
}

// GetPalette returns the palette for a built-in theme, or the default
// palette for unknown names.
func GetPalette(name ThemeName) *ColorPalette {
	switch name {
	case ThemeMono:
		return MonoPalette()
	default:
		return DefaultPalette()
	}
}
