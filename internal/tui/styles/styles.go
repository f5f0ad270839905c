// Package styles holds the lipgloss styles of the terminal UI and the
// themes they are built from.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles is the full set of styles for one palette. Values are immutable;
// a theme change builds a new Styles.
type Styles struct {
	Palette *ColorPalette

	Title       lipgloss.Style
	Header      lipgloss.Style
	ModeEvent   lipgloss.Style
	ModePolled  lipgloss.Style
	Producer    lipgloss.Style
	Consumer    lipgloss.Style
	Count       lipgloss.Style
	Row         lipgloss.Style
	RowFlash    lipgloss.Style
	Summary     lipgloss.Style
	Muted       lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
	HelpKey     lipgloss.Style
	HelpDesc    lipgloss.Style
	StatusBar   lipgloss.Style
	ContentArea lipgloss.Style
}

// New builds Styles from p. A nil palette means the default palette.
func New(p *ColorPalette) Styles {
	if p == nil {
		p = DefaultPalette()
	}

	return Styles{
		Palette: p,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border).
			PaddingBottom(0),

		ModeEvent: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary).
			Padding(0, 1),

		ModePolled: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Surface).
			Background(p.Warning).
			Padding(0, 1),

		Producer: lipgloss.NewStyle().Foreground(p.Producer),
		Consumer: lipgloss.NewStyle().Foreground(p.Consumer),

		Count: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text),

		Row: lipgloss.NewStyle().Foreground(p.Text),

		RowFlash: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Flash),

		Summary: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),

		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Error:   lipgloss.NewStyle().Foreground(p.Error),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),

		HelpDesc: lipgloss.NewStyle().Foreground(p.Muted),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),

		ContentArea: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

// Resolve returns the palette for a theme name, or for the theme file when
// one is given.
func Resolve(name, file string) (*ColorPalette, error) {
	if file == "" {
		return GetPalette(ThemeName(name)), nil
	}
	theme, err := LoadThemeFile(file)
	if err != nil {
		return nil, err
	}
	return theme.ToPalette(), nil
}
