package tui

import (
	"github.com/Iron-Ham/prodcon/internal/render"
	"github.com/Iron-Ham/prodcon/internal/tui/styles"
)

// renderMsg asks the model to re-read the engine and redraw. It is the
// bubbletea side of a render.Frame.
type renderMsg struct {
	frame render.Frame
}

// flashDoneMsg ends the highlight started by the render with the same seq.
type flashDoneMsg struct {
	seq int
}

// themeMsg carries a reloaded theme file, or the error that stopped it
// from loading.
type themeMsg struct {
	palette *styles.ColorPalette
	err     error
}
