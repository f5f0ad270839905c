package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/refresh"
	"github.com/Iron-Ham/prodcon/internal/tui/styles"
)

// rowGlyph marks each cell in the list.
const rowGlyph = "■"

func lipglossHeight(s string) int {
	if s == "" {
		return 0
	}
	return lipgloss.Height(s)
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.styles.ContentArea.Render(m.view.View()),
		m.footerView(),
	)
}

func (m Model) headerView() string {
	s := m.snap
	st := m.styles

	mode := st.ModeEvent.Render(s.Mode.String())
	if s.Mode == refresh.IntervalPolled {
		mode = st.ModePolled.Render(s.Mode.String())
	}

	count := st.Count.Render(fmt.Sprintf("%d", s.Count))
	if m.flashing {
		count = st.RowFlash.Render(fmt.Sprintf("%d", s.Count))
	}

	line := strings.Join([]string{
		st.Title.Render("prodcon"),
		mode,
		st.Producer.Render(fmt.Sprintf("producers %d", s.Producers)),
		st.Consumer.Render(fmt.Sprintf("consumers %d", s.Consumers)),
		st.Muted.Render(fmt.Sprintf("timers %d/%d", s.Timers, s.Threshold)),
		"count " + count,
	}, "  ")
	return st.Header.Render(line)
}

func (m Model) footerView() string {
	var status string
	switch {
	case m.errorMessage != "":
		status = m.errorStyle().Render(m.errorMessage)
	case m.status != "":
		status = m.styles.Muted.Render(m.status)
	}

	helpView := m.help.View(m.keys)
	if status == "" {
		return helpView
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, helpView)
}

// errorStyle paints rejections that leave the core intact as warnings.
func (m Model) errorStyle() lipgloss.Style {
	if m.errorSeverity == errors.SeverityWarning {
		return m.styles.Warning
	}
	return m.styles.Error
}

// renderRows draws one row per cell, up to maxRows, and summarises the
// rest. When flash is set the newest row is highlighted.
func renderRows(count, maxRows int, flash bool, st styles.Styles) string {
	if count <= 0 {
		return st.Summary.Render("no cells yet; press p to add a producer")
	}

	shown := min(count, maxRows)
	var b strings.Builder
	for i := 1; i <= shown; i++ {
		row := fmt.Sprintf("%s cell %d", rowGlyph, i)
		if flash && i == shown {
			b.WriteString(st.RowFlash.Render(row))
		} else {
			b.WriteString(st.Row.Render(row))
		}
		if i < shown {
			b.WriteByte('\n')
		}
	}
	if count > shown {
		b.WriteByte('\n')
		b.WriteString(st.Summary.Render(fmt.Sprintf("… and %d more", count-shown)))
	}
	return b.String()
}
