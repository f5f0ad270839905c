// Package tui is the terminal presentation shell. It turns key presses
// into timer registrations and render frames into redraws of the row list.
package tui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/prodcon/internal/config"
	"github.com/Iron-Ham/prodcon/internal/engine"
	"github.com/Iron-Ham/prodcon/internal/logging"
	"github.com/Iron-Ham/prodcon/internal/render"
	"github.com/Iron-Ham/prodcon/internal/tui/styles"
)

// App wraps the Bubbletea program and the engine it drives.
type App struct {
	cfg       *config.Config
	logger    *logging.Logger
	producers int
	consumers int
}

// New creates a new TUI application that starts with the given number of
// producer and consumer timers.
func New(cfg *config.Config, logger *logging.Logger, producers, consumers int) *App {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &App{
		cfg:       cfg,
		logger:    logger.WithComponent("tui"),
		producers: producers,
		consumers: consumers,
	}
}

// Run starts the TUI application and blocks until the user quits or the
// process is signalled.
func (a *App) Run() error {
	palette, err := styles.Resolve(a.cfg.TUI.Theme, a.cfg.TUI.ThemeFile)
	if err != nil {
		return fmt.Errorf("loading theme: %w", err)
	}

	var program *tea.Program
	loop := render.NewLoop(func(f render.Frame) {
		program.Send(renderMsg{frame: f})
	})

	opts := engine.OptionsFromConfig(a.cfg)
	opts.Logger = a.logger
	eng := engine.New(loop, opts)
	defer eng.Close()

	if err := seed(eng, a.producers, a.consumers); err != nil {
		return err
	}

	model := NewModel(eng, styles.New(palette), a.cfg.TUI.MaxRows)
	program = tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	var wg conc.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Go(func() { _ = loop.Run(ctx) })

	if a.cfg.TUI.ThemeFile != "" {
		watcher, err := styles.NewThemeWatcher(a.cfg.TUI.ThemeFile, func(p *styles.ColorPalette, err error) {
			if err != nil {
				a.logger.Warn("theme reload failed", "file", a.cfg.TUI.ThemeFile, "error", err.Error())
			}
			program.Send(themeMsg{palette: p, err: err})
		})
		if err != nil {
			a.logger.Warn("theme file not watched", "file", a.cfg.TUI.ThemeFile, "error", err.Error())
		} else {
			wg.Go(func() { _ = watcher.Run(ctx) })
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)
	wg.Go(func() {
		select {
		case <-sigChan:
			program.Send(tea.Quit())
		case <-ctx.Done():
		}
	})

	a.logger.Info("tui started", "producers", a.producers, "consumers", a.consumers)
	_, err = program.Run()

	snap := eng.Snapshot()
	a.logger.Info("tui stopped",
		"count", snap.Count,
		"timers", snap.Timers,
		"mode", snap.Mode.String(),
		"frames", loop.Drawn())
	return err
}

// seed registers the initial timers.
func seed(eng *engine.Engine, producers, consumers int) error {
	for range producers {
		if err := eng.AddProducer(); err != nil {
			return err
		}
	}
	for range consumers {
		if err := eng.AddConsumer(); err != nil {
			return err
		}
	}
	return nil
}
