package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/prodcon/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the interactive terminal UI",
	Long: `Start the interactive terminal UI.

Keys:
  p        add a producer timer
  c        add a consumer timer
  ?        toggle help
  q        quit`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

// errNoTerminal is returned when start is run without a terminal.
var errNoTerminal = errors.New("prodcon start needs an interactive terminal; use 'prodcon run' for headless output")

func init() {
	rootCmd.AddCommand(startCmd)
	addTimerFlags(startCmd)
}

// addTimerFlags registers the initial timer counts on cmd.
func addTimerFlags(cmd *cobra.Command) {
	cmd.Flags().Int("producers", 0, "producer timers to start with")
	cmd.Flags().Int("consumers", 0, "consumer timers to start with")
}

// timerFlags reads and checks the flags added by addTimerFlags.
func timerFlags(cmd *cobra.Command) (producers, consumers int, err error) {
	if producers, err = cmd.Flags().GetInt("producers"); err != nil {
		return 0, 0, err
	}
	if consumers, err = cmd.Flags().GetInt("consumers"); err != nil {
		return 0, 0, err
	}
	if producers < 0 || consumers < 0 {
		return 0, 0, fmt.Errorf("--producers and --consumers must be non-negative (got %d, %d)", producers, consumers)
	}
	return producers, consumers, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	producers, consumers, err := timerFlags(cmd)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := createLogger(cfg, false, cmd.ErrOrStderr())
	defer func() { _ = logger.Close() }()

	app := tui.New(cfg, logger, producers, consumers)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
