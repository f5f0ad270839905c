package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/prodcon/internal/config"
	"github.com/Iron-Ham/prodcon/internal/logging"
)

// createLogger builds the logger for a command. verbose sends debug output
// to stderr; otherwise the rotating log file is used when enabled.
// A logger that cannot be opened is reported and replaced by a NopLogger.
func createLogger(cfg *config.Config, verbose bool, stderr io.Writer) *logging.Logger {
	if verbose {
		return logging.NewWriterLogger(stderr, logging.LevelDebug)
	}
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	rot := logging.Rotation{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	}
	logger, err := logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level, rot)
	if err != nil {
		// Log creation failure shouldn't prevent the application from starting
		fmt.Fprintf(stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}
