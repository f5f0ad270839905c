package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "timers.producer_period")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the built-in theme names
func ValidThemes() []string {
	return []string{"default", "mono"}
}

// minRefreshInterval keeps interval polling from starving the render loop.
const minRefreshInterval = 10 * time.Millisecond

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateTimers()...)
	errors = append(errors, c.validateRefresh()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateTimers() []ValidationError {
	var errors []ValidationError

	if c.Timers.ProducerPeriod <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timers.producer_period",
			Value:   c.Timers.ProducerPeriod,
			Message: "must be positive",
		})
	}
	if c.Timers.ConsumerPeriod <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timers.consumer_period",
			Value:   c.Timers.ConsumerPeriod,
			Message: "must be positive",
		})
	}
	if c.Timers.JitterFactor < 0 || c.Timers.JitterFactor >= 1 {
		errors = append(errors, ValidationError{
			Field:   "timers.jitter_factor",
			Value:   c.Timers.JitterFactor,
			Message: "must be in [0, 1)",
		})
	}
	if c.Timers.Max < 0 {
		errors = append(errors, ValidationError{
			Field:   "timers.max",
			Value:   c.Timers.Max,
			Message: "must be non-negative (0 = unbounded)",
		})
	}

	return errors
}

func (c *Config) validateRefresh() []ValidationError {
	var errors []ValidationError

	if c.Refresh.SwitchThreshold < 0 {
		errors = append(errors, ValidationError{
			Field:   "refresh.switch_threshold",
			Value:   c.Refresh.SwitchThreshold,
			Message: "must be non-negative",
		})
	}
	if c.Refresh.Interval < minRefreshInterval {
		errors = append(errors, ValidationError{
			Field:   "refresh.interval",
			Value:   c.Refresh.Interval,
			Message: fmt.Sprintf("must be at least %s", minRefreshInterval),
		})
	}
	if c.Refresh.Jitter < 0 {
		errors = append(errors, ValidationError{
			Field:   "refresh.jitter",
			Value:   c.Refresh.Jitter,
			Message: "must be non-negative",
		})
	} else if c.Refresh.Interval > 0 && c.Refresh.Jitter >= c.Refresh.Interval {
		errors = append(errors, ValidationError{
			Field:   "refresh.jitter",
			Value:   c.Refresh.Jitter,
			Message: "must be shorter than refresh.interval",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.ThemeFile == "" && !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes(), ", ")),
		})
	}
	if c.TUI.MaxRows <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.max_rows",
			Value:   c.TUI.MaxRows,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
