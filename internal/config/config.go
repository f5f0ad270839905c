package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete prodcon configuration
type Config struct {
	Timers  TimersConfig  `mapstructure:"timers" yaml:"timers"`
	Refresh RefreshConfig `mapstructure:"refresh" yaml:"refresh"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// TimersConfig controls producer and consumer timers
type TimersConfig struct {
	// ProducerPeriod is the time between producer firings (default: 3s)
	ProducerPeriod time.Duration `mapstructure:"producer_period" yaml:"producer_period"`
	// ConsumerPeriod is the time between consumer firings (default: 4s)
	ConsumerPeriod time.Duration `mapstructure:"consumer_period" yaml:"consumer_period"`
	// JitterFactor is the share of the period a firing may run late (default: 0.1)
	JitterFactor float64 `mapstructure:"jitter_factor" yaml:"jitter_factor"`
	// Max caps the number of timers that can be registered (default: 0 = unbounded).
	// Timers are never removed, so an unbounded run leaks one timer per click.
	Max int `mapstructure:"max" yaml:"max"`
}

// RefreshConfig controls when the display is redrawn
type RefreshConfig struct {
	// SwitchThreshold is the timer count above which rendering switches
	// from per-mutation to interval polling (default: 100)
	SwitchThreshold int `mapstructure:"switch_threshold" yaml:"switch_threshold"`
	// Interval is the interval-polling period (default: 100ms)
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// Jitter is how late an interval poll may run (default: 10ms)
	Jitter time.Duration `mapstructure:"jitter" yaml:"jitter"`
}

// TUIConfig controls the terminal UI
type TUIConfig struct {
	// Theme is a built-in theme name: "default" or "mono"
	Theme string `mapstructure:"theme" yaml:"theme"`
	// ThemeFile is a YAML theme that overrides Theme and is reloaded on change
	ThemeFile string `mapstructure:"theme_file" yaml:"theme_file"`
	// MaxRows is how many rows are drawn before the rest are summarised (default: 500)
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logs are written at all (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the log directory (default: <config dir>/logs)
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated backups (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// ProducerJitter returns the jitter bound for producer timers.
func (c *TimersConfig) ProducerJitter() time.Duration {
	return scale(c.ProducerPeriod, c.JitterFactor)
}

// ConsumerJitter returns the jitter bound for consumer timers.
func (c *TimersConfig) ConsumerJitter() time.Duration {
	return scale(c.ConsumerPeriod, c.JitterFactor)
}

func scale(d time.Duration, f float64) time.Duration {
	if f <= 0 {
		return 0
	}
	return time.Duration(float64(d) * f)
}

// ResolveDir returns the log directory, falling back to <config dir>/logs.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Timers: TimersConfig{
			ProducerPeriod: 3 * time.Second,
			ConsumerPeriod: 4 * time.Second,
			JitterFactor:   0.1,
			Max:            0,
		},
		Refresh: RefreshConfig{
			SwitchThreshold: 100,
			Interval:        100 * time.Millisecond,
			Jitter:          10 * time.Millisecond,
		},
		TUI: TUIConfig{
			Theme:   "default",
			MaxRows: 500,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers Default() with viper so every key resolves even
// without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("timers.producer_period", defaults.Timers.ProducerPeriod)
	viper.SetDefault("timers.consumer_period", defaults.Timers.ConsumerPeriod)
	viper.SetDefault("timers.jitter_factor", defaults.Timers.JitterFactor)
	viper.SetDefault("timers.max", defaults.Timers.Max)

	viper.SetDefault("refresh.switch_threshold", defaults.Refresh.SwitchThreshold)
	viper.SetDefault("refresh.interval", defaults.Refresh.Interval)
	viper.SetDefault("refresh.jitter", defaults.Refresh.Jitter)

	viper.SetDefault("tui.theme", defaults.TUI.Theme)
	viper.SetDefault("tui.theme_file", defaults.TUI.ThemeFile)
	viper.SetDefault("tui.max_rows", defaults.TUI.MaxRows)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to Default() when
// the loaded values cannot be decoded or fail validation.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prodcon")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prodcon"
	}
	return filepath.Join(home, ".config", "prodcon")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
