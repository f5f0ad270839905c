package config

import "gopkg.in/yaml.v3"

// fileConfig mirrors Config with durations as strings ("3s" rather than
// 3000000000), which is how they are written by hand.
type fileConfig struct {
	Timers struct {
		ProducerPeriod string  `yaml:"producer_period"`
		ConsumerPeriod string  `yaml:"consumer_period"`
		JitterFactor   float64 `yaml:"jitter_factor"`
		Max            int     `yaml:"max"`
	} `yaml:"timers"`
	Refresh struct {
		SwitchThreshold int    `yaml:"switch_threshold"`
		Interval        string `yaml:"interval"`
		Jitter          string `yaml:"jitter"`
	} `yaml:"refresh"`
	TUI     TUIConfig     `yaml:"tui"`
	Logging LoggingConfig `yaml:"logging"`
}

// Marshal renders cfg as YAML that Load reads back unchanged.
func Marshal(cfg *Config) ([]byte, error) {
	var f fileConfig
	f.Timers.ProducerPeriod = cfg.Timers.ProducerPeriod.String()
	f.Timers.ConsumerPeriod = cfg.Timers.ConsumerPeriod.String()
	f.Timers.JitterFactor = cfg.Timers.JitterFactor
	f.Timers.Max = cfg.Timers.Max
	f.Refresh.SwitchThreshold = cfg.Refresh.SwitchThreshold
	f.Refresh.Interval = cfg.Refresh.Interval.String()
	f.Refresh.Jitter = cfg.Refresh.Jitter.String()
	f.TUI = cfg.TUI
	f.Logging = cfg.Logging
	return yaml.Marshal(&f)
}
