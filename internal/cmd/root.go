// Package cmd holds the prodcon command line.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/prodcon/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "prodcon",
	Short: "Producer/consumer timers over one shared counter",
	Long: `prodcon runs producer and consumer timers against one shared,
never-negative counter and shows the counter as a list of rows.

Press p to add a producer and c to add a consumer. Once more timers are
running than the switch threshold, the display stops redrawing on every
change and polls at a fixed short interval instead.

Running prodcon without a subcommand is the same as 'prodcon start'.`,
	SilenceUsage: true,
	RunE:         runStart,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/prodcon/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	addTimerFlags(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PRODCON")
	// e.g., PRODCON_REFRESH_SWITCH_THRESHOLD for refresh.switch_threshold
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig returns the validated configuration, or every validation
// problem at once.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
