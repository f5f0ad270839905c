package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/prodcon/internal/config"
	"github.com/Iron-Ham/prodcon/internal/tui/styles"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View prodcon configuration",
	Long: `View prodcon configuration.

Without arguments, displays the current configuration.
Use subcommands to create a config file or export a theme.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/prodcon/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configThemeCmd = &cobra.Command{
	Use:   "theme [name]",
	Short: "Print a built-in theme as YAML",
	Long: `Print a built-in theme as a YAML theme file.

Save the output, edit the colors and point tui.theme_file at it. The file
is reloaded while the UI is running. Without a name, the configured
tui.theme is printed.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: styles.BuiltinThemes(),
	RunE:      runConfigTheme,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configThemeCmd)
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "Warning: %v\nShowing defaults.\n\n", err)
		cfg = config.Default()
	}

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

const configHeader = `# prodcon configuration
#
# timers.*   producer/consumer periods; jitter bound = period * jitter_factor
# refresh.*  redraw on every change until more than switch_threshold timers
#            are running, then poll every interval
# tui.*      theme is "default" or "mono"; theme_file overrides it
# logging.*  JSON log file with size-based rotation
#
# Every key can be overridden with PRODCON_<SECTION>_<KEY>.

`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("config file already exists at %s\nUse --force to overwrite it", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := config.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}

	if err := os.WriteFile(configFile, append([]byte(configHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Active config: %s\n", used)
		return nil
	}
	fmt.Fprintf(out, "Default config path: %s\n", config.ConfigFile())
	if _, err := os.Stat(config.ConfigFile()); os.IsNotExist(err) {
		fmt.Fprintln(out, "(file does not exist - run 'prodcon config init' to create it)")
	}
	return nil
}

func runConfigTheme(cmd *cobra.Command, args []string) error {
	name := config.Get().TUI.Theme
	if len(args) > 0 {
		name = args[0]
	} else if !styles.IsBuiltinTheme(name) {
		name = string(styles.ThemeDefault)
	}
	if !styles.IsBuiltinTheme(name) {
		return fmt.Errorf("unknown theme %q (built-in: %v)", name, styles.BuiltinThemes())
	}

	data, err := styles.ExportTheme(styles.ThemeName(name))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
