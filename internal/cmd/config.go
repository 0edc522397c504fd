package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View lichlaunch configuration",
	Long: `View lichlaunch configuration.

Without arguments, displays the current configuration.
Use subcommands to locate or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	Long:  `Create a starter config file at ~/.config/lichlaunch/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	path := viper.ConfigFileUsed()
	if path == "" || configReadErr != nil {
		fmt.Fprintln(out, "Config file: (none)")
		fmt.Fprintln(out, "Run 'lichlaunch config init' to create one.")
		return nil
	}
	fmt.Fprintf(out, "Config file: %s\n\n", path)

	roster, err := config.LoadRoster(path)
	if err != nil {
		return &config.LoadError{Path: path, Err: err}
	}
	writeRoster(out, roster)

	settings := viper.AllSettings()
	delete(settings, "accounts")
	delete(settings, "config")
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to format settings: %w", err)
	}
	fmt.Fprint(out, string(data))

	// Report problems after showing what was read.
	if _, err := config.Load(); err != nil {
		fmt.Fprintln(out)
		return err
	}
	return nil
}

// writeRoster prints the roster in file order, which a YAML map would lose.
func writeRoster(w io.Writer, roster config.Roster) {
	fmt.Fprintln(w, "accounts:")
	if len(roster) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, a := range roster {
		fmt.Fprintf(w, "  %s: [%s]\n", a.Name, strings.Join(a.Characters, ", "))
	}
}

// configTemplate is written by 'config init'.
const configTemplate = `# lichlaunch configuration

# Characters, grouped by account. Order here is the order in the menu.
accounts:
  MAIN: [Thorin, Balin]
  ALT:
    - Gimli

paths:
  # Lich backend script, started with --login <character>
  lich_bin: ~/lich/lich.rbw
  # Profanity frontend script, attached with --port/--char
  profanity_bin: ~/profanity/bin/profanity.rb
  # Interpreter for both scripts; empty runs them directly
  interpreter: ruby
  # Lock file, backend output and launcher.log (empty: $XDG_STATE_HOME/lichlaunch)
  state_dir: ""

launch:
  # First detachable-client port when no backend is running
  base_port: 8000
  # Minimum wait between starting a backend and the first attach
  settle_delay_ms: 4000
  # Longest wait for a new backend to show up (0 disables the wait)
  ready_timeout_ms: 30000
  ready_poll_interval_ms: 500
  # Also require the port to accept a TCP connection
  ready_probe: true
  # Frontend attach attempts, and the wait between them
  attach_attempts: 10
  attach_backoff_ms: 3000
  # Serialize port allocation across concurrent lichlaunch runs
  lock: true
  # Set for the backend and frontend when missing from the environment
  term: screen-256color
  display: ":0"

inspector:
  # Timeout for one process-table query
  timeout_ms: 5000

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	if err := writeConfigTemplate(configFile, configInitForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit the accounts and paths, then run 'lichlaunch'.")
	return nil
}

func writeConfigTemplate(path string, force bool) error {
	// Check if config file already exists
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" && configReadErr == nil {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", config.ConfigFile())
	fmt.Fprintf(out, "  2. $HOME/.config/lichlaunch/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: LICHLAUNCH_* (e.g., LICHLAUNCH_LAUNCH_BASE_PORT)")
	fmt.Fprintf(out, "State directory: %s\n", config.StateDir())

	return nil
}
