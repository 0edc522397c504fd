package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/Iron-Ham/lichlaunch/internal/logging"
	"github.com/Iron-Ham/lichlaunch/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View launcher logs",
	Long: `View and filter the launcher log.

Every launch writes JSON lines to launcher.log in the state directory.
Use flags to filter and format the output.

Examples:
  # Show the last 50 entries
  lichlaunch logs

  # Everything about one character
  lichlaunch logs --character thorin -n 0

  # Follow logs in real-time
  lichlaunch logs -f

  # Filter by log level
  lichlaunch logs --level warn

  # Show logs from the last hour
  lichlaunch logs --since 1h

  # Search for specific patterns
  lichlaunch logs --grep "attach|spawn"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail      int
	logsFollow    bool
	logsLevel     levelValue
	logsSince     string
	logsGrep      string
	logsCharacter string
	logsLaunchID  string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().Var(&logsLevel, "level", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsCharacter, "character", "", "Only entries about this character")
	logsCmd.Flags().StringVar(&logsLaunchID, "launch", "", "Only entries of one launch ID")
}

// levelValue implements pflag.Value for --level, rejecting unknown levels
// at parse time.
type levelValue string

var _ pflag.Value = (*levelValue)(nil)

func (v *levelValue) String() string { return string(*v) }

func (v *levelValue) Set(s string) error {
	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(s)) {
		return fmt.Errorf("must be one of: debug, info, warn, error")
	}
	*v = levelValue(strings.ToLower(s))
	return nil
}

func (v *levelValue) Type() string { return "level" }

var (
	logTimeStyle = lipgloss.NewStyle().Foreground(styles.MutedColor)
	logKeyStyle  = lipgloss.NewStyle().Foreground(styles.PrimaryColor)
)

// levelStyle returns the style for a log level
func levelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return styles.Muted
	case logging.LevelInfo:
		return styles.Primary
	case logging.LevelWarn:
		return styles.Warning
	case logging.LevelError:
		return styles.Error
	default:
		return lipgloss.NewStyle()
	}
}

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(e logging.Entry) string {
	var sb strings.Builder

	sb.WriteString(logTimeStyle.Render("[" + e.Time.Local().Format("2006-01-02 15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(levelStyle(e.Level).Render("[" + strings.ToUpper(e.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(e.Message)

	if e.Character != "" {
		sb.WriteString(" ")
		sb.WriteString(logKeyStyle.Render(logging.KeyCharacter + "="))
		sb.WriteString(e.Character)
	}
	if e.LaunchID != "" {
		sb.WriteString(" ")
		sb.WriteString(logKeyStyle.Render(logging.KeyLaunchID + "="))
		sb.WriteString(e.LaunchID)
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(logKeyStyle.Render(k + "="))
		sb.WriteString(fmt.Sprintf("%v", e.Attrs[k]))
	}

	return sb.String()
}

// buildLogFilter turns the command-line flags into a logging.Filter.
func buildLogFilter(level, since, grep, character, launchID string, now time.Time) (logging.Filter, error) {
	f := logging.Filter{
		Character: character,
		LaunchID:  launchID,
	}
	if level != "" {
		f.MinLevel = logging.ParseLevel(level)
	}
	if since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return f, fmt.Errorf("invalid duration format: %w", err)
		}
		f.Since = now.Add(-d)
	}
	if grep != "" {
		re, err := regexp.Compile(grep)
		if err != nil {
			return f, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.Pattern = re
	}
	return f, nil
}

// logPath locates launcher.log. The log is still readable when the config
// is broken, so a config error falls back to the default state directory.
func logPath() string {
	cfg, err := loadConfig()
	if err != nil {
		return filepath.Join(config.StateDir(), logging.FileName)
	}
	return filepath.Join(cfg.Paths.ResolveStateDir(), logging.FileName)
}

func runLogs(cmd *cobra.Command, args []string) error {
	filter, err := buildLogFilter(string(logsLevel), logsSince, logsGrep, logsCharacter, logsLaunchID, time.Now())
	if err != nil {
		return err
	}

	path := logPath()
	out := cmd.OutOrStdout()

	if logsFollow {
		fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", path)
		return logging.Follow(cmd.Context(), path, filter, func(e logging.Entry) {
			fmt.Fprintln(out, formatLogEntry(e))
		})
	}

	return displayLogs(out, path, filter, logsTail)
}

// displayLogs reads the log file and displays filtered entries
func displayLogs(out io.Writer, path string, filter logging.Filter, tail int) error {
	entries, err := logging.ReadFile(path, filter, tail)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "No logs found.")
			fmt.Fprintln(out, "Logs are stored at:", path)
			return nil
		}
		return fmt.Errorf("failed to read log file: %w", err)
	}

	for _, e := range entries {
		fmt.Fprintln(out, formatLogEntry(e))
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}
	return nil
}
