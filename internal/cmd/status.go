package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/Iron-Ham/lichlaunch/internal/session"
	"github.com/Iron-Ham/lichlaunch/internal/tui/styles"
	"github.com/Iron-Ham/lichlaunch/internal/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [pattern]",
	Short: "Show which characters have a running backend",
	Long: `Print the roster with the state of each character's backend.

An optional glob pattern limits the rows to matching character names,
case-insensitively.

Examples:
  # Every character
  lichlaunch status

  # Characters starting with "th", plus every bound port
  lichlaunch status 'th*' --ports`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var statusPorts bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusPorts, "ports", false, "Also list every bound detachable-client port")
}

// maxNameWidth bounds the character and account columns.
const maxNameWidth = 24

func runStatus(cmd *cobra.Command, args []string) error {
	var pattern glob.Glob
	if len(args) == 1 {
		g, err := glob.Compile(strings.ToLower(args[0]))
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", args[0], err)
		}
		pattern = g
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	defer func() { _ = logger.Close() }()

	snap, err := newInspector(cfg, logger).Snapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("session status unknown: %w", err)
	}

	if n := renderStatus(cmd.OutOrStdout(), cfg.Accounts, snap, pattern, statusPorts); n == 0 && pattern != nil {
		return fmt.Errorf("no character matches %q", args[0])
	}
	return nil
}

// renderStatus writes the registry table and returns the number of
// characters shown. A nil pattern matches everyone.
func renderStatus(w io.Writer, roster config.Roster, snap *session.Snapshot, pattern glob.Glob, showPorts bool) int {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderColor)).
		Headers("ACCOUNT", "CHARACTER", "STATUS", "PORT", "PID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(styles.PrimaryColor).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	shown, online := 0, 0
	for _, acct := range roster {
		for _, name := range acct.Characters {
			if pattern != nil && !pattern.Match(strings.ToLower(name)) {
				continue
			}
			shown++

			state, port, pid := styles.StateOffline, "-", "-"
			if sess, ok := snap.Lookup(name); ok {
				online++
				state = styles.StateOnline
				port = strconv.Itoa(sess.Port)
				if sess.PID > 0 {
					pid = strconv.Itoa(sess.PID)
				}
			}
			status := lipgloss.NewStyle().Foreground(styles.StatusColor(state)).Render(styles.StatusIcon(state) + " " + state)

			t.Row(
				util.TruncateANSI(acct.Name, maxNameWidth),
				util.TruncateANSI(name, maxNameWidth),
				status,
				port,
				pid,
			)
		}
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d of %d online\n", online, shown)

	for _, name := range snap.DuplicatedCharacters() {
		canonical, _ := snap.Lookup(name)
		var others []string
		for _, s := range snap.Duplicates(name) {
			others = append(others, strconv.Itoa(s.Port))
		}
		fmt.Fprintln(w, styles.Warning.Render(fmt.Sprintf("warning: %s has %d backends; using port %d, also on %s",
			canonical.Character, len(others)+1, canonical.Port, strings.Join(others, ", "))))
	}

	if showPorts {
		ports := snap.ActivePorts().Sorted()
		if len(ports) == 0 {
			fmt.Fprintln(w, "Bound ports: none")
		} else {
			list := make([]string, len(ports))
			for i, p := range ports {
				list[i] = strconv.Itoa(p)
			}
			fmt.Fprintf(w, "Bound ports: %s\n", strings.Join(list, ", "))
		}
	}

	return shown
}
