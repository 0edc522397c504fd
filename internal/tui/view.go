package tui

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/lichlaunch/internal/tui/styles"
	"github.com/Iron-Ham/lichlaunch/internal/util"
	"github.com/charmbracelet/lipgloss"
)

const (
	columnGap = 2
	// cellPadding is the horizontal padding of styles.Cell.
	cellPadding = 2
	// chromeHeight covers the title block, the banner line and the help bar.
	chromeHeight = 7
)

// View renders the selector.
func (m Model) View() string {
	if m.quitting || m.selected != "" {
		return ""
	}

	needW, needH := m.minSize()
	if m.width > 0 && (m.width < needW || m.height < needH) {
		return m.resizeHint(needW, needH)
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render("lichlaunch"))
	b.WriteString("\n")
	b.WriteString(m.renderSubtitle())
	b.WriteString("\n\n")

	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderGrid())
	b.WriteString("\n")

	b.WriteString(styles.HelpBar.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderSubtitle() string {
	if m.refreshing {
		return styles.Subtitle.Render("Checking running sessions...")
	}
	if m.statuses == nil {
		return styles.Subtitle.Render("Select a character to launch")
	}
	online := 0
	for _, st := range m.statuses {
		if st.Online {
			online++
		}
	}
	return styles.Subtitle.Render(fmt.Sprintf("Select a character to launch (%d online)", online))
}

// renderBanner reports a failed status query. Characters are then shown
// without online state rather than as offline.
func (m Model) renderBanner() string {
	if m.statusErr == nil {
		return ""
	}
	text := "status unknown: " + m.statusErr.Error() + " (r to retry)"
	if m.width > 0 {
		// Account for the banner's horizontal padding.
		text = util.TruncateANSI(text, m.width-2)
	}
	return styles.WarningBanner.Render(text)
}

// cellText is the unstyled content of one character cell.
func (m Model) cellText(name string) string {
	state, port := m.state(name)
	text := styles.StatusIcon(state) + " " + name
	if state == styles.StateOnline {
		text += fmt.Sprintf(" :%d", port)
	}
	return text
}

// columnWidth is the inner width of column i, without cell padding.
func (m Model) columnWidth(i int) int {
	acct := m.accounts[i]
	w := lipgloss.Width(acct.Name)
	for _, name := range acct.Characters {
		if cw := lipgloss.Width(m.cellText(name)); cw > w {
			w = cw
		}
	}
	return w
}

func (m Model) renderGrid() string {
	if len(m.accounts) == 0 {
		return styles.Muted.Render("No characters configured.")
	}

	columns := make([]string, 0, len(m.accounts)*2)
	for i, acct := range m.accounts {
		if i > 0 {
			columns = append(columns, strings.Repeat(" ", columnGap))
		}
		inner := m.columnWidth(i)

		lines := []string{styles.AccountHeader.Render(util.FitANSI(acct.Name, inner+cellPadding))}
		for j, name := range acct.Characters {
			lines = append(lines, m.renderCell(name, inner, i == m.col && j == m.row))
		}
		columns = append(columns, lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m Model) renderCell(name string, inner int, selected bool) string {
	if selected {
		return styles.CellSelected.Render(util.FitANSI(m.cellText(name), inner))
	}

	state, port := m.state(name)
	text := lipgloss.NewStyle().Foreground(styles.StatusColor(state)).Render(styles.StatusIcon(state) + " " + name)
	if state == styles.StateOnline {
		text += styles.Port.Render(fmt.Sprintf(" :%d", port))
	}
	return styles.Cell.Render(util.FitANSI(text, inner))
}

// minSize is the terminal size needed to show every character.
func (m Model) minSize() (width, height int) {
	rows := 0
	for i, acct := range m.accounts {
		if i > 0 {
			width += columnGap
		}
		width += m.columnWidth(i) + cellPadding
		if len(acct.Characters) > rows {
			rows = len(acct.Characters)
		}
	}
	// Account header plus its underline.
	height = chromeHeight + 2 + rows
	if m.statusErr != nil {
		height += 2
	}
	return width, height
}

func (m Model) resizeHint(needW, needH int) string {
	hint := fmt.Sprintf("Terminal too small: %dx%d, need %dx%d.\nResize the window, or press q to quit.",
		m.width, m.height, needW, needH)
	return styles.ErrorMsg.Width(m.width).Render(hint)
}
