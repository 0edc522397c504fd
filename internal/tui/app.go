// Package tui implements the interactive character selector.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/Iron-Ham/lichlaunch/internal/logging"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the selector until the user picks a character or quits. It
// returns the roster spelling of the chosen character, or "" when the user
// quit without choosing. Cancelling ctx closes the selector and returns
// ctx.Err().
func Run(ctx context.Context, roster config.Roster, source StatusSource, logger *logging.Logger) (string, error) {
	model := NewModel(ctx, roster, source, logger)

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("selector: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return "", nil
	}
	return m.Selected(), nil
}
