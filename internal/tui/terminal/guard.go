// Package terminal saves and restores the controlling terminal around the
// frontend, which puts the tty in raw mode and may exit without undoing it.
package terminal

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// Guard holds the terminal state captured by Save.
type Guard struct {
	fd    int
	state *term.State
	once  sync.Once
	err   error
}

// Save captures the state of fd. When fd is not a terminal the returned
// Guard does nothing.
func Save(fd int) (*Guard, error) {
	if !term.IsTerminal(fd) {
		return &Guard{fd: fd}, nil
	}
	state, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("save terminal state: %w", err)
	}
	return &Guard{fd: fd, state: state}, nil
}

// SaveStdin captures the state of standard input.
func SaveStdin() (*Guard, error) {
	return Save(int(os.Stdin.Fd()))
}

// Active reports whether the guard holds a terminal state to restore.
func (g *Guard) Active() bool {
	return g != nil && g.state != nil
}

// Restore puts the terminal back the way Save found it. Only the first call
// touches the terminal; later calls return the first result.
func (g *Guard) Restore() error {
	if !g.Active() {
		return nil
	}
	g.once.Do(func() {
		if err := term.Restore(g.fd, g.state); err != nil {
			g.err = fmt.Errorf("restore terminal state: %w", err)
		}
	})
	return g.err
}
