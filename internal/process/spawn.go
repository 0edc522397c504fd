package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrEmptyCommand is returned when a Command has no program name.
var ErrEmptyCommand = errors.New("empty command")

// Command describes a child program.
type Command struct {
	// Name is the program to execute, looked up in PATH when it has no
	// separator.
	Name string
	Args []string
	// Env is the complete child environment. Nil inherits the caller's.
	Env []string
	// LogPath receives stdout and stderr of a detached command. Empty
	// discards them.
	LogPath string
}

// String renders the command line for logs.
func (c Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Spawner starts child processes.
type Spawner interface {
	// Start launches cmd detached from the caller's terminal and session and
	// returns its pid without waiting for it. The child outlives the caller.
	Start(cmd Command) (int, error)

	// Run launches cmd attached to the caller's terminal and waits for it to
	// exit. A non-zero exit status is returned as an error. Run does not take
	// a context: the foreground program is never killed on the caller's
	// behalf.
	Run(cmd Command) error
}

// ExecSpawner implements Spawner with os/exec.
type ExecSpawner struct {
	// Stdin, Stdout and Stderr are used by Run (default: the os.Std* files).
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Start implements Spawner.
func (s ExecSpawner) Start(c Command) (int, error) {
	if c.Name == "" {
		return 0, ErrEmptyCommand
	}

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.SysProcAttr = detachedAttr()

	var logFile *os.File
	if c.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
			return 0, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("failed to open backend log: %w", err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	err := cmd.Start()
	// The child holds its own descriptor from here on.
	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	pid := cmd.Process.Pid
	// Reap the child if it exits while we are still running.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

// Run implements Spawner.
func (s ExecSpawner) Run(c Command) error {
	if c.Name == "" {
		return ErrEmptyCommand
	}

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}
