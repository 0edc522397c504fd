//go:build unix

package process

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/lichlaunch/internal/testutil"
)

func TestExecSpawner_StartDetached(t *testing.T) {
	testutil.SkipIfNoShell(t)

	logPath := filepath.Join(t.TempDir(), "logs", "backend-thorin.log")
	s := ExecSpawner{}

	pid, err := s.Start(Command{
		Name:    "/bin/sh",
		Args:    []string{"-c", `echo "started $LICH_TEST"`},
		Env:     []string{"LICH_TEST=ok"},
		LogPath: logPath,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want > 0", pid)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		data, _ := os.ReadFile(logPath)
		if strings.Contains(string(data), "started ok") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("backend output never reached %s (got %q)", logPath, data)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestExecSpawner_StartMissingBinary(t *testing.T) {
	_, err := ExecSpawner{}.Start(Command{Name: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("Start() should fail for a missing binary")
	}
}

func TestExecSpawner_Run(t *testing.T) {
	testutil.SkipIfNoShell(t)

	var out bytes.Buffer
	s := ExecSpawner{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &out}

	if err := s.Run(Command{Name: "/bin/sh", Args: []string{"-c", "echo attached"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "attached" {
		t.Errorf("output = %q, want attached", out.String())
	}

	err := s.Run(Command{Name: "/bin/sh", Args: []string{"-c", "exit 3"}})
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("Run() error = %v, want exit status 3", err)
	}
}

func TestExecSpawner_EmptyCommand(t *testing.T) {
	if _, err := (ExecSpawner{}).Start(Command{}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("Start() error = %v, want ErrEmptyCommand", err)
	}
	if err := (ExecSpawner{}).Run(Command{}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("Run() error = %v, want ErrEmptyCommand", err)
	}
}

func TestCommand_String(t *testing.T) {
	c := Command{Name: "ruby", Args: []string{"lich.rbw", "--login", "Thorin"}}
	if got := c.String(); got != "ruby lich.rbw --login Thorin" {
		t.Errorf("String() = %q", got)
	}
}
