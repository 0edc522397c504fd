// Package testutil provides testing utilities for lichlaunch tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WriteScript creates a placeholder script, enough to satisfy the
// lich_bin and profanity_bin existence checks.
func WriteScript(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, "# stub\n")
}

// WriteConfig writes body as dir/config.yaml.
func WriteConfig(t *testing.T, dir, body string) string {
	t.Helper()
	return WriteFile(t, dir, "config.yaml", body)
}

// ValidConfigYAML returns a complete config whose paths point at stub
// scripts created in dir. Extra YAML is appended verbatim.
func ValidConfigYAML(t *testing.T, dir, extra string) string {
	t.Helper()

	lich := WriteScript(t, dir, "lich.rbw")
	profanity := WriteScript(t, dir, "profanity.rb")
	return fmt.Sprintf(`accounts:
  MAIN: [Thorin, Balin]
  ALT: [Gimli]
paths:
  lich_bin: %s
  profanity_bin: %s
  state_dir: %s
%s`, lich, profanity, filepath.Join(dir, "state"), extra)
}

// BackendLine returns a process-table line for a Lich backend, in the
// "pid args" shape ps prints.
func BackendLine(pid int, character string, port int) string {
	return fmt.Sprintf("%6d ruby /opt/lich/lich.rbw --login %s --detachable-client=%d --without-frontend",
		pid, character, port)
}

// SkipIfNoPS skips the test if ps is not installed.
func SkipIfNoPS(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("ps"); err != nil {
		t.Skip("ps not found in PATH, skipping test")
	}
}

// SkipIfNoShell skips the test if /bin/sh is not available.
func SkipIfNoShell(t *testing.T) {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available, skipping test")
	}
}
