// lichlaunch is an interactive launcher for Lich sessions.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/Iron-Ham/lichlaunch/internal/cmd"
	"github.com/Iron-Ham/lichlaunch/internal/tui/terminal"
)

func main() {
	os.Exit(run())
}

// run executes the CLI. A panic anywhere below it restores the terminal
// before the crash is reported.
func run() (code int) {
	guard, _ := terminal.SaveStdin()
	defer func() {
		if r := recover(); r != nil {
			_ = guard.Restore()
			fmt.Fprintf(os.Stderr, "lichlaunch: internal error: %v\n%s", r, debug.Stack())
			code = 2
		}
	}()
	return cmd.Execute()
}
