//go:build unix

package process

import "syscall"

// detachedAttr puts the child in a new session, away from the controlling
// terminal and from signals sent to the caller's process group.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
