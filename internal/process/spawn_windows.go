//go:build windows

package process

import "syscall"

// detachedProcess is the Windows creation flag for a process without a
// console.
const detachedProcess = 0x00000008

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}
}
