//go:build !unix && !windows

package process

import "syscall"

func detachedAttr() *syscall.SysProcAttr { return nil }
