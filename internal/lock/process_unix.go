//go:build !windows

package lock

import (
	"os"
	"syscall"
)

// probeProcess reports on the liveness of pid by sending the null signal.
// os.FindProcess cannot fail on Unix, so the signal is the real check:
// nil means the process is running, ESRCH means it is gone, and EPERM
// means it is running under another user.
func probeProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.Signal(0))
}
