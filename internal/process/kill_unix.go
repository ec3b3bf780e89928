//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the whole process group of pid, so the
// browser's renderer and GPU helpers die with it.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort: the launcher kill runs afterwards regardless.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
