//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// the browser's renderer and GPU helpers down with it.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort: the process may already be gone.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
