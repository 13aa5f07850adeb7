//go:build !windows

package process

import "syscall"

// KillTree kills the browser started with pid and the renderer processes it
// spawned, by signalling its process group.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Errors are ignored: the launcher kills the main process anyway.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
