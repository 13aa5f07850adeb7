//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillTree kills the browser started with pid and the renderer processes it
// spawned. /T terminates the whole tree.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Errors are ignored: the launcher kills the main process anyway.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- numeric pid
}
