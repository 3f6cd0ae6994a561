//go:build windows

package procutil

import (
	"os/exec"
	"syscall"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

const createNoWindow = 0x08000000

// SpawnWakeHelper starts a short-lived, windowless helper process. Its creation
// and deletion events release a watcher blocked on the next process event.
func SpawnWakeHelper(name string) error {
	cmd := exec.Command(name, "/C", "timeout", "/T", "2", "/NOBREAK")
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow, HideWindow: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, "Wake helper spawned")

	// reap in the background; the exit status is irrelevant
	go cmd.Wait()
	return nil
}
