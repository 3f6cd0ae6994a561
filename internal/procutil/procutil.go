// Package procutil looks up processes by executable name.
package procutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

var ErrProcessNotFound = errors.New("process not found")

// IsNameInList reports whether processName matches any entry, ignoring case.
func IsNameInList(processName string, list ...string) bool {
	for _, v := range list {
		if strings.EqualFold(v, processName) {
			return true
		}
	}
	return false
}

// FindProcess returns the PID of the first running process named processName.
func FindProcess(processName string) (int32, error) {
	processes, err := process.Processes()
	if err != nil {
		return 0, fmt.Errorf("error getting processes: %w", err)
	}

	for _, proc := range processes {
		name, err := proc.Name()
		if err != nil {
			// processes exit between listing and inspection
			logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Error getting process name for PID %d: %v", proc.Pid, err))
			continue
		}
		if IsNameInList(name, processName) {
			return proc.Pid, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrProcessNotFound, processName)
}

// FindOtherInstance returns the PID of a process named processName other than
// the caller, used to keep a single controller per session.
func FindOtherInstance(processName string) (int32, bool) {
	processes, err := process.Processes()
	if err != nil {
		logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Error getting processes: %v", err))
		return 0, false
	}

	self := int32(os.Getpid())
	for _, proc := range processes {
		if proc.Pid == self {
			continue
		}
		if name, err := proc.Name(); err == nil && IsNameInList(name, processName) {
			return proc.Pid, true
		}
	}
	return 0, false
}

// IsRunning reports whether a process named processName exists right now.
func IsRunning(processName string) bool {
	_, err := FindProcess(processName)
	return err == nil
}

// CurrentExeName returns the file name of the host executable. Inside a loaded
// module this is the process the module was mapped into.
func CurrentExeName() string {
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if name, err := proc.Name(); err == nil && name != "" {
			return name
		}
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Base(exe)
}
