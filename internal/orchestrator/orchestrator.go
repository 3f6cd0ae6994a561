// Package orchestrator follows the target process through start and close
// events and keeps exactly one hook installed while it runs.
package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codeyourweb/go-win-msg-notify/internal/injector"
	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/metrics"
	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
	"github.com/codeyourweb/go-win-msg-notify/internal/state"
	"github.com/codeyourweb/go-win-msg-notify/internal/watcher"
	"github.com/codeyourweb/go-win-msg-notify/internal/window"
)

// ErrLifecycle wraps every error that ends the orchestrator. It is always fatal.
var ErrLifecycle = errors.New("lifecycle watch failed")

type Watcher interface {
	WatchStart(pred watcher.Predicate) error
	WatchClose(pred watcher.Predicate) error
}

type Orchestrator struct {
	State   *state.State
	Watcher Watcher

	// Inject installs the hook on the thread owning hwnd.
	Inject func(hwnd uintptr) (state.Unloader, error)
	// FindWindow looks up the target's main window once.
	FindWindow func() (uintptr, bool)
	// TargetPresent reports whether the target is running right now.
	TargetPresent func() bool

	TargetName string
	HelperName string
	Attempts   int
	RetryDelay time.Duration
}

func New(st *state.State, w Watcher, targetName, helperName string) *Orchestrator {
	return &Orchestrator{
		State:      st,
		Watcher:    w,
		TargetName: targetName,
		HelperName: helperName,
		Attempts:   shared.InjectAttempts,
		RetryDelay: shared.InjectRetryInterval,
	}
}

// Prime hooks a target that was already running before the controller started.
// A running target without a window is left to the next start event.
func (o *Orchestrator) Prime() error {
	if o.TargetPresent != nil && !o.TargetPresent() {
		logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("%s is not running yet", o.TargetName))
		return nil
	}
	err := o.hookTarget()
	if errors.Is(err, injector.ErrWindowNotFound) {
		logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("%s runs without a window, waiting for its next start", o.TargetName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLifecycle, err)
	}
	return nil
}

// Run alternates between awaiting the target's start and its close until the
// exit flag is set. Any error sets the exit flag and is returned.
func (o *Orchestrator) Run() error {
	logger.LogMessage(logger.LOGLEVEL_INFO, "watch thread start")
	defer logger.LogMessage(logger.LOGLEVEL_INFO, "watch thread end")

	for !o.State.Exiting() {
		var err error
		if o.State.Running() {
			logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("watching %s close", o.TargetName))
			err = o.Watcher.WatchClose(o.onClose)
		} else {
			logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("watching %s start", o.TargetName))
			err = o.Watcher.WatchStart(o.onStart)
		}

		if err != nil {
			err = fmt.Errorf("%w: %w", ErrLifecycle, err)
			logger.LogMessage(logger.LOGLEVEL_ERROR, fmt.Sprintf("watch thread catch a error: %v", err))
			o.State.Exit()
			return err
		}
	}
	return nil
}

func (o *Orchestrator) onClose(p watcher.Process) (watcher.Control, error) {
	switch {
	case strings.EqualFold(p.Name, o.TargetName):
		logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("%s (PID %d) closed", p.Name, p.PID))
		o.State.SetRunning(false)
		metrics.TargetRunning.Set(0)
		// the hooked thread is gone, so a failed unhook is expected and harmless
		if err := o.State.UnloadInjection(); err != nil {
			logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Unload after close: %v", err))
		}
		return watcher.End, nil

	case strings.EqualFold(p.Name, o.HelperName):
		return watcher.End, nil
	}
	return watcher.Continue, nil
}

func (o *Orchestrator) onStart(p watcher.Process) (watcher.Control, error) {
	switch {
	case strings.EqualFold(p.Name, o.HelperName):
		return watcher.End, nil

	case strings.EqualFold(p.Name, o.TargetName):
		logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("%s started (PID %d, %s)", p.Name, p.PID, p.ExecutablePath))
		if err := o.hookTarget(); err != nil {
			return watcher.End, err
		}
		return watcher.End, nil
	}
	return watcher.Continue, nil
}

// hookTarget waits for the target window and installs the hook on it.
func (o *Orchestrator) hookTarget() error {
	hwnd, attempt, ok := window.Await(o.Attempts, o.RetryDelay, o.State.Exiting, o.FindWindow)
	if !ok {
		if o.State.Exiting() {
			return nil
		}
		return fmt.Errorf("%w: no window after %d attempts", injector.ErrWindowNotFound, attempt)
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Target window 0x%x found on attempt %d", hwnd, attempt))

	// a stale handle is released before a new hook goes in
	if err := o.State.UnloadInjection(); err != nil {
		logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Unload of stale injection: %v", err))
	}

	h, err := o.Inject(hwnd)
	if err != nil {
		return err
	}
	if err := o.State.StoreInjection(h); err != nil {
		if uerr := h.Unload(); uerr != nil {
			logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Unload of rejected injection: %v", uerr))
		}
		return err
	}
	// shutdown may have emptied the slot while Inject ran
	if o.State.Exiting() {
		if err := o.State.UnloadInjection(); err != nil {
			logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Unload after shutdown request: %v", err))
		}
		return nil
	}

	o.State.SetRunning(true)
	metrics.InjectionsTotal.Inc()
	metrics.TargetRunning.Set(1)
	return nil
}

// Shutdown runs the controller's exit sequence: set the exit flag, wake any
// blocked watcher, close the channel, release the hook, then join every worker.
// The hook is released again after the join.
func Shutdown(st *state.State, wake func() error, closers ...io.Closer) {
	st.Exit()

	if wake != nil {
		if err := wake(); err != nil {
			logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Failed to spawn wake helper: %v", err))
		}
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Close during shutdown: %v", err))
		}
	}
	releaseInjection(st)

	st.Workers.JoinAll()
	logger.LogMessage(logger.LOGLEVEL_INFO, "All workers stopped")

	// a worker may have stored a handle between the first release and its exit
	releaseInjection(st)
}

func releaseInjection(st *state.State) {
	if !st.HasInjection() {
		return
	}
	logger.LogMessage(logger.LOGLEVEL_INFO, "Releasing live hook")
	if err := st.UnloadInjection(); err != nil {
		logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Unload during shutdown: %v", err))
	}
}
