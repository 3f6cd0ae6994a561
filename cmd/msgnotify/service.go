//go:build windows

package main

import (
	"fmt"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/debug"

	"github.com/codeyourweb/go-win-msg-notify/internal/channel"
	"github.com/codeyourweb/go-win-msg-notify/internal/config"
	"github.com/codeyourweb/go-win-msg-notify/internal/injector"
	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/metrics"
	"github.com/codeyourweb/go-win-msg-notify/internal/orchestrator"
	"github.com/codeyourweb/go-win-msg-notify/internal/presenter"
	"github.com/codeyourweb/go-win-msg-notify/internal/procutil"
	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
	"github.com/codeyourweb/go-win-msg-notify/internal/state"
	"github.com/codeyourweb/go-win-msg-notify/internal/watcher"
	"github.com/codeyourweb/go-win-msg-notify/internal/window"
)

type msgNotifyService struct {
	config     *config.MainConfig
	configPath string
}

func (m *msgNotifyService) Execute(args []string, r <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {

	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown

	status <- svc.Status{State: svc.StartPending}

	cfg := m.config
	st := state.New()

	listener, err := channel.Listen()
	if err != nil {
		logger.LogMessage(logger.LOGLEVEL_ERROR, err.Error())
		return true, 1
	}

	pres := presenter.New(st, cfg.ShowDuration())
	server := channel.NewServer(st, listener, pres.Request)

	hook := &injector.Injector{ModuleName: shared.HookModuleName, ProcName: shared.HookProcName}
	orch := orchestrator.New(st, watcher.New(st.Exiting), cfg.TargetProcess, cfg.HelperProcess)
	orch.Attempts = cfg.InjectAttempts
	orch.FindWindow = func() (uintptr, bool) { return window.FindByTitle(cfg.TargetWindowTitle) }
	orch.TargetPresent = func() bool { return procutil.IsRunning(cfg.TargetProcess) }
	orch.Inject = func(hwnd uintptr) (state.Unloader, error) {
		h, err := hook.Inject(hwnd)
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	wake := func() error { return procutil.SpawnWakeHelper(cfg.HelperProcess) }

	// initial injection (for an already running target)
	if err := orch.Prime(); err != nil {
		logger.LogMessage(logger.LOGLEVEL_ERROR, err.Error())
		orchestrator.Shutdown(st, nil, server)
		return true, 1
	}

	fatal := make(chan error, 1)
	st.Workers.Spawn("channel", server.Run)
	st.Workers.Spawn("presenter", pres.Run)
	st.Workers.Spawn("orchestrator", func() {
		if err := orch.Run(); err != nil {
			fatal <- err
		}
	})
	if m.configPath != "" {
		st.Workers.Spawn("config listener", func() {
			err := config.Listen(m.configPath, st.Done(), func(c *config.MainConfig) {
				if level := logger.ParseLevel(c.LogLevel); level != logger.Level() {
					logger.SetLevel(level)
					logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("Log level set to %s", c.LogLevel))
				}
				pres.SetShowDuration(c.ShowDuration())
			})
			if err != nil {
				logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Config listener stopped: %v", err))
			}
		})
	}
	if cfg.MetricsListen != "" {
		st.Workers.Spawn("metrics", func() {
			if err := metrics.Serve(cfg.MetricsListen, st.Done()); err != nil {
				logger.LogMessage(logger.LOGLEVEL_WARNING, err.Error())
			}
		})
	}

	status <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}
	logger.LogMessage(logger.LOGLEVEL_INFO, "Message notifier service started.")

	var exitCode uint32
serviceLoop:
	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				status <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				logger.LogMessage(logger.LOGLEVEL_INFO, "Shutting down message notifier service.")
				break serviceLoop
			default:
				logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Unexpected service control request #%d", c.Cmd))
			}
		case err := <-fatal:
			logger.LogMessage(logger.LOGLEVEL_ERROR, fmt.Sprintf("Stopping after fatal error: %v", err))
			exitCode = 1
			break serviceLoop
		}
	}

	status <- svc.Status{State: svc.StopPending}
	orchestrator.Shutdown(st, wake, server)
	return exitCode != 0, exitCode
}

// runService drives the handler from the console; Ctrl+C maps to svc.Stop.
func runService(name string, service svc.Handler) error {
	if err := debug.Run(name, service); err != nil {
		return fmt.Errorf("error running message notifier in interactive mode: %w", err)
	}
	return nil
}
