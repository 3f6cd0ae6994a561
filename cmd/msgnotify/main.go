//go:build windows

// Command msgnotify is the controller: it hooks the messenger while it runs and
// tracks the time of its last new-message event.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/akamensky/argparse"
	"golang.org/x/sys/windows/svc"

	"github.com/codeyourweb/go-win-msg-notify/internal/config"
	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/procutil"
)

const serviceName = "msgNotifyService"

var errServiceSession = errors.New("msgnotify cannot run as a Windows service; start it in the user's session")

// checkInteractive rejects the service control manager host. Services run in
// session 0, where the target's window and UI thread are unreachable.
func checkInteractive(isWindowsService bool) error {
	if isWindowsService {
		return errServiceSession
	}
	return nil
}

func main() {
	// config file argument parsing
	parser := argparse.NewParser("msgnotify", "New message notifier for the desktop messenger")
	configFilePath := parser.String("c", "config", &argparse.Options{Required: false, Help: "YAML configuration file"})
	debugMode := parser.Flag("d", "debug", &argparse.Options{Required: false, Help: "Force debug logging"})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	// load yaml configuration, or run on defaults
	appConfig := config.Default()
	if *configFilePath != "" {
		appConfig, err = config.LoadConfig(*configFilePath)
		if err != nil {
			log.Fatalln(fmt.Errorf("error loading configuration: %v", err))
		}
	}

	// initialize logger
	logLevel := logger.ParseLevel(appConfig.LogLevel)
	if *debugMode {
		logLevel = logger.LOGLEVEL_DEBUG
	}
	logger.InitLogger(logLevel)
	if appConfig.LogFile != "" {
		logger.SetLogToFile(appConfig.LogFile)
	}
	defer logger.Close()

	if pid, found := procutil.FindOtherInstance(appConfig.ControllerProcess); found {
		logger.LogMessage(logger.LOGLEVEL_ERROR, fmt.Sprintf("%s is already running (PID %d)", appConfig.ControllerProcess, pid))
		return
	}

	// hooks and window lookup need the user's desktop session
	isWindowsService, err := svc.IsWindowsService()
	if err != nil {
		log.Fatalln(fmt.Errorf("error checking if running as a Windows service: %v", err))
	}
	if err := checkInteractive(isWindowsService); err != nil {
		logger.LogMessage(logger.LOGLEVEL_ERROR, err.Error())
		logger.Close()
		os.Exit(1)
	}

	logger.LogMessage(logger.LOGLEVEL_INFO, "Running in interactive mode.")
	service := &msgNotifyService{config: appConfig, configPath: *configFilePath}
	if err := runService(serviceName, service); err != nil {
		logger.LogMessage(logger.LOGLEVEL_ERROR, err.Error())
		logger.Close()
		os.Exit(1)
	}
}
