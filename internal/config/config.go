// Package config loads the optional YAML configuration of the controller. Every
// key has a default equal to the compile-time constant in package shared, so the
// controller runs without any file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

type MainConfig struct {
	LogLevel          string `yaml:"log_level"`
	LogFile           string `yaml:"log_file"`
	TargetProcess     string `yaml:"target_process"`
	TargetWindowTitle string `yaml:"target_window_title"`
	ControllerProcess string `yaml:"controller_process"`
	HelperProcess     string `yaml:"helper_process"`
	ShowSeconds       int    `yaml:"show_seconds"`
	InjectAttempts    int    `yaml:"inject_attempts"`
	MetricsListen     string `yaml:"metrics_listen"`
}

// Default returns the configuration used when no file is given.
func Default() *MainConfig {
	c := &MainConfig{}
	c.applyDefaults()
	return c
}

// LoadConfig reads and validates the YAML file at configPath.
func LoadConfig(configPath string) (*MainConfig, error) {
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for config file '%s': %w", configPath, err)
	}

	configData, err := os.ReadFile(absConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", absConfigPath, err)
	}

	c := &MainConfig{}
	err = yaml.Unmarshal(configData, c)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from '%s': %w", absConfigPath, err)
	}

	if c.ShowSeconds < 0 {
		return nil, fmt.Errorf("configuration error: show_seconds cannot be negative (%d)", c.ShowSeconds)
	}
	if c.InjectAttempts < 0 {
		return nil, fmt.Errorf("configuration error: inject_attempts cannot be negative (%d)", c.InjectAttempts)
	}
	c.applyDefaults()

	for key, name := range map[string]string{
		"target_process":     c.TargetProcess,
		"controller_process": c.ControllerProcess,
		"helper_process":     c.HelperProcess,
	} {
		if strings.ContainsAny(name, `\/`) {
			return nil, fmt.Errorf("configuration error: %s must be a file name, got '%s'", key, name)
		}
	}
	if strings.EqualFold(c.TargetProcess, c.HelperProcess) {
		return nil, fmt.Errorf("configuration error: helper_process cannot equal target_process ('%s')", c.TargetProcess)
	}

	return c, nil
}

// ShowDuration is how long the notification stays visible after a signal.
func (c *MainConfig) ShowDuration() time.Duration {
	return time.Duration(c.ShowSeconds) * time.Second
}

func (c *MainConfig) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "LOGLEVEL_INFO"
	}
	c.LogLevel = strings.ToUpper(c.LogLevel)

	if c.LogFile == "" {
		c.LogFile = filepath.Join(os.TempDir(), "msgnotify.log")
	}
	if c.TargetProcess == "" {
		c.TargetProcess = shared.TargetProcessName
	}
	if c.TargetWindowTitle == "" {
		c.TargetWindowTitle = shared.TargetWindowTitle
	}
	if c.ControllerProcess == "" {
		c.ControllerProcess = shared.ControllerProcessName
	}
	if c.HelperProcess == "" {
		c.HelperProcess = shared.HelperProcessName
	}
	if c.ShowSeconds == 0 {
		c.ShowSeconds = int(shared.ShowDuration / time.Second)
	}
	if c.InjectAttempts == 0 {
		c.InjectAttempts = shared.InjectAttempts
	}
}
