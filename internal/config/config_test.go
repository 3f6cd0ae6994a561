package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultMatchesConstants(t *testing.T) {
	c := Default()
	if c.TargetProcess != shared.TargetProcessName || c.HelperProcess != shared.HelperProcessName {
		t.Fatalf("unexpected process defaults: %+v", c)
	}
	if c.ShowDuration() != shared.ShowDuration {
		t.Fatalf("ShowDuration() = %v, want %v", c.ShowDuration(), shared.ShowDuration)
	}
	if c.InjectAttempts != shared.InjectAttempts {
		t.Fatalf("InjectAttempts = %d, want %d", c.InjectAttempts, shared.InjectAttempts)
	}
	if c.LogLevel != "LOGLEVEL_INFO" {
		t.Fatalf("LogLevel = %q", c.LogLevel)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.yaml")
	writeFile(t, path, "log_level: loglevel_debug\ntarget_process: Other.exe\nshow_seconds: 3\n")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.LogLevel != "LOGLEVEL_DEBUG" {
		t.Fatalf("LogLevel = %q, want upper-cased value", c.LogLevel)
	}
	if c.TargetProcess != "Other.exe" {
		t.Fatalf("TargetProcess = %q", c.TargetProcess)
	}
	if c.ShowDuration() != 3*time.Second {
		t.Fatalf("ShowDuration() = %v", c.ShowDuration())
	}
	if c.ControllerProcess != shared.ControllerProcessName {
		t.Fatalf("unset key did not get its default: %q", c.ControllerProcess)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"negative.yaml": "inject_attempts: -1\n",
		"path.yaml":     "target_process: C:\\apps\\Weixin.exe\n",
		"helper.yaml":   "target_process: cmd.exe\n",
		"broken.yaml":   "show_seconds: [\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		writeFile(t, path, content)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestListenReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.yaml")
	writeFile(t, path, "show_seconds: 5\n")

	quit := make(chan struct{})
	changes := make(chan *MainConfig, 16)
	done := make(chan error, 1)
	go func() {
		done <- Listen(path, quit, func(c *MainConfig) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// give the watcher time to register before writing
	time.Sleep(200 * time.Millisecond)
	writeFile(t, path, "show_seconds: 7\n")

	// truncation may surface as an intermediate reload of an empty file
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case c := <-changes:
			seen = c.ShowSeconds == 7
		case <-deadline:
			t.Fatalf("no reload with show_seconds 7 observed")
		}
	}

	close(quit)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Listen returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Listen did not return after quit")
	}
}
