// Package logger is the process-wide leveled logger shared by the controller and
// the hook module. It keeps the LogMessage(level, msg) call shape used across the
// code base and writes through phuslu/log.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/phuslu/log"
)

const (
	LOGLEVEL_DEBUG = iota
	LOGLEVEL_INFO
	LOGLEVEL_WARNING
	LOGLEVEL_ERROR
)

var (
	mu      sync.Mutex
	level   = LOGLEVEL_INFO
	console log.Writer = &log.ConsoleWriter{Writer: os.Stderr, EndWithMessage: true}
	file    *log.FileWriter

	current atomic.Pointer[log.Logger]
)

func init() {
	rebuild()
}

// InitLogger sets the minimum level written by LogMessage.
func InitLogger(logLevel int) {
	mu.Lock()
	level = logLevel
	rebuild()
	mu.Unlock()
}

// SetLevel changes the level at runtime; safe to call while other goroutines log.
func SetLevel(logLevel int) {
	InitLogger(logLevel)
}

// Level returns the level currently applied.
func Level() int {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// SetOutput replaces the console destination. io.Discard silences it.
func SetOutput(w io.Writer) {
	mu.Lock()
	if w == io.Discard {
		console = nil
	} else {
		console = &log.IOWriter{Writer: w}
	}
	rebuild()
	mu.Unlock()
}

// SetLogToFile adds a size-rotated log file next to the console output.
func SetLogToFile(path string) {
	mu.Lock()
	if file != nil {
		file.Close()
	}
	file = &log.FileWriter{
		Filename:     path,
		FileMode:     0644,
		MaxSize:      10 * 1024 * 1024,
		MaxBackups:   3,
		LocalTime:    true,
		EnsureFolder: true,
	}
	rebuild()
	mu.Unlock()
}

// Close flushes and closes the log file, if any.
func Close() {
	mu.Lock()
	if file != nil {
		file.Close()
		file = nil
	}
	rebuild()
	mu.Unlock()
}

// LogMessage writes message at the given LOGLEVEL_* level.
func LogMessage(logLevel int, message string) {
	l := current.Load()
	switch logLevel {
	case LOGLEVEL_DEBUG:
		l.Debug().Msg(message)
	case LOGLEVEL_WARNING:
		l.Warn().Msg(message)
	case LOGLEVEL_ERROR:
		l.Error().Msg(message)
	default:
		l.Info().Msg(message)
	}
}

// ParseLevel maps a configuration value such as "LOGLEVEL_DEBUG" or "debug" to a
// LOGLEVEL_* constant. Unknown values map to LOGLEVEL_INFO.
func ParseLevel(name string) int {
	name = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "LOGLEVEL_")
	switch name {
	case "DEBUG":
		return LOGLEVEL_DEBUG
	case "WARNING", "WARN":
		return LOGLEVEL_WARNING
	case "ERROR":
		return LOGLEVEL_ERROR
	default:
		return LOGLEVEL_INFO
	}
}

// rebuild publishes a new logger for the current writers; mu must be held.
func rebuild() {
	var writers []log.Writer
	if console != nil {
		writers = append(writers, console)
	}
	if file != nil {
		writers = append(writers, file)
	}

	var w log.Writer
	switch len(writers) {
	case 0:
		w = &log.IOWriter{Writer: io.Discard}
	case 1:
		w = writers[0]
	default:
		multi := log.MultiEntryWriter(writers)
		w = &multi
	}

	current.Store(&log.Logger{
		Level:      toPhusluLevel(level),
		TimeFormat: "2006-01-02 15:04:05.000",
		Writer:     w,
	})
}

func toPhusluLevel(logLevel int) log.Level {
	switch logLevel {
	case LOGLEVEL_DEBUG:
		return log.DebugLevel
	case LOGLEVEL_WARNING:
		return log.WarnLevel
	case LOGLEVEL_ERROR:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
