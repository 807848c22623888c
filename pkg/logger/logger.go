// Package logger hands out component loggers built on log/slog. Every
// component logs through its own cached *slog.Logger whose level can be set
// per component, with dotted names inheriting from their parent.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	// Log is the logger without a component.
	Log *slog.Logger

	mu              sync.RWMutex
	defaultLevel              = slog.LevelInfo
	componentLevels           = map[string]slog.Level{}
	format                    = FormatText
	output          io.Writer = os.Stdout
	pid                       = os.Getpid()

	loggerCache sync.Map
)

func init() {
	Log = slog.New(newHandler(""))
}

// Configure sets the output format, the default level and per-component
// overrides. Loggers returned by Get before the call keep their handler but
// observe the new levels.
func Configure(logFormat string, level LogLevel, components map[string]LogLevel) {
	mu.Lock()
	defaultLevel = parseLevel(string(level))
	format = strings.ToLower(logFormat)
	if format != FormatJSON {
		format = FormatText
	}
	componentLevels = make(map[string]slog.Level, len(components))
	for name, lvl := range components {
		componentLevels[name] = parseLevel(string(lvl))
	}
	mu.Unlock()

	reset()
}

// SetOutput redirects every logger. Used by tests to capture records.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()

	reset()
}

func reset() {
	loggerCache.Range(func(k, _ any) bool {
		loggerCache.Delete(k)
		return true
	})
	Log = slog.New(newHandler(""))
}

// Get returns the logger for a component, creating it on first use.
func Get(name string) *slog.Logger {
	if l, ok := loggerCache.Load(name); ok {
		return l.(*slog.Logger)
	}
	l, _ := loggerCache.LoadOrStore(name, slog.New(newHandler(name)))
	return l.(*slog.Logger)
}

func newHandler(component string) slog.Handler {
	mu.RLock()
	w, f := output, format
	mu.RUnlock()

	if f == FormatJSON {
		return newJSONHandler(w, component)
	}
	return NewTextHandler(w, nil, component)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// effectiveLevel walks up the dotted component name until a level is found.
func effectiveLevel(component string) slog.Level {
	mu.RLock()
	defer mu.RUnlock()

	for path := component; path != ""; {
		if level, ok := componentLevels[path]; ok {
			return level
		}
		idx := strings.LastIndex(path, ".")
		if idx < 0 {
			break
		}
		path = path[:idx]
	}
	return defaultLevel
}
