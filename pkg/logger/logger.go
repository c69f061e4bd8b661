// Package logger provides component-tagged structured logging for the bot.
// Every log line carries a "component" attribute so channel, memory and
// provider activity can be filtered apart in one stream.
package logger

import (
	"log/slog"
	"os"
	"sync"
)

var (
	mu  sync.RWMutex
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// Setup configures the process logger. level is one of debug/info/warn/error,
// format is "json" or "text".
func Setup(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	mu.Lock()
	log = slog.New(handler)
	mu.Unlock()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func fieldsToAttrs(component string, fields map[string]any) []any {
	attrs := make([]any, 0, 2+2*len(fields))
	attrs = append(attrs, "component", component)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	return attrs
}

func DebugC(component, msg string) {
	current().Debug(msg, "component", component)
}

func DebugCF(component, msg string, fields map[string]any) {
	current().Debug(msg, fieldsToAttrs(component, fields)...)
}

func InfoC(component, msg string) {
	current().Info(msg, "component", component)
}

func InfoCF(component, msg string, fields map[string]any) {
	current().Info(msg, fieldsToAttrs(component, fields)...)
}

func WarnC(component, msg string) {
	current().Warn(msg, "component", component)
}

func WarnCF(component, msg string, fields map[string]any) {
	current().Warn(msg, fieldsToAttrs(component, fields)...)
}

func ErrorC(component, msg string) {
	current().Error(msg, "component", component)
}

func ErrorCF(component, msg string, fields map[string]any) {
	current().Error(msg, fieldsToAttrs(component, fields)...)
}
