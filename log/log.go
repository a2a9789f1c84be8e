// Package log is the logging front-end of passwd.
//
// Messages go through a per-level [Handler]. By default the handlers forward
// to the slog default logger, which writes to stderr with [SimpleHandler].
// [InitJournalHandler] replaces them so that messages end up in the systemd
// journal.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"sync"
	"sync/atomic"
)

type (
	// Level is the log level for the logs.
	Level = slog.Level

	// Handler is the log handler function.
	Handler = func(_ context.Context, _ Level, format string, args ...interface{})
)

const (
	// ErrorLevel is used for failures that abort the current operation.
	ErrorLevel = slog.LevelError
	// WarnLevel is used for non-critical entries that deserve eyes.
	WarnLevel = slog.LevelWarn
	// NoticeLevel is used for normal but significant conditions, like audit
	// messages about changed credentials. slog has no Notice level, so we use
	// the average between Info and Warn.
	NoticeLevel = (slog.LevelInfo + slog.LevelWarn) / 2
	// InfoLevel is used for general operational entries.
	InfoLevel = slog.LevelInfo
	// DebugLevel is only enabled when debugging.
	DebugLevel = slog.LevelDebug
)

var (
	levelMu sync.RWMutex
	level   = NoticeLevel

	output atomic.Pointer[io.Writer]
)

var allLevels = []Level{
	DebugLevel,
	InfoLevel,
	NoticeLevel,
	WarnLevel,
	ErrorLevel,
}

func slogAdapter(slogFunc func(ctx context.Context, msg string, args ...interface{})) Handler {
	return func(ctx context.Context, _ Level, format string, args ...interface{}) {
		slogFunc(ctx, fmt.Sprintf(format, args...))
	}
}

var defaultHandlers = map[Level]Handler{
	DebugLevel: slogAdapter(slog.DebugContext),
	InfoLevel:  slogAdapter(slog.InfoContext),
	// The default slog handler has no notice level: print those as warnings.
	NoticeLevel: slogAdapter(slog.WarnContext),
	WarnLevel:   slogAdapter(slog.WarnContext),
	ErrorLevel:  slogAdapter(slog.ErrorContext),
}

var (
	handlersMu sync.RWMutex
	handlers   = maps.Clone(defaultHandlers)
)

func init() {
	SetOutput(os.Stderr)
}

// GetLevel returns the current log level.
func GetLevel() Level {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return level
}

// IsLevelEnabled returns true if messages at the given level are printed.
func IsLevelEnabled(l Level) bool {
	return slog.Default().Enabled(context.Background(), l)
}

// SetLevel changes the log level and returns the previous one.
func SetLevel(l Level) (oldLevel Level) {
	levelMu.Lock()
	oldLevel = level
	level = l
	levelMu.Unlock()

	if out := output.Load(); out != nil {
		SetOutput(*out)
	}
	return oldLevel
}

// SetOutput sets the writer used by the default handlers.
func SetOutput(out io.Writer) {
	output.Store(&out)
	slog.SetDefault(slog.New(NewSimpleHandler(out, GetLevel())))
}

// SetHandler sets the handler for all log levels. A nil handler restores the
// default ones.
func SetHandler(handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()

	if handler == nil {
		handlers = maps.Clone(defaultHandlers)
		return
	}
	for _, l := range allLevels {
		handlers[l] = handler
	}
}

func logf(ctx context.Context, l Level, format string, args ...interface{}) {
	if !slog.Default().Enabled(ctx, l) {
		return
	}

	handlersMu.RLock()
	handler := handlers[l]
	handlersMu.RUnlock()

	handler(ctx, l, format, args...)
}

// Debug logs at [DebugLevel].
func Debug(ctx context.Context, args ...interface{}) {
	logf(ctx, DebugLevel, "%s", fmt.Sprint(args...))
}

// Debugf logs at [DebugLevel].
func Debugf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, DebugLevel, format, args...)
}

// Info logs at [InfoLevel].
func Info(ctx context.Context, args ...interface{}) {
	logf(ctx, InfoLevel, "%s", fmt.Sprint(args...))
}

// Infof logs at [InfoLevel].
func Infof(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, InfoLevel, format, args...)
}

// Notice logs at [NoticeLevel].
func Notice(ctx context.Context, args ...interface{}) {
	logf(ctx, NoticeLevel, "%s", fmt.Sprint(args...))
}

// Noticef logs at [NoticeLevel].
func Noticef(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, NoticeLevel, format, args...)
}

// Warning logs at [WarnLevel].
func Warning(ctx context.Context, args ...interface{}) {
	logf(ctx, WarnLevel, "%s", fmt.Sprint(args...))
}

// Warningf logs at [WarnLevel].
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, WarnLevel, format, args...)
}

// Error logs at [ErrorLevel].
func Error(ctx context.Context, args ...interface{}) {
	logf(ctx, ErrorLevel, "%s", fmt.Sprint(args...))
}

// Errorf logs at [ErrorLevel].
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, ErrorLevel, format, args...)
}
