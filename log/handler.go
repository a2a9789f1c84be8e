package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// SimpleHandler writes one line per record: <time> <level> <message>.
// Attributes and groups are accepted but not printed.
type SimpleHandler struct {
	level slog.Leveler
	w     io.Writer
}

// NewSimpleHandler creates a SimpleHandler printing records of at least level to w.
func NewSimpleHandler(w io.Writer, level slog.Level) slog.Handler {
	return &SimpleHandler{level: level, w: w}
}

// Enabled implements the slog.Handler interface.
func (h *SimpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements the slog.Handler interface.
func (h *SimpleHandler) Handle(_ context.Context, r slog.Record) error {
	_, err := fmt.Fprintf(h.w, "%s %s %s\n", r.Time.Format("15:04:05"), r.Level, r.Message)
	return err
}

// WithAttrs implements the slog.Handler interface.
func (h *SimpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup implements the slog.Handler interface.
func (h *SimpleHandler) WithGroup(_ string) slog.Handler {
	return h
}
