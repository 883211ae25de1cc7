package server

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// consoleHandler is a slog.Handler that forwards records to a render's web
// console and to the server's own handler
type consoleHandler struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	next        slog.Handler
	attrs       []slog.Attr
}

// NewConsoleLogger creates a logger for a specific render. Records at info
// level and above are sent to consoleChan without blocking; every record is
// also passed to next when it is non-nil.
func NewConsoleLogger(renderID string, consoleChan chan<- ConsoleMessage, next slog.Handler) *slog.Logger {
	return slog.New(&consoleHandler{
		renderID:    renderID,
		consoleChan: consoleChan,
		next:        next,
	}).With("render", renderID)
}

func (h *consoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelInfo {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *consoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}

	if h.consoleChan == nil || r.Level < slog.LevelInfo {
		return nil
	}

	select {
	case h.consoleChan <- ConsoleMessage{
		Message:   h.format(r),
		Timestamp: r.Time,
		Level:     levelName(r.Level),
	}:
	default:
		// Channel full, skip (don't block)
	}
	return nil
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

// format renders the message followed by key=value pairs. The render ID is
// left out because every message on a console belongs to the same render.
func (h *consoleHandler) format(r slog.Record) string {
	var b strings.Builder
	b.WriteString(r.Message)

	write := func(a slog.Attr) bool {
		if a.Key == "render" || a.Equal(slog.Attr{}) {
			return true
		}
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value.Resolve().String())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	return b.String()
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
