package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, r slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, level slog.Level) bool { return false }

func (h *discardHandler) WithGroup(name string) slog.Handler { return h }

func (h *discardHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

type terminalHandler struct {
	mu    sync.Mutex
	wr    io.Writer
	lvl   slog.Level
	attrs []slog.Attr
}

// NewTerminalHandlerWithLevel returns a handler that writes aligned
// human-readable records to wr, dropping anything below lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level) slog.Handler {
	return &terminalHandler{wr: wr, lvl: lvl}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.wr, "%s[%s] %s", LevelAlignedString(r.Level), r.Time.Format("01-02|15:04:05.000"), r.Message)
	for _, attr := range h.attrs {
		fmt.Fprintf(h.wr, " %s=%v", attr.Key, attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(h.wr, " %s=%v", attr.Key, attr.Value)
		return true
	})
	fmt.Fprintln(h.wr)
	return nil
}

func (h *terminalHandler) WithGroup(name string) slog.Handler { return h }

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &terminalHandler{wr: h.wr, lvl: h.lvl, attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)}
}
