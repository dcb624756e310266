// Package log provides slog-based logging that masks credentials.
//
// The checker handles a real email/password pair for the application under
// test, and chromedp actions echo the values they type. Everything that goes
// through slog is therefore passed through a masking handler so a CI log can
// never leak the staging credentials.
package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// MaskValue replaces sensitive attribute values in log output.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"email":      true,
	"password":   true,
	"passwd":     true,
	"secret":     true,
	"token":      true,
	"credential": true,
	"cookie":     true,
	"set-cookie": true,
	"session":    true,
}

// MaskingHandler wraps an slog.Handler and masks sensitive attributes
// before they reach the underlying handler. A handler wrapper (rather than
// a custom logger type) keeps the standard slog API intact for callers.
type MaskingHandler struct {
	handler slog.Handler
}

// NewMaskingHandler wraps handler. If handler is nil, slog's default
// handler is used.
func NewMaskingHandler(handler slog.Handler) *MaskingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &MaskingHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record with masked attributes and forwards it.
func (h *MaskingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs masks the given attributes before adding them.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &MaskingHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{handler: h.handler.WithGroup(name)}
}

func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] || strings.Contains(key, "password") || strings.Contains(key, "secret") {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// NewLogger returns a text logger writing to w with masking applied.
// Verbose selects debug level; otherwise info.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewMaskingHandler(textHandler))
}
