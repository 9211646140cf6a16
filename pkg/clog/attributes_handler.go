package clog

import (
	"context"
	"log/slog"
)

// AttributesHandler decorates another slog.Handler, folding the attributes
// accumulated on the request context (via AddAttribute and friends) into
// every record. The HTTP middleware seeds the context; handlers deeper in
// the call chain add to it without threading a logger around.
type AttributesHandler struct {
	handler slog.Handler
}

func NewAttributesHandler(handler slog.Handler) *AttributesHandler {
	return &AttributesHandler{handler: handler}
}

func (h *AttributesHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *AttributesHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := GetAttributes(ctx); len(attrs) > 0 {
		merged := make([]slog.Attr, 0, len(attrs))
		for k, v := range attrs {
			merged = append(merged, slog.Any(k, v))
		}
		record.AddAttrs(merged...)
	}
	return h.handler.Handle(ctx, record)
}

func (h *AttributesHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AttributesHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *AttributesHandler) WithGroup(name string) slog.Handler {
	return &AttributesHandler{handler: h.handler.WithGroup(name)}
}
