package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type logAttrsKey struct{}

// WithLogAttrs returns a context whose log records carry attrs in addition to
// any attached earlier. The request middleware uses it for request_id/user_id.
func WithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	prev, _ := ctx.Value(logAttrsKey{}).([]slog.Attr)

	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)

	return context.WithValue(ctx, logAttrsKey{}, merged)
}

// TraceHandler stamps trace_id/span_id from the active span, plus anything
// added with WithLogAttrs, onto every record logged with a context. These
// correlation keys stay at the top level even when a group is open.
type TraceHandler struct {
	// base has every WithAttrs applied up to the first open group.
	base slog.Handler
	// scoped replays the WithGroup/WithAttrs calls made after that.
	scoped []func(slog.Handler) slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{base: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	var correlation []slog.Attr

	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			correlation = append(correlation,
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}

		if attrs, ok := ctx.Value(logAttrsKey{}).([]slog.Attr); ok {
			correlation = append(correlation, attrs...)
		}
	}

	if len(h.scoped) == 0 {
		r.AddAttrs(correlation...)
		return h.base.Handle(ctx, r)
	}

	next := h.base
	if len(correlation) > 0 {
		next = next.WithAttrs(correlation)
	}
	for _, apply := range h.scoped {
		next = apply(next)
	}

	return next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(h.scoped) == 0 {
		return &TraceHandler{base: h.base.WithAttrs(attrs)}
	}

	return h.withScoped(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return h.withScoped(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *TraceHandler) withScoped(op func(slog.Handler) slog.Handler) *TraceHandler {
	scoped := make([]func(slog.Handler) slog.Handler, 0, len(h.scoped)+1)
	scoped = append(scoped, h.scoped...)
	scoped = append(scoped, op)

	return &TraceHandler{base: h.base, scoped: scoped}
}
