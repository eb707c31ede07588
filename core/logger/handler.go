package logger

import (
	"context"
	"log/slog"
	"strings"
)

// contextHandler appends the correlation ids kept in ctx to every record.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid := RIDFrom(ctx); rid != "" {
		r.AddAttrs(slog.String("rid", rid))
	}
	if m, ok := metaFrom(ctx); ok {
		if m.updateID != 0 {
			r.AddAttrs(slog.Int("update_id", m.updateID))
		}
		if m.chatID != 0 {
			r.AddAttrs(slog.Int64("chat_id", m.chatID))
		}
		if m.userID != 0 {
			r.AddAttrs(slog.Int64("user_id", m.userID))
		}
	}
	if name := HandlerFrom(ctx); name != "" {
		r.AddAttrs(slog.String("handler", name))
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}

// replaceAttr renames the time key and writes durations as whole
// milliseconds under a _ms key.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		a.Key = "ts"
		return a
	}
	if a.Value.Kind() != slog.KindDuration {
		return a
	}
	key := a.Key
	if !strings.HasSuffix(key, "_ms") {
		key += "_ms"
	}
	return slog.Int64(key, RoundMS(a.Value.Duration()).Milliseconds())
}
