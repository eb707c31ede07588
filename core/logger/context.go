package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

type ctxKey int

const (
	keyRID ctxKey = iota
	keyMeta
	keyHandler
	keyLogger
)

type updateMeta struct {
	updateID       int
	userID, chatID int64
}

// WithLogger stores log in ctx.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, keyLogger, log)
}

// FromContext returns the logger stored in ctx or the base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches a correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(keyRID).(string)
	return rid
}

// WithUpdateMeta attaches the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return context.WithValue(ctx, keyMeta, updateMeta{updateID: updateID, userID: userID, chatID: chatID})
}

func metaFrom(ctx context.Context) (updateMeta, bool) {
	if ctx == nil {
		return updateMeta{}, false
	}
	m, ok := ctx.Value(keyMeta).(updateMeta)
	return m, ok
}

// UpdateIDFrom returns the update id attached by WithUpdateMeta.
func UpdateIDFrom(ctx context.Context) int {
	m, _ := metaFrom(ctx)
	return m.updateID
}

// UserIDFrom returns the user id attached by WithUpdateMeta.
func UserIDFrom(ctx context.Context) int64 {
	m, _ := metaFrom(ctx)
	return m.userID
}

// ChatIDFrom returns the chat id attached by WithUpdateMeta.
func ChatIDFrom(ctx context.Context) int64 {
	m, _ := metaFrom(ctx)
	return m.chatID
}

// WithHandler names the handler serving the update.
func WithHandler(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, keyHandler, name)
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(keyHandler).(string)
	return name
}

// BuildRID formats a correlation id as update:chat:user.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// SanitizeLimit drops control and format runes (keeping tab and newline)
// and cuts the result to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if r != '\n' && r != '\t' && (unicode.IsControl(r) || unicode.Is(unicode.Cf, r)) {
			continue
		}
		if n == max {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
