package middleware

import (
	"log/slog"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/callbacks"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware stores the update's logging context and writes one debug
// line describing what arrived.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		kind := UpdateKind(c.Update())
		attrs := []slog.Attr{slog.String("kind", kind)}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if msg := c.Message(); msg != nil && msg.ThreadID != 0 {
			attrs = append(attrs, slog.Int("thread_id", msg.ThreadID))
		}
		if u := c.Sender(); u != nil && u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		switch kind {
		case KindCallback:
			key, payload := callbacks.ParseCallbackData(c.Callback())
			attrs = append(attrs,
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		case KindMessage:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 128)))
			}
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)
		return next(c)
	}
}
