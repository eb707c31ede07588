package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into an error so one bad update
// cannot stop the poller.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
				slog.String("kind", UpdateKind(c.Update())),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}()
		return next(c)
	}
}
