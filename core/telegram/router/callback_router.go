package router

import (
	"log/slog"

	tg "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/callbacks"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches every button press through the registry by its
// unique key. The query is answered first so the client stops its spinner
// even when the handler edits nothing.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		name := "callback." + handlerName(key)
		_ = c.Respond()

		if h, ok := reg.GetCallback(key); ok && h != nil {
			return run(c, name, func() error { return h(c) }, slog.String("cb_key", key))
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		if fallback == nil {
			logSummary(c, name, statusSkip, nil, slog.String("cb_key", key), slog.String("reason", "not_found"))
			return nil
		}
		return run(c, name, func() error { return fallback(c) },
			slog.String("cb_key", key), slog.String("reason", "not_found"))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(handler),
	}
}
