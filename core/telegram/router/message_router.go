package router

import (
	tg "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Sessions is the part of the session manager the text route needs.
type Sessions interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the plain text route. Text from a user with an open
// session goes to the session manager; otherwise public command aliases are
// resolved, then the fallbacks run.
func TextRoutes(sessions Sessions, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		if sessions != nil && sessions.InProgress(sender.ID) {
			return run(c, "session", func() error { return sessions.ManagerHandler(c) })
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return run(c, handlerName(key), func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return run(c, "fallback", func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return run(c, "unknown_text", func() error { return opts.UnknownText(c) })
		}
		logSummary(c, "unknown_text", statusSkip, nil)
		return nil
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(handler),
	}}
}
