package middleware

import (
	"context"
	"log/slog"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminChecker decides whether userID administers chatID.
type AdminChecker interface {
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

// AdminOptions defines how admin-only checks should behave. AdminID, when
// set, is always allowed; everyone else is asked of Checker. With neither
// configured every caller is rejected.
type AdminOptions struct {
	AdminID  int64
	Checker  AdminChecker
	OnReject tele.HandlerFunc
}

// Allowed reports whether the sender of c passes the admin check. Checker
// errors deny.
func (o AdminOptions) Allowed(c tele.Context) bool {
	user := c.Sender()
	if user == nil {
		return false
	}
	if o.AdminID != 0 && user.ID == o.AdminID {
		return true
	}
	if o.Checker == nil {
		return false
	}
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	ctx := tghelpers.BuildContext(c)
	ok, err := o.Checker.IsAdmin(ctx, chatID, user.ID)
	if err != nil {
		logger.Warn(ctx, "tg.access", "admin.check.fail",
			slog.Int64("chat_id", chatID),
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return ok
}

// AdminOnlyMiddleware lets only administrators reach downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.Allowed(c) {
				logger.Info(tghelpers.BuildContext(c), "tg.access", "admin.reject",
					slog.String("status", "skip"),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
