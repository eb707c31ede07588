// Package helpers holds the small pieces every handler uses: the per-update
// logging context and the reply senders.
package helpers

import (
	"context"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "update_ctx"

// StoreContext keeps ctx on the update for later helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok
}

// BuildContext returns the update's logging context, creating it on first
// use. It carries the rid and the update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	rid := logger.BuildRID(updateID, chatID, userID)
	ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler names the handler in the update's context.
func WithHandler(c tele.Context, name string) context.Context {
	ctx := BuildContext(c)
	if name == "" || logger.HandlerFrom(ctx) == name {
		return ctx
	}
	ctx = logger.WithHandler(ctx, name)
	StoreContext(c, ctx)
	return ctx
}
