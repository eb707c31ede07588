package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the queue Deliver hands outgoing calls to. nil
// switches delivery back to inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// Deliver queues run on the dispatcher. With no dispatcher, or a full or
// closed queue, run executes inline and its error is returned.
func Deliver(ctx context.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	err := d.Enqueue(ctx, action, endpoint, run)
	if !errors.Is(err, sender.ErrQueueFull) && !errors.Is(err, sender.ErrQueueClosed) {
		return err
	}
	logger.Warn(ctx, "tg.sender", "queue.fallback",
		slog.String("action", action),
		slog.String("endpoint", endpoint),
		slog.String("err", err.Error()),
	)
	return run()
}

// ThreadOptions keeps the reply in the forum topic the update came from.
func ThreadOptions(c tele.Context, mode tele.ParseMode, markup *tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: mode, ReplyMarkup: markup}
	if msg := c.Message(); msg != nil {
		opts.ThreadID = msg.ThreadID
	}
	return opts
}

// SendText delivers plain text to the current chat and topic. The first
// non-nil opts replaces the default options.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	o := ThreadOptions(c, tele.ModeDefault, nil)
	if len(opts) > 0 && opts[0] != nil {
		o = opts[0]
	}
	return Deliver(BuildContext(c), "send.text", "sendMessage", func() error {
		return c.Send(text, o)
	})
}

// SendMD is SendText in Markdown mode.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, ThreadOptions(c, tele.ModeMarkdown, first(markup)))
}

// EditText replaces the text of the message a callback came from. It runs
// inline so the edit lands before the callback returns.
func EditText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, &tele.SendOptions{ReplyMarkup: first(markup)})
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) == 0 {
		return nil
	}
	return markup[0]
}
