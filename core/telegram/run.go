// Package telegram runs the bot: it builds the telebot client, binds the
// routes and drives the start and stop hooks around the poller.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/anakalachikova-cmd/sterladometr-bot/core/config"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"
	tgsender "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// DefaultStopTimeout bounds the OnStop hook.
const DefaultStopTimeout = 15 * time.Second

// Middleware is a named global middleware passed to bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds Handler to Endpoint, as passed to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	// Dispatcher overrides the one built from DispatcherOptions.
	Dispatcher *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips removing a stale webhook before long polling.
	KeepWebhook bool
	StopTimeout time.Duration

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes the running components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram runs the bot until ctx is cancelled. OnStart runs after the
// routes are bound and before updates flow; OnStop runs after the poller
// has stopped, under StopTimeout.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	bot, err := newBot(opts.Config)
	if err != nil {
		return err
	}
	if !opts.KeepWebhook && opts.Config.Telegram.RunMode == coreconfig.RunModeLongpoll {
		if err := bot.RemoveWebhook(false); err != nil {
			logger.Warn(ctx, "tg", "webhook.remove_failed", slog.String("err", err.Error()))
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, reg)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}

	if opts.OnStop == nil {
		return nil
	}
	timeout := opts.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return opts.OnStop(stopCtx, rt)
}

func newBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	poller, pollTimeout := BuildPoller(cfg)
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(pollTimeout),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("mode", cfg.Telegram.RunMode),
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", time.Since(start)),
	}
	if wh, ok := poller.(*tele.Webhook); ok {
		attrs = append(attrs, slog.String("listen", wh.Listen), slog.String("public_url", wh.Endpoint.PublicURL))
	} else {
		attrs = append(attrs, slog.Duration("poll_timeout", pollTimeout))
	}
	logger.Info(context.Background(), "tg", "bot.ready", attrs...)
	return bot, nil
}

func logHandlerError(err error, c tele.Context) {
	ctx := logger.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "handler.error", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
}
