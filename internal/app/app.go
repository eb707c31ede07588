// Package app assembles the bot from configuration: storage, the check-in and
// digest services, the scheduler, Telegram routes and the probe server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/bootstrap"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/health"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	coretelegram "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/router"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/state"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/bot"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/checkin"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/config"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/digest"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/schedule"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
	"github.com/anakalachikova-cmd/sterladometr-bot/migrations"
)

// Options override infrastructure steps, mainly for tests.
type Options struct {
	Bootstrap func(bootstrap.Options) (*bootstrap.Result, error)
}

// App holds the wired components.
type App struct {
	cfg   *config.Config
	infra *bootstrap.Result

	backend   storage.Backend
	repo      *storage.Repository
	sessions  *state.Manager
	messenger *bot.Messenger
	checkins  *checkin.Service
	digest    *digest.Service
	scheduler *schedule.Scheduler
	handlers  *bot.Handlers
	health    *health.Server
}

// Bootstrap builds the app with the default infrastructure steps.
func Bootstrap(cfg *config.Config) (*App, error) {
	return New(logger.Background(), cfg, Options{})
}

// New initializes logging and storage and wires every service. Nothing talks
// to Telegram until the run options are executed.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	run := opts.Bootstrap
	if run == nil {
		run = bootstrap.Run
	}

	bopts := bootstrap.Options{Config: cfg.CoreConfig(), Migrations: migrations.FS}
	if cfg.Storage.UsesDatabase() {
		db := cfg.Storage.Database
		bopts.Database = &db
	}
	infra, err := run(bopts)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, infra: infra}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.backend, err = openBackend(ctx, cfg.Storage, infra.DB); err != nil {
		return nil, fmt.Errorf("app: storage: %w", err)
	}
	if err = seed(ctx, cfg.Storage, a.backend); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if a.repo, err = storage.NewRepository(&storage.Config{Backend: a.backend}); err != nil {
		return nil, err
	}

	loc := cfg.Schedule.Location()
	a.sessions = state.NewManager()
	a.messenger = bot.NewMessenger(bot.MessengerConfig{
		GroupChatID:    cfg.Club.GroupChatID,
		OutputThreadID: cfg.Club.OutputThreadID,
	})

	if a.checkins, err = checkin.New(&checkin.Config{
		Store:         a.repo,
		Sessions:      a.sessions,
		Timers:        schedule.AfterFuncTimers{},
		Notifier:      a.messenger,
		Timeout:       cfg.Checkin.Timeout,
		FallbackCount: cfg.Checkin.FallbackCount,
		Location:      loc,
	}); err != nil {
		return nil, fmt.Errorf("app: checkin: %w", err)
	}

	if a.digest, err = digest.New(&digest.Config{
		Store:    a.repo,
		Poster:   a.messenger,
		Location: loc,
	}); err != nil {
		return nil, fmt.Errorf("app: digest: %w", err)
	}

	reminder, weekly, monthly := cfg.Schedule.Hours()
	if a.scheduler, err = schedule.New(&schedule.Config{
		Jobs:         a.digest,
		Location:     loc,
		ReminderHour: reminder,
		WeeklyDay:    cfg.Schedule.Weekday(),
		WeeklyHour:   weekly,
		MonthlyHour:  monthly,
	}); err != nil {
		return nil, fmt.Errorf("app: schedule: %w", err)
	}

	if a.handlers, err = bot.NewHandlers(bot.Config{
		GroupChatID:   cfg.Club.GroupChatID,
		InputThreadID: cfg.Club.InputThreadID,
		BotUsername:   cfg.Club.BotUsername,
		Checkins:      a.checkins,
		Reports:       a.digest,
		Jobs:          a.scheduler,
		Private:       a.messenger,
		Timeout:       a.checkins.Timeout(),
		FallbackCount: a.checkins.FallbackCount(),
	}); err != nil {
		return nil, fmt.Errorf("app: handlers: %w", err)
	}

	if cfg.Health.Listen != "" {
		a.health = health.New(cfg.Health.Listen, map[string]health.Checker{"store": a.repo})
	}

	logger.Info(ctx, "app", "wired",
		slog.String("storage", a.backend.Name()),
		slog.Int64("group_chat_id", cfg.Club.GroupChatID),
		slog.Int("input_thread_id", cfg.Club.InputThreadID),
		slog.Int("output_thread_id", cfg.Club.OutputThreadID),
		slog.String("timezone", loc.String()),
		slog.Bool("schedule_disabled", cfg.Schedule.Disabled),
	)
	return a, nil
}

// TelegramRunOptions builds the routes and lifecycle hooks for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := coretelegram.NewRegistry()
	if err := a.handlers.Register(reg, a.sessions); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetCallbackNotFound(a.handlers.UnknownCallback())

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		AdminChecker:  a.messenger,
		OnAdminReject: a.handlers.AdminRejected,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.sessions, reg, router.TextOptions{
		UnknownText: a.handlers.UnknownText(),
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Bot != nil {
		a.messenger.Bind(rt.Bot)
	}
	if a.cfg.Schedule.Disabled {
		logger.SCHED.Info("scheduler disabled", slog.String("event", "schedule.disabled"))
	} else {
		a.scheduler.Start(ctx)
	}
	if a.health != nil {
		if err := a.health.Start(); err != nil {
			return fmt.Errorf("app: health: %w", err)
		}
		a.health.SetReady(true)
	}
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if a.health != nil {
		a.health.SetReady(false)
	}
	if !a.cfg.Schedule.Disabled {
		if err := a.scheduler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}
	if n := a.sessions.Len(); n > 0 {
		logger.Info(ctx, "app", "sessions.dropped", slog.Int("count", n))
	}
	a.sessions.Reset()
	if a.health != nil {
		if err := a.health.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("health: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases storage and database handles.
func (a *App) Close() error {
	var errs []error
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if a.infra != nil {
		if err := a.infra.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

