// Package cmd is the process entry point shared by bots built on core: it
// resolves the config path, bootstraps the app and runs Telegram until a
// signal arrives.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/anakalachikova-cmd/sterladometr-bot/core/config"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	coretelegram "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
)

// DefaultConfigEnvVar names the variable holding the config path.
const DefaultConfigEnvVar = "CONFIG_PATH"

// ConfigCarrier is any application config embedding the core section.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the Telegram runtime options.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wires the application into Run.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	// Optional overrides, mostly for tests.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	Context        context.Context
}

// ConfigPath resolves the config file from the environment, falling back
// to the default.
func (o Options) ConfigPath() (string, error) {
	env := o.ConfigEnvVar
	if env == "" {
		env = DefaultConfigEnvVar
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if o.DefaultConfigPath != "" {
		return o.DefaultConfigPath, nil
	}
	return "", fmt.Errorf("cmd: no config path in $%s and no default", env)
}

// Run loads configuration, bootstraps the app and blocks in the Telegram
// runtime until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	path, err := opts.ConfigPath()
	if err != nil {
		return err
	}

	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return errors.New("cmd: config has no core section")
	}

	startedAt := time.Now()
	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer closeLogger(opts.ShutdownLogger)

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	announce(&runOpts, startedAt)

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// announce logs readiness after the app's own OnStart and the shutdown
// before its OnStop.
func announce(o *coretelegram.RunOptions, startedAt time.Time) {
	onStart, onStop := o.OnStart, o.OnStop
	o.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup", time.Since(startedAt)))
		return nil
	}
	o.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
}

func closeLogger(fn func() error) {
	if fn == nil {
		fn = logger.Shutdown
	}
	if err := fn(); err != nil {
		log.Printf("logger shutdown: %v", err)
	}
}
