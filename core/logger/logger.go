// Package logger owns the process-wide slog setup. Every line carries a
// component and an event; request ids stored in the context are appended
// by the handler.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/buildinfo"
	coreconfig "github.com/anakalachikova-cmd/sterladometr-bot/core/config"
)

var (
	mu    sync.Mutex
	files []io.Closer
	level slog.LevelVar

	// L is the base logger. Until InitLogger runs it is slog.Default().
	L *slog.Logger

	// TWire logs handler and command registration.
	TWire *slog.Logger
	// HTTP logs the health endpoint.
	HTTP *slog.Logger
	// SCHED logs recurring and one-shot jobs.
	SCHED *slog.Logger
)

func init() {
	use(slog.Default())
}

func use(base *slog.Logger) {
	L = base
	TWire = Component("tg.wire")
	HTTP = Component("http")
	SCHED = Component("schedule")
}

// InitLogger installs the configured handler as the slog default and
// rebinds the component loggers. A repeated call replaces the sinks.
func InitLogger(cfg *coreconfig.Config) error {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	level.Set(parseLevel(lc.Level))

	out, err := openOutput(lc)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: &level, ReplaceAttr: replaceAttr}
	var h slog.Handler
	if textFormat(lc) {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}

	base := slog.New(contextHandler{next: h})
	slog.SetDefault(base)
	use(base)

	Info(context.Background(), "app", "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("log_level", level.Level().String()),
	)
	return nil
}

// Shutdown closes log files opened by InitLogger.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	files = nil
	return errors.Join(errs...)
}

func openOutput(lc coreconfig.LoggingConfig) (io.Writer, error) {
	dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.File)
	if dir == "" || name == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	mu.Lock()
	files = append(files, f)
	mu.Unlock()
	return io.MultiWriter(os.Stdout, f), nil
}

func textFormat(lc coreconfig.LoggingConfig) bool {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return true
	case "json":
		return false
	}
	p := strings.ToLower(strings.TrimSpace(lc.Profile))
	return p == "debug" || p == "dev"
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

// Component returns the base logger scoped to a component attribute.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With(slog.String("component", name))
}

// LogEvent logs attrs under event using logg, or the context logger when
// logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, event, attrs...)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}
