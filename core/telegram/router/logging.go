package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Summary statuses.
const (
	statusOK   = "ok"
	statusFail = "fail"
	statusSkip = "skip"
)

// run executes fn as handler name and logs its summary.
func run(c tele.Context, name string, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, name)
	err := fn()
	status := statusOK
	if err != nil {
		status = statusFail
	}
	logSummary(c, name, status, err, extras...)
	return err
}

// logSummary writes the handler.handled line: what ran, how long the update
// took and how many replies it produced.
func logSummary(c tele.Context, name, status string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)

	start, ok := c.Get("update_start").(time.Time)
	if !ok {
		start = time.Now()
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.Info(ctx, "tg", "handler.handled", attrs...)
}

func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers an explicit Code() and falls back to the error's type.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	typ := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndex(typ, "."); i >= 0 {
		typ = typ[i+1:]
	}
	return strings.ToUpper(typ)
}

// summarize wraps h so every run ends with one handler.handled line.
func summarize(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return run(c, name, func() error { return h(c) })
	}
}
