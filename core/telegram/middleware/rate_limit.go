package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Update kinds understood by RateLimitOptions.Exclude.
const (
	KindCallback = "callback"
	KindMessage  = "message"
	KindOther    = "other"
)

// UpdateKind classifies upd for rate limiting and logs.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return KindCallback
	case upd.Message != nil:
		return KindMessage
	}
	return KindOther
}

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// limiter remembers when each user was last let through.
type limiter struct {
	mu       sync.Mutex
	interval time.Duration
	seen     map[int64]time.Time
	sweepAt  time.Time
}

func (l *limiter) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.After(l.sweepAt) {
		for id, t := range l.seen {
			if now.Sub(t) >= l.interval {
				delete(l.seen, id)
			}
		}
		l.sweepAt = now.Add(time.Minute)
	}
	if last, ok := l.seen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.seen[userID] = now
	return true
}

// RateLimitMiddleware drops updates from a user that arrive sooner than
// Interval after the previous one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := &limiter{interval: opts.Interval, seen: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if lim.allow(user.ID, time.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
