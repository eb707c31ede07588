// Package checkin runs the daily mood check-in: a mood pick, and for intensive
// writing days a bounded wait for the character count.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/state"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/common/clock"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/common/token"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/numparse"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

const component = "checkin"

// StageAwaitingCount is the session stage while a character count is expected.
const StageAwaitingCount state.State = "awaiting_count"

const (
	// DefaultTimeout is how long a count is awaited.
	DefaultTimeout = 5 * time.Minute
	// DefaultFallbackCount is credited when the wait runs out.
	DefaultFallbackCount = 100
)

var (
	// ErrNoSession is returned when no count is awaited from the user, including
	// when the session was closed by a concurrent timeout.
	ErrNoSession = errors.New("checkin: no open session")
	// ErrSessionActive is returned when a mood is picked while a count is still awaited.
	ErrSessionActive = errors.New("checkin: count still awaited")
	// ErrUnknownMood is returned for a mood tag outside the known set.
	ErrUnknownMood = errors.New("checkin: unknown mood")
)

// Store is the persistence the workflow needs.
type Store interface {
	RecordMood(ctx context.Context, userID, name, date string, mood storage.Mood) error
	RecordEntry(ctx context.Context, userID, name, date string, count int) (bool, error)
	RecordFallback(ctx context.Context, userID, name, date string, count int) (bool, error)
}

// Timers schedules one-shot deferred actions.
type Timers interface {
	After(d time.Duration, fn func()) (cancel func())
}

//go:generate mockgen -package=mocks -destination=mocks/mock_notifier.go github.com/anakalachikova-cmd/sterladometr-bot/internal/checkin Notifier
type Notifier interface {
	NotifyTimeout(ctx context.Context, n TimeoutNotice)
}

// TimeoutNotice tells the member what happened when the wait ran out.
type TimeoutNotice struct {
	UserID   int64
	Name     string
	Origin   tele.StoredMessage
	Count    int
	Credited bool
	Timeout  time.Duration
}

// Member identifies who is checking in.
type Member struct {
	ID   int64
	Name string
}

// MoodResult describes a recorded mood.
type MoodResult struct {
	Mood          storage.Mood
	Date          string
	AwaitingCount bool
}

// SubmitResult describes a recorded count.
type SubmitResult struct {
	Count       int
	Date        string
	Overwritten bool
}

// Config holds the service dependencies.
type Config struct {
	Store    Store
	Sessions *state.Manager
	Timers   Timers
	Clock    clock.Clock
	Tokens   token.Source
	Notifier Notifier

	Timeout       time.Duration
	FallbackCount int
	Location      *time.Location
}

// Service implements the check-in workflow.
type Service struct {
	store    Store
	sessions *state.Manager
	timers   Timers
	clock    clock.Clock
	tokens   token.Source
	notifier Notifier

	timeout  time.Duration
	fallback int
	loc      *time.Location
}

// New validates cfg and builds the service.
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager cannot be nil")
	}
	if cfg.Timers == nil {
		return nil, errors.New("timers cannot be nil")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("notifier cannot be nil")
	}

	s := &Service{
		store:    cfg.Store,
		sessions: cfg.Sessions,
		timers:   cfg.Timers,
		clock:    cfg.Clock,
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
		timeout:  cfg.Timeout,
		fallback: cfg.FallbackCount,
		loc:      cfg.Location,
	}
	if s.clock == nil {
		s.clock = &clock.DefaultClock{}
	}
	if s.tokens == nil {
		s.tokens = token.New()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.fallback <= 0 {
		s.fallback = DefaultFallbackCount
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s, nil
}

// Timeout returns how long a count is awaited.
func (s *Service) Timeout() time.Duration { return s.timeout }

// FallbackCount returns the count credited on timeout.
func (s *Service) FallbackCount() int { return s.fallback }

// Sessions exposes the session store for routing.
func (s *Service) Sessions() *state.Manager { return s.sessions }

// SelectMood records today's mood. Picking green opens a session that waits
// for the character count; origin is the message the prompt replaced.
func (s *Service) SelectMood(ctx context.Context, m Member, mood storage.Mood, origin tele.StoredMessage) (MoodResult, error) {
	if !mood.Valid() {
		return MoodResult{}, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	now := s.clock.Now().In(s.loc)
	date := storage.DateKey(now)
	res := MoodResult{Mood: mood, Date: date, AwaitingCount: mood == storage.MoodGreen}

	if !res.AwaitingCount {
		if s.sessions.InProgress(m.ID) {
			return MoodResult{}, ErrSessionActive
		}
		if err := s.store.RecordMood(ctx, userKey(m.ID), m.Name, date, mood); err != nil {
			return MoodResult{}, fmt.Errorf("record mood: %w", err)
		}
		logger.Info(ctx, component, "mood.recorded",
			slog.Int64("user_id", m.ID),
			slog.String("mood", string(mood)),
			slog.String("period", date),
		)
		return res, nil
	}

	tok := s.tokens.NewToken()
	if _, ok := s.sessions.Open(ctx, state.OpenRequest{
		UserID:    m.ID,
		Name:      m.Name,
		Token:     tok,
		Stage:     StageAwaitingCount,
		Origin:    origin,
		StartedAt: now,
	}); !ok {
		return MoodResult{}, ErrSessionActive
	}

	if err := s.store.RecordMood(ctx, userKey(m.ID), m.Name, date, mood); err != nil {
		s.sessions.Expire(ctx, m.ID, tok)
		return MoodResult{}, fmt.Errorf("record mood: %w", err)
	}

	payload := timeoutPayload{userID: m.ID, name: m.Name, token: tok}
	cancel := s.timers.After(s.timeout, func() {
		s.expire(payload)
	})
	if !s.sessions.AttachCancel(m.ID, tok, cancel) {
		cancel()
	}

	logger.Info(ctx, component, "session.opened",
		slog.Int64("user_id", m.ID),
		slog.String("mood", string(mood)),
		slog.String("period", date),
		slog.Duration("timeout", s.timeout),
	)
	return res, nil
}

// SubmitCount parses text and, on success, closes the session and records
// the count for today. A parse failure leaves the session and its deadline
// untouched and returns numparse.ErrInvalidNumber.
func (s *Service) SubmitCount(ctx context.Context, m Member, text string) (SubmitResult, error) {
	sess, ok := s.sessions.Get(m.ID)
	if !ok {
		return SubmitResult{}, ErrNoSession
	}

	n, err := numparse.Parse(text)
	if err != nil {
		logger.Debug(ctx, component, "count.invalid",
			slog.Int64("user_id", m.ID),
			slog.String("payload", logger.SanitizeLimit(text, 64)),
		)
		return SubmitResult{}, err
	}

	if _, ok := s.sessions.Resolve(ctx, m.ID, sess.Token); !ok {
		logger.Debug(ctx, component, "count.late",
			slog.Int64("user_id", m.ID),
			slog.String("reason", "session_closed"),
		)
		return SubmitResult{}, ErrNoSession
	}

	date := storage.DateKey(s.clock.Now().In(s.loc))
	overwritten, err := s.store.RecordEntry(ctx, userKey(m.ID), m.Name, date, n)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("record entry: %w", err)
	}
	logger.Info(ctx, component, "count.recorded",
		slog.Int64("user_id", m.ID),
		slog.Int("entry", n),
		slog.Bool("overwritten", overwritten),
		slog.String("period", date),
	)
	return SubmitResult{Count: n, Date: date, Overwritten: overwritten}, nil
}

type timeoutPayload struct {
	userID int64
	name   string
	token  string
}

// expire runs on the timer goroutine.
func (s *Service) expire(p timeoutPayload) {
	ctx := logger.WithRID(context.Background(), "timeout:"+shortToken(p.token))
	ctx = logger.WithUpdateMeta(ctx, 0, p.userID, 0)

	sess, ok := s.sessions.Expire(ctx, p.userID, p.token)
	if !ok {
		logger.Debug(ctx, component, "timeout.skip", slog.String("reason", "session_closed"))
		return
	}

	date := storage.DateKey(s.clock.Now().In(s.loc))
	credited, err := s.store.RecordFallback(ctx, userKey(p.userID), p.name, date, s.fallback)
	if err != nil {
		logger.Error(ctx, component, "timeout.fail",
			slog.String("period", date),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(ctx, component, "timeout.fired",
		slog.Bool("credited", credited),
		slog.Int("entry", s.fallback),
		slog.String("period", date),
	)

	s.notifier.NotifyTimeout(ctx, TimeoutNotice{
		UserID:   p.userID,
		Name:     p.name,
		Origin:   sess.Origin,
		Count:    s.fallback,
		Credited: credited,
		Timeout:  s.timeout,
	})
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func shortToken(t string) string {
	if len(t) > 8 {
		return t[:8]
	}
	return t
}
