// Package digest turns the check-in log into group digests, the leaderboard
// and personal summaries, and posts the scheduled messages.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/common/clock"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/report"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

const component = "digest"

// ReminderText is the daily nudge.
const ReminderText = "🔔 *Напоминание*\nНе забудьте отметить свой день с помощью /report!"

// Span selects the personal summary window.
type Span string

const (
	SpanWeek  Span = "week"
	SpanMonth Span = "month"
)

// ErrUnknownSpan is returned for a span other than week or month.
var ErrUnknownSpan = errors.New("digest: unknown span")

// Snapshotter reads the current document.
type Snapshotter interface {
	Snapshot(ctx context.Context) *storage.Snapshot
}

//go:generate mockgen -package=mocks -destination=mocks/mock_poster.go github.com/anakalachikova-cmd/sterladometr-bot/internal/digest Poster
type Poster interface {
	// Post publishes Markdown text to the reports topic.
	Post(ctx context.Context, text string) error
}

// Config holds the service dependencies.
type Config struct {
	Store    Snapshotter
	Poster   Poster
	Clock    clock.Clock
	Location *time.Location
	TopN     int
}

// Service renders and posts digests.
type Service struct {
	store  Snapshotter
	poster Poster
	clock  clock.Clock
	loc    *time.Location
	topN   int
}

// New validates cfg and builds the service.
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if cfg.Poster == nil {
		return nil, errors.New("poster cannot be nil")
	}
	s := &Service{
		store:  cfg.Store,
		poster: cfg.Poster,
		clock:  cfg.Clock,
		loc:    cfg.Location,
		topN:   cfg.TopN,
	}
	if s.clock == nil {
		s.clock = &clock.DefaultClock{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.topN <= 0 {
		s.topN = report.DefaultTopN
	}
	return s, nil
}

func (s *Service) today() time.Time {
	return s.clock.Now().In(s.loc)
}

// WeeklyReport renders the last seven days plus today.
func (s *Service) WeeklyReport(ctx context.Context) string {
	p := report.WeekPeriod(s.today())
	return report.RenderPeriod(report.WeeklyTitle, p, report.PeriodTotals(s.store.Snapshot(ctx), p))
}

// MonthlyReport renders the current calendar month up to today.
func (s *Service) MonthlyReport(ctx context.Context) string {
	p := report.MonthPeriod(s.today())
	return report.RenderPeriod(report.MonthlyTitle, p, report.PeriodTotals(s.store.Snapshot(ctx), p))
}

// TopReport renders the weekly leaderboard.
func (s *Service) TopReport(ctx context.Context) string {
	p := report.WeekPeriod(s.today())
	return report.RenderTop(s.topN, report.TopN(s.store.Snapshot(ctx), p, s.topN))
}

// PersonalReport renders one member's summary. ok is false when the member
// has never checked in.
func (s *Service) PersonalReport(ctx context.Context, userID int64, span Span) (text string, ok bool, err error) {
	var (
		p     report.Period
		title string
	)
	today := s.today()
	switch span {
	case SpanWeek:
		p, title = report.PersonalWeek(today), report.PersonalWeekTitle
	case SpanMonth:
		p, title = report.PersonalMonth(today), report.PersonalMonthTitle
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownSpan, span)
	}

	u, found := s.store.Snapshot(ctx).User(strconv.FormatInt(userID, 10))
	if !found {
		return "", false, nil
	}
	return report.RenderPersonal(title, report.Personal(u, p)), true, nil
}

// SendReminder posts the daily reminder.
func (s *Service) SendReminder(ctx context.Context) error {
	return s.post(ctx, "reminder", ReminderText)
}

// SendWeekly posts the weekly digest.
func (s *Service) SendWeekly(ctx context.Context) error {
	return s.post(ctx, "weekly", s.WeeklyReport(ctx))
}

// SendMonthly posts the monthly digest.
func (s *Service) SendMonthly(ctx context.Context) error {
	return s.post(ctx, "monthly", s.MonthlyReport(ctx))
}

func (s *Service) post(ctx context.Context, kind, text string) error {
	if err := s.poster.Post(ctx, text); err != nil {
		logger.Error(ctx, component, "post.fail",
			slog.String("job", kind),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("post %s: %w", kind, err)
	}
	logger.Info(ctx, component, "post.ok",
		slog.String("job", kind),
		slog.Int("bytes", len(text)),
	)
	return nil
}
