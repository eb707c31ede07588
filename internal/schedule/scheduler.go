// Package schedule fires the recurring club posts and provides the one-shot
// timers behind the check-in deadline.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/common/token"
)

// Job names.
const (
	JobReminder = "reminder"
	JobWeekly   = "weekly"
	JobMonthly  = "monthly"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 2 * time.Minute

// ErrUnknownJob is returned by RunNow for an unregistered name.
var ErrUnknownJob = errors.New("schedule: unknown job")

// Jobs are the actions fired on schedule.
type Jobs interface {
	SendReminder(ctx context.Context) error
	SendWeekly(ctx context.Context) error
	SendMonthly(ctx context.Context) error
}

// Config holds the schedule and its actions.
type Config struct {
	Jobs     Jobs
	Location *time.Location

	ReminderHour int
	WeeklyDay    time.Weekday
	WeeklyHour   int
	MonthlyHour  int

	JobTimeout time.Duration
	Tokens     token.Source
}

type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	run      func(ctx context.Context) error
}

// Scheduler runs the recurring jobs in one fixed location.
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	jobs    map[string]*job
	timeout time.Duration
	tokens  token.Source

	mu      sync.Mutex
	base    context.Context
	started bool
}

// Specs returns the cron expressions for cfg keyed by job name.
func Specs(cfg *Config) map[string]string {
	return map[string]string{
		JobReminder: fmt.Sprintf("0 %d * * *", cfg.ReminderHour),
		JobWeekly:   fmt.Sprintf("0 %d * * %d", cfg.WeeklyHour, int(cfg.WeeklyDay)),
		JobMonthly:  fmt.Sprintf("0 %d 1 * *", cfg.MonthlyHour),
	}
}

// New parses the schedule and registers the jobs. Nothing runs until Start.
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Jobs == nil {
		return nil, errors.New("jobs cannot be nil")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
			cron.WithLogger(cronLogger{}),
		),
		loc:     loc,
		jobs:    make(map[string]*job, 3),
		timeout: cfg.JobTimeout,
		tokens:  cfg.Tokens,
		base:    context.Background(),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultJobTimeout
	}
	if s.tokens == nil {
		s.tokens = token.New()
	}

	runs := map[string]func(context.Context) error{
		JobReminder: cfg.Jobs.SendReminder,
		JobWeekly:   cfg.Jobs.SendWeekly,
		JobMonthly:  cfg.Jobs.SendMonthly,
	}
	for name, spec := range Specs(cfg) {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("job %s spec %q: %w", name, spec, err)
		}
		j := &job{name: name, spec: spec, schedule: sched, run: runs[name]}
		s.jobs[name] = j
		s.cron.Schedule(sched, cron.FuncJob(func() { _ = s.execute(s.context(), j) }))
	}
	return s, nil
}

// Start begins firing jobs. ctx is the parent of every job run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	if ctx != nil {
		s.base = ctx
	}
	s.mu.Unlock()

	s.cron.Start()
	now := time.Now().In(s.loc)
	for _, e := range s.Entries(now) {
		logger.SCHED.Info("job scheduled",
			slog.String("event", "schedule.add"),
			slog.String("job", e.Name),
			slog.String("spec", e.Spec),
			slog.Time("next", e.Next),
		)
	}
}

// Stop halts the scheduler and waits for running jobs or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.SCHED.Info("scheduler stopped", slog.String("event", "schedule.stop"))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a job immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, j)
}

// Entry describes a scheduled job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

// Entries lists the jobs with their next fire time after t, by time.
func (s *Scheduler) Entries(t time.Time) []Entry {
	out := make([]Entry, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, Entry{Name: j.name, Spec: j.spec, Next: j.schedule.Next(t.In(s.loc))})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Next.Equal(out[b].Next) {
			return out[a].Name < out[b].Name
		}
		return out[a].Next.Before(out[b].Next)
	})
	return out
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

func (s *Scheduler) execute(parent context.Context, j *job) (err error) {
	tok := s.tokens.NewToken()
	if len(tok) > 8 {
		tok = tok[:8]
	}
	ctx, cancel := context.WithTimeout(logger.WithRID(parent, "cron:"+j.name+":"+tok), s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
			logger.SCHED.Error("job panic",
				slog.String("event", "job.panic"),
				slog.String("job", j.name),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	err = j.run(ctx)
	took := logger.RoundMS(time.Since(start))
	if err != nil {
		logger.SCHED.ErrorContext(ctx, "job failed",
			slog.String("event", "job.fail"),
			slog.String("job", j.name),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.SCHED.InfoContext(ctx, "job done",
		slog.String("event", "job.done"),
		slog.String("job", j.name),
		slog.Duration("duration", took),
	)
	return nil
}

// cronLogger routes cron's own diagnostics to the schedule logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.SCHED.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.SCHED.Error(msg, append(keysAndValues, "err", err.Error())...)
}
