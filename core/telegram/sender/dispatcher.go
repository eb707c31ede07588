// Package sender delivers outbound Telegram calls off the update goroutine,
// retrying transient failures and honouring flood waits.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the queue cannot take another job.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tune the dispatcher. Zero values take defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job, retries included.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher runs queued calls on a fixed pool of workers.
type Dispatcher struct {
	opts Options
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	failed atomic.Uint64
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:  opts,
		jobs:  make(chan job, opts.QueueSize),
		sleep: sleepCtx,
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run. It never blocks: a full queue is reported as
// ErrQueueFull. run may be called more than once.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns how many jobs failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits until the queue drains.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) process(j job) {
	// The update that queued the job may already be done; keep its values
	// for logging but not its cancellation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	attrs := []slog.Attr{slog.String("action", j.action), slog.String("endpoint", j.endpoint)}
	start := time.Now()
	attempts := d.opts.MaxRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			logger.Debug(ctx, "tg.sender", "send.success",
				append(attrs, slog.Int("attempt", attempt), slog.Duration("elapsed", time.Since(start)))...)
			return
		}
		delay, ok := d.backoff(err, attempt)
		if !ok || attempt == attempts {
			break
		}
		logger.Debug(ctx, "tg.sender", "send.retry",
			append(attrs,
				slog.Int("attempt", attempt),
				slog.Duration("backoff", delay),
				slog.String("kind", netutil.Classify(err)),
			)...)
		if serr := d.sleep(ctx, delay); serr != nil {
			err = errors.Join(err, serr)
			break
		}
	}

	d.failed.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail",
		append(attrs,
			slog.String("err", netutil.Redact(err)),
			slog.String("kind", netutil.Classify(err)),
			slog.Int("attempts", attempts),
			slog.Duration("elapsed", time.Since(start)),
		)...)
}

// backoff returns how long to wait before attempt+1, or false when err is
// not worth retrying.
func (d *Dispatcher) backoff(err error, attempt int) (time.Duration, bool) {
	if wait, ok := netutil.RetryAfter(err); ok {
		return wait, true
	}
	if !netutil.ShouldRetry(err) {
		return 0, false
	}
	return d.opts.RetryBackoff * time.Duration(attempt), true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
