package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return nil
}

func newTestDispatcher(opts Options) (*Dispatcher, *recordedSleep) {
	d := NewDispatcher(opts)
	rec := &recordedSleep{}
	d.sleep = rec.sleep
	return d, rec
}

func TestDeliversQueuedJobs(t *testing.T) {
	d, _ := newTestDispatcher(Options{Workers: 2})
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Enqueue(context.Background(), "post", "sendMessage", func() error {
			n.Add(1)
			return nil
		}))
	}
	d.Close()
	assert.EqualValues(t, 10, n.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestRetriesTransientFailures(t *testing.T) {
	d, rec := newTestDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Second})
	var calls atomic.Int32
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	require.NoError(t, d.Enqueue(context.Background(), "post", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return dial
		}
		return nil
	}))
	d.Close()

	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
	assert.Zero(t, d.ErrorCount())
}

func TestFloodWaitUsesRetryAfter(t *testing.T) {
	d, rec := newTestDispatcher(Options{Workers: 1, MaxRetries: 1})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "post", "sendMessage", func() error {
		if calls.Add(1) == 1 {
			return tele.FloodError{RetryAfter: 7}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, []time.Duration{7 * time.Second}, rec.delays)
}

func TestPermanentFailureIsNotRetried(t *testing.T) {
	d, rec := newTestDispatcher(Options{Workers: 1, MaxRetries: 3})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "post", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("telegram: chat not found (400)")
	}))
	d.Close()
	assert.EqualValues(t, 1, calls.Load())
	assert.Empty(t, rec.delays)
	assert.EqualValues(t, 1, d.ErrorCount())
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	d.Close()
	assert.ErrorIs(t, d.Enqueue(context.Background(), "post", "", func() error { return nil }), ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "post", "", nil))
}

func TestQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "queued", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(context.Background(), "overflow", "", func() error { return nil }), ErrQueueFull)
	close(release)
	d.Close()
}
