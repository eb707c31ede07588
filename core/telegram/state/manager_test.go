package state

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

const awaiting State = "awaiting_count"

func open(t *testing.T, m *Manager, userID int64, token string) Session {
	t.Helper()
	s, ok := m.Open(context.Background(), OpenRequest{
		UserID:    userID,
		Name:      "Alice",
		Token:     token,
		Stage:     awaiting,
		Origin:    tele.StoredMessage{MessageID: "10", ChatID: -100},
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.True(t, ok)
	return s
}

func TestOpenSingleSessionPerUser(t *testing.T) {
	m := NewManager()
	s := open(t, m, 1, "t1")
	assert.Equal(t, awaiting, s.Current())
	assert.True(t, m.InProgress(1))
	assert.False(t, m.InProgress(2))

	cur, ok := m.Open(context.Background(), OpenRequest{UserID: 1, Token: "t2", Stage: awaiting})
	assert.False(t, ok)
	assert.Equal(t, "t1", cur.Token)
	assert.Equal(t, 1, m.Len())
}

func TestResolveRequiresToken(t *testing.T) {
	m := NewManager()
	open(t, m, 1, "t1")

	_, ok := m.Resolve(context.Background(), 1, "stale")
	assert.False(t, ok)
	assert.True(t, m.InProgress(1))

	var cancelled atomic.Bool
	require.True(t, m.AttachCancel(1, "t1", func() { cancelled.Store(true) }))

	s, ok := m.Resolve(context.Background(), 1, "t1")
	require.True(t, ok)
	assert.Equal(t, StateIdle, s.Current())
	assert.Equal(t, "Alice", s.Name)
	assert.Equal(t, "10", s.Origin.MessageID)
	assert.True(t, cancelled.Load())
	assert.False(t, m.InProgress(1))

	_, ok = m.Expire(context.Background(), 1, "t1")
	assert.False(t, ok, "closed session cannot be closed twice")
}

func TestAttachCancelAfterClose(t *testing.T) {
	m := NewManager()
	open(t, m, 1, "t1")
	_, ok := m.Expire(context.Background(), 1, "t1")
	require.True(t, ok)
	assert.False(t, m.AttachCancel(1, "t1", func() {}))
}

func TestConcurrentCloseHasOneWinner(t *testing.T) {
	m := NewManager()
	open(t, m, 7, "tok")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				_, ok = m.Resolve(context.Background(), 7, "tok")
			} else {
				_, ok = m.Expire(context.Background(), 7, "tok")
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

func TestResetCancelsPending(t *testing.T) {
	m := NewManager()
	open(t, m, 1, "a")
	open(t, m, 2, "b")
	var n atomic.Int32
	m.AttachCancel(1, "a", func() { n.Add(1) })
	m.AttachCancel(2, "b", func() { n.Add(1) })

	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.EqualValues(t, 2, n.Load())
}

func TestStateDefaultsToIdle(t *testing.T) {
	m := NewManager()
	assert.Equal(t, StateIdle, m.State(42))
	_, ok := m.Get(42)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, Session{}.Current())
}
