package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"
	tele "gopkg.in/telebot.v4"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"
)

// Manager is an in-memory session store. At most one session per user.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	handlersMu sync.RWMutex
	handlers   map[State]tele.HandlerFunc
}

// NewManager returns an empty store.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// Open starts a session unless the user already has one.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.sessions[req.UserID]; ok {
		return *cur, false
	}

	s := &Session{
		UserID:    req.UserID,
		Name:      req.Name,
		Token:     req.Token,
		Stage:     req.Stage,
		Origin:    req.Origin,
		StartedAt: req.StartedAt,
		machine:   newMachine(req.UserID, req.Stage),
	}
	if err := s.machine.Event(ctx, EventOpen); err != nil {
		logger.Warn(ctx, "tg.state", "fsm.event.fail",
			slog.Int64("user_id", req.UserID),
			slog.String("op", EventOpen),
			slog.String("err", err.Error()),
		)
	}
	m.sessions[req.UserID] = s
	return *s, true
}

// AttachCancel stores the cancel handle of the session's deferred action.
// It returns false when the session is gone or was replaced, in which case
// the caller owns cancel.
func (m *Manager) AttachCancel(userID int64, token string, cancel func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok || s.Token != token {
		return false
	}
	s.cancel = cancel
	return true
}

// Get returns a copy of the user's session.
func (m *Manager) Get(userID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Resolve closes the session because the awaited input arrived. The pending
// deferred action is cancelled. Only the caller that presents the current
// token wins; everyone else gets false.
func (m *Manager) Resolve(ctx context.Context, userID int64, token string) (Session, bool) {
	return m.take(ctx, userID, token, EventResolve)
}

// Expire closes the session because its deadline passed.
func (m *Manager) Expire(ctx context.Context, userID int64, token string) (Session, bool) {
	return m.take(ctx, userID, token, EventExpire)
}

func (m *Manager) take(ctx context.Context, userID int64, token, event string) (Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok || s.Token != token {
		m.mu.Unlock()
		return Session{}, false
	}
	delete(m.sessions, userID)
	m.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if err := s.machine.Event(ctx, event); err != nil {
		logger.Warn(ctx, "tg.state", "fsm.event.fail",
			slog.Int64("user_id", userID),
			slog.String("op", event),
			slog.String("err", err.Error()),
		)
	}
	return *s, true
}

// State returns the user's current stage or StateIdle.
func (m *Manager) State(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.Stage
	}
	return StateIdle
}

// InProgress reports whether the user has an open session.
func (m *Manager) InProgress(userID int64) bool {
	return m.State(userID) != StateIdle
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reset drops every session and cancels their deferred actions.
func (m *Manager) Reset() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		if s.cancel != nil {
			s.cancel()
		}
	}
}

// Handle registers the handler invoked for updates from users in st.
func (m *Manager) Handle(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler dispatches the update to the handler of the sender's state.
func (m *Manager) ManagerHandler(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	current := m.State(sender.ID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg.state", "fsm.dispatch",
		slog.String("status", "ok"),
		slog.Int64("user_id", sender.ID),
		slog.String("state", string(current)),
	)

	m.handlersMu.RLock()
	h, ok := m.handlers[current]
	m.handlersMu.RUnlock()
	if !ok {
		return nil
	}
	return h(c)
}

func newMachine(userID int64, stage State) *fsm.FSM {
	idle := string(StateIdle)
	return fsm.NewFSM(idle,
		fsm.Events{
			{Name: EventOpen, Src: []string{idle}, Dst: string(stage)},
			{Name: EventResolve, Src: []string{string(stage)}, Dst: idle},
			{Name: EventExpire, Src: []string{string(stage)}, Dst: idle},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				logger.Debug(ctx, "tg.state", "fsm.transition",
					slog.Int64("user_id", userID),
					slog.String("op", e.Event),
					slog.String("from", e.Src),
					slog.String("to", e.Dst),
				)
			},
		},
	)
}
