package state

import (
	"time"

	"github.com/looplab/fsm"
	tele "gopkg.in/telebot.v4"
)

// State identifies a conversation step.
type State string

// StateIdle means no conversation is in progress.
const StateIdle State = "idle"

// Session lifecycle events.
const (
	EventOpen    = "open"
	EventResolve = "resolve"
	EventExpire  = "expire"
)

// Session is one user's open conversation.
type Session struct {
	UserID    int64
	Name      string
	Token     string
	Stage     State
	Origin    tele.StoredMessage
	StartedAt time.Time

	cancel  func()
	machine *fsm.FSM
}

// Current returns the machine state; StateIdle once the session is closed.
func (s Session) Current() State {
	if s.machine == nil {
		return StateIdle
	}
	return State(s.machine.Current())
}

// OpenRequest describes a session to open.
type OpenRequest struct {
	UserID    int64
	Name      string
	Token     string
	Stage     State
	Origin    tele.StoredMessage
	StartedAt time.Time
}
