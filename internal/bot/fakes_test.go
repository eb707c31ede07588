package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"
)

type outgoing struct {
	text string
	opts *tele.SendOptions
}

// fakeContext implements the part of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context

	update tele.Update
	sender *tele.User
	msg    *tele.Message
	cb     *tele.Callback
	store  map[string]interface{}

	sent   []outgoing
	edited []outgoing
}

func newMessageContext(user *tele.User, chatID int64, thread int, text string) *fakeContext {
	msg := &tele.Message{ID: 10, Chat: &tele.Chat{ID: chatID}, ThreadID: thread, Text: text, Sender: user}
	return &fakeContext{update: tele.Update{ID: 1, Message: msg}, sender: user, msg: msg, store: map[string]interface{}{}}
}

func newCallbackContext(user *tele.User, chatID int64, thread int, data string) *fakeContext {
	msg := &tele.Message{ID: 77, Chat: &tele.Chat{ID: chatID}, ThreadID: thread}
	cb := &tele.Callback{ID: "cb", Sender: user, Message: msg, Data: data}
	return &fakeContext{update: tele.Update{ID: 2, Callback: cb}, sender: user, msg: msg, cb: cb, store: map[string]interface{}{}}
}

func (f *fakeContext) Update() tele.Update        { return f.update }
func (f *fakeContext) Sender() *tele.User         { return f.sender }
func (f *fakeContext) Message() *tele.Message     { return f.msg }
func (f *fakeContext) Callback() *tele.Callback   { return f.cb }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) {
	f.store[key] = v
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.msg == nil {
		return nil
	}
	return f.msg.Chat
}

func (f *fakeContext) Text() string {
	if f.msg == nil {
		return ""
	}
	return f.msg.Text
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, outgoing{text: what.(string), opts: sendOptions(opts)})
	return nil
}

func (f *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	f.edited = append(f.edited, outgoing{text: what.(string), opts: sendOptions(opts)})
	return nil
}

func (f *fakeContext) lastSent() outgoing {
	if len(f.sent) == 0 {
		return outgoing{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeContext) lastEdit() outgoing {
	if len(f.edited) == 0 {
		return outgoing{}
	}
	return f.edited[len(f.edited)-1]
}

func sendOptions(opts []interface{}) *tele.SendOptions {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}

type apiCall struct {
	to   tele.Recipient
	text string
	opts *tele.SendOptions
}

type fakeAPI struct {
	mu      sync.Mutex
	sends   []apiCall
	edits   []tele.Editable
	sendErr map[string]error
	role    tele.MemberStatus
	roleErr error
	lookups int
}

func (a *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.sendErr[to.Recipient()]; err != nil {
		return nil, err
	}
	a.sends = append(a.sends, apiCall{to: to, text: what.(string), opts: sendOptions(opts)})
	return &tele.Message{ID: len(a.sends)}, nil
}

func (a *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.edits = append(a.edits, msg)
	return &tele.Message{}, nil
}

func (a *fakeAPI) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lookups++
	if a.roleErr != nil {
		return nil, a.roleErr
	}
	return &tele.ChatMember{Role: a.role}, nil
}

type manualTimers struct {
	mu        sync.Mutex
	fns       []func()
	cancelled int
}

func (m *manualTimers) After(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
	return func() {
		m.mu.Lock()
		m.cancelled++
		m.mu.Unlock()
	}
}

type fakeJobs struct {
	ran []string
	err error
}

func (j *fakeJobs) RunNow(_ context.Context, name string) error {
	j.ran = append(j.ran, name)
	return j.err
}

type fakePrivate struct {
	texts map[int64]string
	err   error
}

func (p *fakePrivate) SendPrivate(_ context.Context, userID int64, text string) error {
	if p.err != nil {
		return p.err
	}
	if p.texts == nil {
		p.texts = map[int64]string{}
	}
	p.texts[userID] = text
	return nil
}

var errBlocked = errors.New("telegram: bot was blocked by the user (403)")
