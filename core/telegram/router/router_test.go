package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/commands"
)

type fakeContext struct {
	tele.Context
	upd       tele.Update
	store     map[string]any
	responded bool
}

func textUpdate(userID int64, text string) *fakeContext {
	return &fakeContext{upd: tele.Update{ID: 1, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: -100, Type: tele.ChatSuperGroup},
		Text:   text,
	}}}
}

func callbackUpdate(userID int64, unique, data string) *fakeContext {
	return &fakeContext{upd: tele.Update{ID: 2, Callback: &tele.Callback{
		Sender: &tele.User{ID: userID},
		Unique: unique,
		Data:   data,
	}}}
}

func (f *fakeContext) Update() tele.Update { return f.upd }
func (f *fakeContext) Message() *tele.Message {
	if f.upd.Callback != nil {
		return f.upd.Callback.Message
	}
	return f.upd.Message
}
func (f *fakeContext) Callback() *tele.Callback { return f.upd.Callback }
func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	if f.upd.Message != nil {
		return f.upd.Message.Sender
	}
	return nil
}
func (f *fakeContext) Chat() *tele.Chat {
	if m := f.Message(); m != nil {
		return m.Chat
	}
	return nil
}
func (f *fakeContext) Text() string {
	if f.upd.Message != nil {
		return f.upd.Message.Text
	}
	return ""
}
func (f *fakeContext) Get(k string) any { return f.store[k] }
func (f *fakeContext) Set(k string, v any) {
	if f.store == nil {
		f.store = map[string]any{}
	}
	f.store[k] = v
}
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded = true
	return nil
}

type fakeSessions struct {
	active  map[int64]bool
	handled int
}

func (s *fakeSessions) InProgress(id int64) bool { return s.active[id] }
func (s *fakeSessions) ManagerHandler(tele.Context) error {
	s.handled++
	return nil
}

type calls map[string]int

func (c calls) handler(name string) tele.HandlerFunc {
	return func(tele.Context) error { c[name]++; return nil }
}

func newRegistry(c calls) *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/report", commands.Command{Handler: c.handler("report"), Description: "r"})
	reg.RegisterCommand("/top", commands.Command{Handler: c.handler("top"), Description: "t", AdminOnly: true})
	reg.RegisterCommand("/help", commands.Command{Handler: c.handler("help"), Description: "h", Aliases: []string{"/start"}})
	return reg
}

func TestTextRoutes(t *testing.T) {
	c := calls{}
	sessions := &fakeSessions{active: map[int64]bool{7: true}}
	routes := TextRoutes(sessions, newRegistry(c), TextOptions{UnknownText: c.handler("unknown")})
	require.Len(t, routes, 1)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)
	h := routes[0].Handler

	require.NoError(t, h(textUpdate(7, "3к")))
	assert.Equal(t, 1, sessions.handled)

	require.NoError(t, h(textUpdate(8, "/start@Sterladometr_bot")))
	assert.Equal(t, 1, c["help"])

	require.NoError(t, h(textUpdate(8, "/top")))
	assert.Equal(t, 0, c["top"], "admin commands are never reached through text")
	assert.Equal(t, 1, c["unknown"])

	require.NoError(t, h(textUpdate(8, "привет")))
	assert.Equal(t, 2, c["unknown"])
}

func TestCallbackRoute(t *testing.T) {
	reg := tg.NewRegistry()
	var payload string
	require.NoError(t, reg.RegisterCallback("mood", func(c tele.Context) error {
		payload = c.Callback().Data
		return nil
	}))
	missing := 0
	route := CallbackRoute(reg, CallbackOptions{NotFound: func(tele.Context) error { missing++; return nil }})
	assert.Equal(t, tele.OnCallback, route.Endpoint)

	ctx := callbackUpdate(7, "mood", "green")
	require.NoError(t, route.Handler(ctx))
	assert.True(t, ctx.responded)
	assert.Equal(t, "green", payload)

	ctx = callbackUpdate(7, "", "\fgone|x")
	require.NoError(t, route.Handler(ctx))
	assert.True(t, ctx.responded)
	assert.Equal(t, 1, missing)
}

func TestCommandRoutesGateAdminCommands(t *testing.T) {
	c := calls{}
	routes := CommandRoutes(newRegistry(c), CommandRouteOptions{
		AdminID:       42,
		OnAdminReject: c.handler("rejected"),
	})
	byEndpoint := map[any]tele.HandlerFunc{}
	for _, r := range routes {
		byEndpoint[r.Endpoint] = r.Handler
	}
	require.Len(t, byEndpoint, 4)
	require.Contains(t, byEndpoint, "/start")

	require.NoError(t, byEndpoint["/top"](textUpdate(7, "/top")))
	assert.Equal(t, 0, c["top"])
	assert.Equal(t, 1, c["rejected"])

	require.NoError(t, byEndpoint["/top"](textUpdate(42, "/top")))
	assert.Equal(t, 1, c["top"])

	require.NoError(t, byEndpoint["/start"](textUpdate(7, "/start")))
	assert.Equal(t, 1, c["help"])
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/boom", commands.Command{Handler: func(tele.Context) error { panic("nil map") }, Description: "b"})
	routes := CommandRoutes(reg, CommandRouteOptions{})
	require.Len(t, routes, 1)
	err := routes[0].Handler(textUpdate(1, "/boom"))
	assert.ErrorContains(t, err, "nil map")
}

type quotaError struct{}

func (quotaError) Error() string { return "quota" }

type codedError struct{}

func (codedError) Error() string { return "x" }
func (codedError) Code() string  { return "flood wait" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "QUOTAERROR", errorCode(quotaError{}))
	assert.Equal(t, "QUOTAERROR", errorCode(&quotaError{}))
	assert.Equal(t, "FLOOD_WAIT", errorCode(fmtWrap(codedError{})))
	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("plain")))
}

func fmtWrap(err error) error { return errors.Join(err) }

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "send_weekly", handlerName("/Send_Weekly"))
	assert.Equal(t, "unknown", handlerName(" "))
}
