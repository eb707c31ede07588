package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/commands"
)

func nop(tele.Context) error { return nil }

func TestCommandName(t *testing.T) {
	tests := map[string]string{
		"/help":                    "/help",
		"/Help@Sterladometr_bot x": "/help",
		"  /report  ":              "/report",
		"report":                   "",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CommandName(in), in)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/report", commands.Command{Handler: nop, Description: "report"})
	reg.RegisterCommand("/top", commands.Command{Handler: nop, Description: "top", AdminOnly: true})
	reg.RegisterCommand("/help", commands.Command{Handler: nop, Description: "help", Aliases: []string{"/start"}})
	reg.RegisterCommand("/secret", commands.Command{Handler: nop, Description: "s", Hidden: true})

	reg.RegisterCommand("/report", commands.Command{Handler: nop, Description: "again"})
	reg.RegisterCommand("noslash", commands.Command{Handler: nop, Description: "x"})
	reg.RegisterCommand("/empty", commands.Command{Handler: nop})

	var menu []string
	for _, c := range reg.ListCommands(true) {
		menu = append(menu, c.Text)
	}
	assert.Equal(t, []string{"report", "top", "help"}, menu)
	assert.Len(t, reg.ListCommands(false), 4)

	key, cmd, ok := reg.LookupCommand("/start@Sterladometr_bot")
	require.True(t, ok)
	assert.Equal(t, "/help", key)
	assert.Equal(t, "help", cmd.Description)

	_, cmd, ok = reg.LookupCommand("/report")
	require.True(t, ok)
	assert.Equal(t, "report", cmd.Description)

	_, _, ok = reg.LookupCommand("hello")
	assert.False(t, ok)

	eps := reg.Commands()
	assert.Len(t, eps, 5)
	assert.Contains(t, eps, "/start")
}

func TestCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("mood", nop))
	assert.Error(t, reg.RegisterCallback("mood", nop))
	assert.Error(t, reg.RegisterCallback("", nop))
	require.NoError(t, reg.RegisterCallback("stats", nop))

	_, ok := reg.GetCallback("mood")
	assert.True(t, ok)
	assert.Equal(t, []string{"mood", "stats"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())

	called := false
	reg.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	require.NoError(t, reg.CallbackNotFound()(nil))
	assert.True(t, called)
}

type menuRecorder struct {
	got []tele.Command
	err error
}

func (m *menuRecorder) SetCommands(opts ...interface{}) error {
	if len(opts) > 0 {
		m.got, _ = opts[0].([]tele.Command)
	}
	return m.err
}

func TestInitBotCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/stats", commands.Command{Handler: nop, Description: "stats"})

	rec := &menuRecorder{}
	InitBotCommands(rec, reg)
	require.Len(t, rec.got, 1)
	assert.Equal(t, "stats", rec.got[0].Text)

	InitBotCommands(&menuRecorder{err: errors.New("forbidden")}, reg)
}
