// Package bot binds the club workflows to Telegram: commands, inline buttons,
// the awaited count and outbound messages.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tg "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/callbacks"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/commands"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/state"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/ui"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/checkin"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/digest"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/numparse"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/schedule"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

const component = "bot"

var _ ui.FallbackProvider = (*Handlers)(nil)

// Checkins is the check-in workflow.
type Checkins interface {
	SelectMood(ctx context.Context, m checkin.Member, mood storage.Mood, origin tele.StoredMessage) (checkin.MoodResult, error)
	SubmitCount(ctx context.Context, m checkin.Member, text string) (checkin.SubmitResult, error)
}

// Reports renders the on-demand summaries.
type Reports interface {
	TopReport(ctx context.Context) string
	PersonalReport(ctx context.Context, userID int64, span digest.Span) (string, bool, error)
}

// JobRunner fires a scheduled job out of schedule.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

// PrivateSender delivers a private message and reports the outcome.
type PrivateSender interface {
	SendPrivate(ctx context.Context, userID int64, text string) error
}

// Config wires the handlers.
type Config struct {
	GroupChatID   int64
	InputThreadID int
	BotUsername   string

	Checkins Checkins
	Reports  Reports
	Jobs     JobRunner
	Private  PrivateSender

	Timeout       time.Duration
	FallbackCount int
}

// Handlers serve every update the bot reacts to.
type Handlers struct {
	cfg Config
}

// NewHandlers validates cfg.
func NewHandlers(cfg Config) (*Handlers, error) {
	switch {
	case cfg.Checkins == nil:
		return nil, errors.New("checkins cannot be nil")
	case cfg.Reports == nil:
		return nil, errors.New("reports cannot be nil")
	case cfg.Jobs == nil:
		return nil, errors.New("job runner cannot be nil")
	case cfg.Private == nil:
		return nil, errors.New("private sender cannot be nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = checkin.DefaultTimeout
	}
	if cfg.FallbackCount <= 0 {
		cfg.FallbackCount = checkin.DefaultFallbackCount
	}
	return &Handlers{cfg: cfg}, nil
}

// Register adds the commands and callbacks to reg and the count handler to
// sessions. Menu order follows registration order.
func (h *Handlers) Register(reg *tg.Registry, sessions *state.Manager) error {
	reg.RegisterCommand("/report", commands.Command{Handler: h.Report, Description: descReport})
	reg.RegisterCommand("/stats", commands.Command{Handler: h.Stats, Description: descStats})
	reg.RegisterCommand("/top", commands.Command{Handler: h.Top, Description: descTop, AdminOnly: true})
	reg.RegisterCommand("/send_weekly", commands.Command{Handler: h.SendWeekly, Description: descSendWeekly, AdminOnly: true})
	reg.RegisterCommand("/help", commands.Command{Handler: h.Help, Description: descHelp, Aliases: []string{"/start"}})

	if err := reg.RegisterCallback(CallbackMood, h.Mood); err != nil {
		return err
	}
	if err := reg.RegisterCallback(CallbackStats, h.StatsPeriod); err != nil {
		return err
	}
	sessions.Handle(checkin.StageAwaitingCount, h.Count)
	return nil
}

// inInput reports whether msg was posted in the check-in topic.
func (h *Handlers) inInput(msg *tele.Message) bool {
	return msg != nil && msg.Chat != nil &&
		msg.Chat.ID == h.cfg.GroupChatID && msg.ThreadID == h.cfg.InputThreadID
}

// Report opens the check-in with the mood keyboard.
func (h *Handlers) Report(c tele.Context) error {
	if !h.inInput(c.Message()) {
		return tghelpers.SendMD(c, textReportDenied)
	}
	return tghelpers.SendText(c, textMoodPrompt, tghelpers.ThreadOptions(c, tele.ModeDefault, moodKeyboard()))
}

// Mood records the pressed mood. Presses outside the check-in topic are
// ignored.
func (h *Handlers) Mood(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || c.Sender() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if !h.inInput(cb.Message) {
		logger.Debug(ctx, component, "mood.skip", slog.String("reason", "outside_input"))
		return nil
	}

	mood := storage.Mood(callbacks.CallbackPayload(c))
	res, err := h.cfg.Checkins.SelectMood(ctx, member(c.Sender()), mood, origin(cb.Message))
	switch {
	case errors.Is(err, checkin.ErrUnknownMood):
		logger.Warn(ctx, component, "mood.unknown", slog.String("payload", logger.SanitizeLimit(string(mood), 32)))
		return nil
	case errors.Is(err, checkin.ErrSessionActive):
		return tghelpers.SendText(c, textCountFirst)
	case err != nil:
		_ = tghelpers.SendText(c, textMoodFailed)
		return err
	}

	if res.AwaitingCount {
		return tghelpers.EditText(c, textCountPrompt)
	}
	return tghelpers.EditText(c, moodRecorded(res.Mood))
}

// Count takes the awaited character count.
func (h *Handlers) Count(c tele.Context) error {
	if c.Sender() == nil || !h.inInput(c.Message()) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	res, err := h.cfg.Checkins.SubmitCount(ctx, member(c.Sender()), c.Text())
	switch {
	case errors.Is(err, numparse.ErrInvalidNumber):
		return tghelpers.SendText(c, textCountInvalid)
	case errors.Is(err, checkin.ErrNoSession):
		return nil
	case err != nil:
		return err
	}
	return tghelpers.SendMD(c, countRecorded(res))
}

// Stats offers the personal summary periods.
func (h *Handlers) Stats(c tele.Context) error {
	return tghelpers.SendText(c, textStatsPrompt, tghelpers.ThreadOptions(c, tele.ModeDefault, statsKeyboard()))
}

// StatsPeriod sends the chosen summary privately and reports the outcome in
// place of the buttons.
func (h *Handlers) StatsPeriod(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	span := digest.Span(callbacks.CallbackPayload(c))
	text, ok, err := h.cfg.Reports.PersonalReport(ctx, user.ID, span)
	if errors.Is(err, digest.ErrUnknownSpan) {
		logger.Warn(ctx, component, "stats.unknown", slog.String("payload", logger.SanitizeLimit(string(span), 32)))
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return tghelpers.EditText(c, textStatsNone)
	}
	if err := h.cfg.Private.SendPrivate(ctx, user.ID, text); err != nil {
		return tghelpers.EditText(c, statsUndelivered(h.cfg.BotUsername))
	}
	return tghelpers.EditText(c, textStatsSent)
}

// Top posts the weekly leaderboard in reply.
func (h *Handlers) Top(c tele.Context) error {
	return tghelpers.SendMD(c, h.cfg.Reports.TopReport(tghelpers.BuildContext(c)))
}

// SendWeekly posts the weekly digest now.
func (h *Handlers) SendWeekly(c tele.Context) error {
	if err := h.cfg.Jobs.RunNow(tghelpers.BuildContext(c), schedule.JobWeekly); err != nil {
		_ = tghelpers.SendText(c, textWeeklyError)
		return err
	}
	return tghelpers.SendText(c, textWeeklySent)
}

// Help lists the commands.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendText(c, helpText(h.cfg.Timeout, h.cfg.FallbackCount))
}

// AdminRejected answers a non-admin calling an admin command.
func (h *Handlers) AdminRejected(c tele.Context) error {
	return tghelpers.SendText(c, textAdminOnly)
}

// UnknownText ignores chatter; the group is mostly human conversation.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error { return nil }
}

// UnknownCallback logs presses of buttons this build no longer knows.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		logger.Debug(tghelpers.BuildContext(c), component, "callback.unknown",
			slog.String("cb_key", logger.SanitizeLimit(callbacks.CallbackKey(c), 64)),
		)
		return nil
	}
}

// member names the user the way reports show them.
func member(u *tele.User) checkin.Member {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = "User_" + strconv.FormatInt(u.ID, 10)
	}
	return checkin.Member{ID: u.ID, Name: name}
}
