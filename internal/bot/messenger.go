package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tghelpers "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/helpers"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/middleware"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/checkin"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/digest"

	tele "gopkg.in/telebot.v4"
)

var (
	_ checkin.Notifier        = (*Messenger)(nil)
	_ digest.Poster           = (*Messenger)(nil)
	_ middleware.AdminChecker = (*Messenger)(nil)
)

// ErrNotBound is returned when a message is sent before the bot is running.
var ErrNotBound = errors.New("bot: messenger not bound")

// API is the slice of the Telegram client the messenger uses. *tele.Bot
// satisfies it.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// MessengerConfig addresses the club group.
type MessengerConfig struct {
	GroupChatID    int64
	OutputThreadID int
}

// Messenger sends everything that does not answer an update directly: group
// posts, private summaries and timeout notices. It also answers admin checks.
type Messenger struct {
	cfg MessengerConfig

	mu  sync.RWMutex
	api API
}

// NewMessenger returns an unbound messenger.
func NewMessenger(cfg MessengerConfig) *Messenger {
	return &Messenger{cfg: cfg}
}

// Bind attaches the running client.
func (m *Messenger) Bind(api API) {
	m.mu.Lock()
	m.api = api
	m.mu.Unlock()
}

func (m *Messenger) client() (API, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.api == nil {
		return nil, ErrNotBound
	}
	return m.api, nil
}

// Post publishes Markdown text in the reports topic of the group.
func (m *Messenger) Post(ctx context.Context, text string) error {
	api, err := m.client()
	if err != nil {
		return err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ThreadID: m.cfg.OutputThreadID}
	return tghelpers.Deliver(ctx, "post.group", "sendMessage", func() error {
		_, err := api.Send(tele.ChatID(m.cfg.GroupChatID), text, opts)
		return err
	})
}

// SendPrivate delivers Markdown text to the user's private chat and waits for
// the result.
func (m *Messenger) SendPrivate(ctx context.Context, userID int64, text string) error {
	api, err := m.client()
	if err != nil {
		return err
	}
	_, err = api.Send(&tele.User{ID: userID}, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		logger.Info(ctx, "tg.messenger", "private.fail",
			slog.Int64("user_id", userID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return err
}

// NotifyTimeout tells the user what the expired wait recorded. The notice goes
// to the private chat; when that fails the group prompt is edited instead.
// Failures are logged only.
func (m *Messenger) NotifyTimeout(ctx context.Context, n checkin.TimeoutNotice) {
	api, err := m.client()
	if err != nil {
		logger.Warn(ctx, "tg.messenger", "timeout.notify.skip", slog.String("err", err.Error()))
		return
	}
	text := timeoutText(n)
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	err = tghelpers.Deliver(ctx, "notify.timeout", "sendMessage", func() error {
		_, dmErr := api.Send(&tele.User{ID: n.UserID}, text, opts)
		if dmErr == nil {
			return nil
		}
		logger.Info(ctx, "tg.messenger", "timeout.dm.fail",
			slog.Int64("user_id", n.UserID),
			slog.String("err", logger.SanitizeLimit(dmErr.Error(), 256)),
		)
		if n.Origin.MessageID == "" {
			return dmErr
		}
		_, editErr := api.Edit(n.Origin, text, opts)
		return editErr
	})
	if err != nil {
		logger.Warn(ctx, "tg.messenger", "timeout.notify.fail",
			slog.Int64("user_id", n.UserID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// IsAdmin reports whether userID administers chatID. Private chats have no
// administrators.
func (m *Messenger) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if chatID >= 0 {
		return false, nil
	}
	api, err := m.client()
	if err != nil {
		return false, err
	}
	member, err := api.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: userID})
	if err != nil {
		return false, err
	}
	ok := member.Role == tele.Administrator || member.Role == tele.Creator
	logger.Debug(ctx, "tg.messenger", "admin.check",
		slog.Int64("chat_id", chatID),
		slog.Int64("user_id", userID),
		slog.String("role", string(member.Role)),
		slog.Bool("admin", ok),
	)
	return ok, nil
}

func origin(msg *tele.Message) tele.StoredMessage {
	if msg == nil || msg.Chat == nil {
		return tele.StoredMessage{}
	}
	return tele.StoredMessage{MessageID: strconv.Itoa(msg.ID), ChatID: msg.Chat.ID}
}
