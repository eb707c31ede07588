package telegram

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/callbacks"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the bot's commands and callback handlers. Commands are
// registered before the bot starts; callbacks may be added at any time.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string
	order    []string

	mu               sync.RWMutex
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry whose unknown-callback fallback only
// logs.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			key, _ := callbacks.ParseCallbackData(c.Callback())
			logger.Debug(logger.Background(), "tg.wire", "callback.unknown",
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
			)
			return nil
		},
	}
}

// CommandName reduces message text to its command token: "/Help@Bot now"
// becomes "/help". Text without a leading slash yields "".
func CommandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

// RegisterCommand adds a command under name ("/report") with its aliases.
// Invalid or duplicate registrations are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	skip := func(reason string) {
		logger.Warn(logger.Background(), "tg.wire", "register.command.skip",
			slog.String("name", name),
			slog.String("reason", reason),
		)
	}
	key := CommandName(name)
	switch {
	case key == "" || key != name:
		skip("bad_name")
		return
	case cmd.Handler == nil || cmd.Description == "":
		skip("incomplete")
		return
	case r.taken(key):
		skip("duplicate")
		return
	}
	r.commands[key] = cmd
	r.order = append(r.order, key)
	for _, a := range cmd.Aliases {
		alias := CommandName("/" + strings.TrimPrefix(a, "/"))
		if alias == "" || r.taken(alias) {
			skip("alias " + a)
			continue
		}
		r.aliases[alias] = key
	}
}

func (r *Registry) taken(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

// ListCommands returns the menu entries in registration order. With
// visibleOnly, hidden commands are left out. Admin-only commands stay listed;
// access is enforced when they run.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.order))
	for _, name := range r.order {
		meta := r.commands[name]
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	return list
}

// LookupCommand resolves message text to a command, following aliases, and
// returns the canonical name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name := CommandName(text)
	if name == "" {
		return "", commands.Command{}, false
	}
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns every endpoint to bind, aliases included, mapped to its
// command.
func (r *Registry) Commands() map[string]commands.Command {
	out := make(map[string]commands.Command, len(r.commands)+len(r.aliases))
	for name, cmd := range r.commands {
		out[name] = cmd
	}
	for alias, target := range r.aliases {
		out[alias] = r.commands[target]
	}
	return out
}

// RegisterCallback maps a button's unique key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return fmt.Errorf("invalid callback registration %q", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the fallback for unknown callbacks.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches nothing else.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the text fallback, if any.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// CommandSetter publishes the command menu.
type CommandSetter interface {
	SetCommands(opts ...interface{}) error
}

// InitBotCommands publishes the visible commands as the bot menu. Failure is
// logged; the bot works without a menu.
func InitBotCommands(bot CommandSetter, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	ctx := logger.Background()
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, "tg.wire", "register.commands.set_failed", slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, "tg.wire", "register.commands.set", slog.Int("count", len(list)))
}
