package telegram

import (
	"fmt"
	"time"

	coreconfig "github.com/anakalachikova-cmd/sterladometr-bot/core/config"

	tele "gopkg.in/telebot.v4"
)

// DefaultPollTimeout is the getUpdates hold time when none is configured.
const DefaultPollTimeout = 10 * time.Second

// AllowedUpdates limits delivery to what the bot handles: messages and
// button presses.
var AllowedUpdates = []string{"message", "callback_query"}

// BuildPoller returns the poller for the configured run mode and the
// long-poll hold time (zero for webhooks).
func BuildPoller(cfg *coreconfig.Config) (tele.Poller, time.Duration) {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			AllowedUpdates: AllowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}, 0
	}
	timeout := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: AllowedUpdates}, timeout
}
