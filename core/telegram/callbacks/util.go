// Package callbacks decodes inline button payloads.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Sep separates the unique key from the payload in callback data.
const Sep = "|"

// ParseCallbackData splits Telebot's "\f<unique>|<payload>" encoding.
// When Telebot already matched a unique handler, Unique is set and Data
// holds the bare payload.
func ParseCallbackData(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, Sep, 2)
	unique = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// CallbackKey returns the unique key of the pressed button.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns the data attached to the pressed button.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
