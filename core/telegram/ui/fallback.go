// Package ui declares the handlers a bot supplies for updates no route claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates cannot be
// mapped to commands, callbacks or an open session.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
