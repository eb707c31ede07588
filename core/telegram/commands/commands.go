// Package commands describes slash commands kept in the registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command. Aliases are bound to the same handler but
// never listed in the menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run only for chat administrators.
	AdminOnly bool
	// Hidden commands work but are left out of the menu.
	Hidden  bool
	Aliases []string
}
