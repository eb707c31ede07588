// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline callback button. Unique routes the press; Data is
// the payload handed to the handler.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Inline lays rows out as given.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{InlineKeyboard: make([][]tele.InlineButton, 0, len(rows))}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *m.Data(b.Text, b.Unique, b.Data).Inline())
		}
		m.InlineKeyboard = append(m.InlineKeyboard, line)
	}
	return m
}

// Column puts every button on its own row.
func Column(buttons ...Button) *tele.ReplyMarkup {
	rows := make([][]Button, len(buttons))
	for i, b := range buttons {
		rows[i] = []Button{b}
	}
	return Inline(rows...)
}
