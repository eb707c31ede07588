package bot

import (
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/keyboard"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/digest"

	tele "gopkg.in/telebot.v4"
)

// Callback keys. The payload carries the mood tag or the stats span.
const (
	CallbackMood  = "mood"
	CallbackStats = "stats"
)

func moodKeyboard() *tele.ReplyMarkup {
	buttons := make([]keyboard.Button, 0, len(moodLabels))
	for _, l := range moodLabels {
		buttons = append(buttons, keyboard.Button{Text: l.button, Unique: CallbackMood, Data: string(l.mood)})
	}
	return keyboard.Column(buttons...)
}

func statsKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: textStatsWeek, Unique: CallbackStats, Data: string(digest.SpanWeek)},
		{Text: textStatsMonth, Unique: CallbackStats, Data: string(digest.SpanMonth)},
	})
}
