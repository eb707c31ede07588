package bot

import (
	"fmt"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/internal/checkin"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/report"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

const (
	textMoodPrompt   = "Как прошёл ваш день?"
	textReportDenied = "❗ Команду /report можно использовать только в теме *«Сколько написал»*."
	textCountPrompt  = "📝 Введите количество написанных символов (например: 2500, 5,3к):"
	textCountInvalid = "❌ Не удалось распознать число. Примеры: 2500, 5,3к, 2.7k, 1.5 тыс."
	textCountFirst   = "⏳ Сначала введите количество символов за сегодня."
	textMoodFailed   = "❗ Не удалось сохранить отметку. Попробуйте ещё раз."

	textStatsPrompt = "Выберите период:"
	textStatsWeek   = "📆 За неделю"
	textStatsMonth  = "📅 За месяц"
	textStatsNone   = "❌ Вы ещё не отправляли отчёты."
	textStatsSent   = "✅ Отправлено в ЛС!"

	textAdminOnly   = "❌ Только администраторы могут использовать эту команду."
	textWeeklySent  = "✅ Еженедельный отчёт отправлен вручную."
	textWeeklyError = "❗ Не удалось отправить отчёт. Попробуйте позже."
)

// Menu descriptions.
const (
	descReport     = "Отметить день"
	descStats      = "Личная статистика"
	descTop        = "ТОП авторов"
	descSendWeekly = "Вызвать недельный отчёт (админы)"
	descHelp       = "Помощь"
)

func helpText(timeout time.Duration, fallback int) string {
	return "📌 Используйте:\n" +
		"• `/report` — как прошёл день\n" +
		"• `/stats` — ваша статистика\n" +
		"• `/top` — топ участников\n\n" +
		fmt.Sprintf("💡 Бот сам засчитает %d символов, если вы не введёте число за %s.", fallback, spellDuration(timeout, accusative))
}

func statsUndelivered(botUsername string) string {
	return "❗ Не удалось отправить в ЛС. Напишите боту: @" + botUsername
}

// moodLabels are the button captions and the past-tense descriptions, in
// keyboard order.
var moodLabels = []struct {
	mood   storage.Mood
	button string
	desc   string
}{
	{storage.MoodPurple, "💜 Тревожилась/грустила", "тревожилась/грустила"},
	{storage.MoodBlue, "💙 Отдыхала", "отдыхала"},
	{storage.MoodYellow, "💛 Много работала", "много работала"},
	{storage.MoodGreen, "💚 Работала с текстом", "работала с текстом"},
}

func moodRecorded(m storage.Mood) string {
	desc := string(m)
	for _, l := range moodLabels {
		if l.mood == m {
			desc = l.desc
		}
	}
	return "✅ Вы отметили: " + m.Emoji() + " Сегодня вы " + desc + "\nСпасибо за честность! 💖"
}

func countRecorded(r checkin.SubmitResult) string {
	action := "засчитано"
	if r.Overwritten {
		action = "перезаписано"
	}
	return "✅ " + action + ": *" + report.Number(r.Count) + "* символов!"
}

func timeoutText(n checkin.TimeoutNotice) string {
	count, _ := durationUnits(n.Timeout)
	verb := plural(count, "Прошла", "Прошли", "Прошло")
	head := "⏰ " + verb + " " + spellDuration(n.Timeout, nominative) + " без ответа. "
	if !n.Credited {
		return head + "Запись за сегодня уже есть, она сохранена."
	}
	return head + "Вам засчитано *" + report.Number(n.Count) + " символов* за день."
}

type grammaticalCase int

const (
	nominative grammaticalCase = iota
	accusative
)

// spellDuration renders whole minutes ("5 минут", "1 минуту") and falls back
// to seconds for shorter waits.
func spellDuration(d time.Duration, gc grammaticalCase) string {
	n, minutes := durationUnits(d)
	if minutes {
		one := "минута"
		if gc == accusative {
			one = "минуту"
		}
		return fmt.Sprintf("%d %s", n, plural(n, one, "минуты", "минут"))
	}
	one := "секунда"
	if gc == accusative {
		one = "секунду"
	}
	return fmt.Sprintf("%d %s", n, plural(n, one, "секунды", "секунд"))
}

// durationUnits counts d in whole minutes when it divides evenly, else in
// rounded seconds.
func durationUnits(d time.Duration) (n int, minutes bool) {
	if d >= time.Minute && d%time.Minute == 0 {
		return int(d / time.Minute), true
	}
	return int(d.Round(time.Second) / time.Second), false
}

func plural(n int, one, few, many string) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
