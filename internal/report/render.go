package report

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/format"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

// Titles for the group reports.
const (
	WeeklyTitle  = "📝 *Еженедельный отчёт*"
	MonthlyTitle = "📅 *Месячный отчёт*"
)

// Titles for the personal summaries.
const (
	PersonalWeekTitle  = "📊 Статистика за неделю"
	PersonalMonthTitle = "📈 Статистика за месяц"
)

// Personal summaries look back this many days before today.
const (
	PersonalWeekDays  = 6
	PersonalMonthDays = 29
)

// printer groups thousands with commas: 12,500.
var printer = message.NewPrinter(language.English)

// Number formats n with thousands separators.
func Number(n int) string {
	return printer.Sprintf("%d", n)
}

// PersonalWeek is the window for the weekly personal summary.
func PersonalWeek(today time.Time) Period { return RollingPeriod(today, PersonalWeekDays) }

// PersonalMonth is the window for the monthly personal summary.
func PersonalMonth(today time.Time) Period { return RollingPeriod(today, PersonalMonthDays) }

// RenderPeriod renders a group report for p. An empty row set still gets the
// header and a zero total.
func RenderPeriod(title string, p Period, rows []Row) string {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, title+" ("+p.Start+" – "+p.End+")")
	for _, r := range rows {
		line := "• " + format.Escape(r.Name) + ": " + Number(r.Total) + " зн."
		if r.Moods.Any() {
			line += " (" + renderMoods(r.Moods) + ")"
		}
		lines = append(lines, line)
	}
	lines = append(lines, "\nВсего: *"+Number(GrandTotal(rows))+"* зн.")
	return strings.Join(lines, "\n")
}

func renderMoods(m MoodCounts) string {
	parts := make([]string, 0, len(storage.ReportMoods))
	for _, mood := range storage.ReportMoods {
		if n := m[mood]; n > 0 {
			parts = append(parts, mood.Emoji()+Number(n))
		}
	}
	return strings.Join(parts, " ")
}

// RenderTop renders the weekly leaderboard.
func RenderTop(n int, ranked []Ranked) string {
	lines := make([]string, 0, len(ranked)+2)
	lines = append(lines, printer.Sprintf("🏆 *ТОП-%d за неделю*", n))
	for i, r := range ranked {
		lines = append(lines, printer.Sprintf("%d. %s — *%s* зн. (*%d* дн.)",
			i+1, format.Escape(r.Name), Number(r.Total), r.Days))
	}
	lines = append(lines, "\n📌 Данные обновлены")
	return strings.Join(lines, "\n")
}

// RenderPersonal renders one member's summary.
func RenderPersonal(title string, s Summary) string {
	return "👤 " + boldName(s.Name) + "\n" + title + "\n\n" +
		"🖋 Написано: *" + Number(s.Total) + "* зн.\n" +
		"📅 Дней: *" + Number(s.Days) + "*\n" +
		"🎯 Среднее: *" + Number(s.Average) + "* зн./день"
}

// boldName bolds a plain name. Legacy Markdown has no escapes inside an
// entity, so a name needing escapes is printed unstyled.
func boldName(name string) string {
	if esc := format.Escape(name); esc != name {
		return esc
	}
	return "*" + name + "*"
}
