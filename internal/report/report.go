// Package report aggregates the check-in log into period totals, rankings and
// personal summaries, and renders them as Telegram Markdown.
//
// Everything here is a pure function of a storage.Snapshot.
package report

import (
	"sort"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

// DefaultTopN is the leaderboard size.
const DefaultTopN = 5

// Period is an inclusive range of calendar days.
type Period struct {
	Start string
	End   string
}

// Contains reports whether the day key falls inside p. Keys compare
// lexically, which matches calendar order for YYYY-MM-DD.
func (p Period) Contains(day string) bool {
	return day >= p.Start && day <= p.End
}

func periodFrom(start, end time.Time) Period {
	return Period{Start: storage.DateKey(start), End: storage.DateKey(end)}
}

// WeekPeriod is today and the seven days before it.
func WeekPeriod(today time.Time) Period {
	return RollingPeriod(today, 7)
}

// MonthPeriod runs from the first of today's month to today.
func MonthPeriod(today time.Time) Period {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return periodFrom(first, today)
}

// RollingPeriod is today and the given number of days before it.
func RollingPeriod(today time.Time, days int) Period {
	return periodFrom(today.AddDate(0, 0, -days), today)
}

// MoodCounts counts tagged days per mood.
type MoodCounts map[storage.Mood]int

// Any reports whether at least one mood was counted.
func (m MoodCounts) Any() bool {
	for _, n := range m {
		if n > 0 {
			return true
		}
	}
	return false
}

// Row is one member's line in a period report.
type Row struct {
	UserID string
	Name   string
	Total  int
	Moods  MoodCounts
}

// PeriodTotals sums entries and counts moods per member inside p. Members
// with neither characters nor moods are left out. Rows are ordered by total,
// highest first; ties keep document order.
func PeriodTotals(s *storage.Snapshot, p Period) []Row {
	var rows []Row
	s.Each(func(id string, u *storage.UserRecord) {
		row := Row{UserID: id, Name: u.Name, Moods: MoodCounts{}}
		for day, n := range u.Entries {
			if p.Contains(day) {
				row.Total += n
			}
		}
		for day, mood := range u.Moods {
			if p.Contains(day) && mood.Valid() {
				row.Moods[mood]++
			}
		}
		if row.Total > 0 || row.Moods.Any() {
			rows = append(rows, row)
		}
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total > rows[j].Total })
	return rows
}

// GrandTotal sums the rows.
func GrandTotal(rows []Row) int {
	total := 0
	for _, r := range rows {
		total += r.Total
	}
	return total
}

// Ranked is one leaderboard position.
type Ranked struct {
	UserID string
	Name   string
	Total  int
	Days   int
}

// TopN ranks members by characters written inside p, counting days with an
// entry. Members with no characters are skipped. Ties keep document order.
func TopN(s *storage.Snapshot, p Period, n int) []Ranked {
	var out []Ranked
	s.Each(func(id string, u *storage.UserRecord) {
		total, days := sumEntries(u, p)
		if total > 0 {
			out = append(out, Ranked{UserID: id, Name: u.Name, Total: total, Days: days})
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary is one member's personal statistics.
type Summary struct {
	Name    string
	Total   int
	Days    int
	Average int
}

// Personal summarises one member's entries inside p.
func Personal(u *storage.UserRecord, p Period) Summary {
	if u == nil {
		return Summary{}
	}
	total, days := sumEntries(u, p)
	return Summary{Name: u.Name, Total: total, Days: days, Average: Average(total, days)}
}

// Average is the truncated per-day mean; zero when there are no days.
func Average(total, days int) int {
	if days == 0 {
		return 0
	}
	return total / days
}

func sumEntries(u *storage.UserRecord, p Period) (total, days int) {
	for day, n := range u.Entries {
		if p.Contains(day) {
			total += n
			days++
		}
	}
	return total, days
}
