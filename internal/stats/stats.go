// Package stats derives completion views from the supplement list. Nothing
// here is cached; every function takes the current time or date-key.
package stats

import (
	"math"
	"time"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/utils"
)

// Day is one entry of the weekly strip.
type Day struct {
	Date      string
	Label     string
	Completed bool
}

// ItemStatus pairs a supplement with whether it was taken today.
type ItemStatus struct {
	Supplement models.Supplement
	TakenToday bool
}

// Summary bundles every derived view for presenters.
type Summary struct {
	Today          string
	Total          int
	CompletedToday int
	Pending        int
	CompletionRate int
	Streak         int
	WeeklyHistory  []Day
	WeeklyScore    int
	Items          []ItemStatus
	Insight        string
}

// CompletedToday counts supplements whose last taken date is today.
func CompletedToday(items []models.Supplement, today string) int {
	n := 0
	for _, s := range items {
		if s.TakenOn(today) {
			n++
		}
	}
	return n
}

// CompletionRate is the percentage of supplements taken today, rounded half
// up. An empty list has a rate of 0.
func CompletionRate(items []models.Supplement, today string) int {
	if len(items) == 0 {
		return 0
	}
	return int(math.Floor(float64(CompletedToday(items, today))*100/float64(len(items)) + 0.5))
}

// Pending is the number of supplements still to take today.
func Pending(items []models.Supplement, today string) int {
	return max(len(items)-CompletedToday(items, today), 0)
}

// AllTakenOn reports whether every supplement has date in its history.
// An empty list never counts as a completed day.
func AllTakenOn(items []models.Supplement, date string) bool {
	if len(items) == 0 {
		return false
	}
	for _, s := range items {
		if !s.HasHistory(date) {
			return false
		}
	}
	return true
}

// AllDone reports whether there is nothing left to remind about today: every
// supplement has today in its history. An empty list has nothing pending.
func AllDone(items []models.Supplement, today string) bool {
	return len(items) == 0 || AllTakenOn(items, today)
}

// WeeklyHistory returns the last seven days, oldest first.
func WeeklyHistory(items []models.Supplement, now time.Time) []Day {
	dates := utils.PastDates(now, constants.WeeklyWindowDays)
	days := make([]Day, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		d := dates[i]
		days = append(days, Day{
			Date:      d,
			Label:     utils.WeekdayLabel(d),
			Completed: AllTakenOn(items, d),
		})
	}
	return days
}

// WeeklyScore counts completed days in the weekly history.
func WeeklyScore(items []models.Supplement, now time.Time) int {
	n := 0
	for _, d := range WeeklyHistory(items, now) {
		if d.Completed {
			n++
		}
	}
	return n
}

// Streak counts consecutive completed days ending today, looking back at most
// fourteen days. A day that is not yet complete ends the streak, including today.
func Streak(items []models.Supplement, now time.Time) int {
	n := 0
	for _, d := range utils.PastDates(now, constants.StreakWindowDays) {
		if !AllTakenOn(items, d) {
			break
		}
		n++
	}
	return n
}

// Insight returns an encouragement line for the given completion rate.
func Insight(rate int) string {
	switch {
	case rate >= 100:
		return "Legendary discipline! Maybe add a stretch or a walk today."
	case rate >= 50:
		return "More than halfway there. Take a short break and finish the rest."
	default:
		return "Start small, even just getting the shaker ready. Momentum will follow."
	}
}

// Summarize computes every derived view at once.
func Summarize(items []models.Supplement, now time.Time) Summary {
	today := utils.TodayKey(now)
	rate := CompletionRate(items, today)

	statuses := make([]ItemStatus, len(items))
	for i, s := range items {
		statuses[i] = ItemStatus{Supplement: s, TakenToday: s.TakenOn(today)}
	}

	weekly := WeeklyHistory(items, now)
	score := 0
	for _, d := range weekly {
		if d.Completed {
			score++
		}
	}

	return Summary{
		Today:          today,
		Total:          len(items),
		CompletedToday: CompletedToday(items, today),
		Pending:        Pending(items, today),
		CompletionRate: rate,
		Streak:         Streak(items, now),
		WeeklyHistory:  weekly,
		WeeklyScore:    score,
		Items:          statuses,
		Insight:        Insight(rate),
	}
}
