package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/pillbox/internal/constants"
)

// DateKey returns the date-key (YYYY-MM-DD) of t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// TodayKey returns today's date-key as seen from now. It is never cached: callers
// pass a fresh "now" on every computation so midnight rollover is picked up.
func TodayKey(now time.Time) string {
	return DateKey(now)
}

// PastDates returns the n most recent date-keys including today, most recent first.
func PastDates(now time.Time, n int) []string {
	if n <= 0 {
		return []string{}
	}
	// Anchor at noon so DST transitions never skip or repeat a calendar day.
	anchor := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = DateKey(anchor.AddDate(0, 0, -i))
	}
	return dates
}

// FriendlyLabel formats a date for display, e.g. "Monday, 19 October".
func FriendlyLabel(t time.Time) string {
	return t.Format("Monday, 2 January")
}

// WeekdayLabel returns a two-letter weekday label for a date-key ("Mo", "Tu", ...).
// Unparseable keys are returned unchanged.
func WeekdayLabel(dateKey string) string {
	t, err := time.Parse(constants.DateFormat, dateKey)
	if err != nil {
		return dateKey
	}
	return t.Weekday().String()[:2]
}

// FormatTime returns a zero-padded HH:MM string.
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseReminderTime parses an "H:MM" or "HH:MM" string. ok is false for anything
// malformed or out of range (hour 0-23, minute 0-59).
func ParseReminderTime(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	if len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// IsDateKey reports whether s is a valid YYYY-MM-DD date-key.
func IsDateKey(s string) bool {
	if len(s) != len(constants.DateFormat) {
		return false
	}
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// NowIn returns the current time in loc, or in the local zone when loc is nil.
func NowIn(loc *time.Location) time.Time {
	if loc == nil {
		return time.Now()
	}
	return time.Now().In(loc)
}
