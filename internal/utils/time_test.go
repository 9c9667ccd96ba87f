package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{
			name:     "empty string returns local",
			timezone: "",
			wantErr:  false,
		},
		{
			name:     "Local returns local",
			timezone: "Local",
			wantErr:  false,
		},
		{
			name:     "valid timezone UTC",
			timezone: "UTC",
			wantErr:  false,
		},
		{
			name:     "valid timezone Europe/Berlin",
			timezone: "Europe/Berlin",
			wantErr:  false,
		},
		{
			name:     "invalid timezone",
			timezone: "Invalid/Timezone",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 UTC on the 1st is already the 2nd at UTC+2.
	utc := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)

	if got := DateKey(utc); got != "2024-05-01" {
		t.Errorf("DateKey(utc) = %q, want 2024-05-01", got)
	}
	if got := DateKey(utc.In(loc)); got != "2024-05-02" {
		t.Errorf("DateKey(local) = %q, want 2024-05-02", got)
	}
	if got := TodayKey(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)); got != "2024-01-09" {
		t.Errorf("TodayKey() = %q, want zero-padded 2024-01-09", got)
	}
}

func TestPastDates(t *testing.T) {
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{
			name: "zero",
			n:    0,
			want: []string{},
		},
		{
			name: "negative",
			n:    -3,
			want: []string{},
		},
		{
			name: "one is today",
			n:    1,
			want: []string{"2024-03-02"},
		},
		{
			name: "crosses leap day",
			n:    4,
			want: []string{"2024-03-02", "2024-03-01", "2024-02-29", "2024-02-28"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PastDates(now, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PastDates(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestPastDatesAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	// Clocks spring forward on 2024-03-31 in Berlin.
	now := time.Date(2024, 4, 1, 0, 30, 0, 0, loc)
	got := PastDates(now, 3)
	want := []string{"2024-04-01", "2024-03-31", "2024-03-30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PastDates() = %v, want %v", got, want)
	}
}

func TestParseReminderTime(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantOK     bool
	}{
		{"19:00", 19, 0, true},
		{"7:05", 7, 5, true},
		{"00:00", 0, 0, true},
		{"23:59", 23, 59, true},
		{" 08:30 ", 8, 30, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"12:5", 0, 0, false},
		{"123:00", 0, 0, false},
		{"ab:cd", 0, 0, false},
		{"1900", 0, 0, false},
		{"", 0, 0, false},
		{"-1:00", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, m, ok := ParseReminderTime(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseReminderTime(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && (h != tt.wantHour || m != tt.wantMinute) {
				t.Errorf("ParseReminderTime(%q) = %d:%d, want %d:%d", tt.input, h, m, tt.wantHour, tt.wantMinute)
			}
		})
	}
}

func TestIsDateKey(t *testing.T) {
	valid := []string{"2024-01-01", "2024-02-29"}
	invalid := []string{"", "2024-1-1", "2023-02-29", "yesterday", "2024-01-01T00:00:00Z"}

	for _, s := range valid {
		if !IsDateKey(s) {
			t.Errorf("IsDateKey(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsDateKey(s) {
			t.Errorf("IsDateKey(%q) = true, want false", s)
		}
	}
}

func TestLabels(t *testing.T) {
	if got := WeekdayLabel("2024-05-06"); got != "Mo" {
		t.Errorf("WeekdayLabel() = %q, want Mo", got)
	}
	if got := WeekdayLabel("garbage"); got != "garbage" {
		t.Errorf("WeekdayLabel() = %q, want input echoed", got)
	}
	if got := FormatTime(7, 5); got != "07:05" {
		t.Errorf("FormatTime() = %q, want 07:05", got)
	}
	if got := FriendlyLabel(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)); got != "Monday, 6 May" {
		t.Errorf("FriendlyLabel() = %q", got)
	}
}
