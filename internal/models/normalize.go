package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/utils"
)

// NewID returns a fresh opaque supplement id.
func NewID() string {
	return "sup_" + uuid.New().String()
}

// NormalizeRaw converts an arbitrary stored record into a valid Supplement.
// It never fails: every field that is missing or of the wrong shape falls back
// to its default.
func NormalizeRaw(data []byte) Supplement {
	s, _ := normalizeRaw(data)
	return s
}

// NormalizeList decodes a stored supplement list. ok is false when data is not
// a JSON array; individual malformed entries are repaired, not dropped.
func NormalizeList(data []byte) ([]Supplement, bool) {
	items, _, ok := NormalizeListVerbose(data)
	return items, ok
}

// NormalizeListVerbose is NormalizeList that also reports every repair it made,
// so callers can log them.
func NormalizeListVerbose(data []byte) ([]Supplement, []string, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, nil, false
	}

	items := make([]Supplement, 0, len(raw))
	var issues []string
	for i, r := range raw {
		s, fixes := normalizeRaw(r)
		for _, f := range fixes {
			issues = append(issues, fmt.Sprintf("item %d: %s", i, f))
		}
		items = append(items, s)
	}
	return items, issues, true
}

func normalizeRaw(data []byte) (Supplement, []string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		s := Normalize(Supplement{})
		return s, []string{"record is not an object"}
	}

	var s Supplement
	var issues []string

	if v, ok := rawString(fields["id"]); ok && strings.TrimSpace(v) != "" {
		s.ID = v
	} else {
		issues = append(issues, "id missing")
	}

	if v, ok := rawString(fields["name"]); ok {
		s.Name = v
	}
	if v, ok := rawString(fields["dosage"]); ok {
		s.Dosage = v
	}
	if v, ok := rawString(fields["category"]); ok {
		s.Category = Category(v)
	}
	if !s.Category.Valid() {
		issues = append(issues, "category invalid")
	}

	s.ReminderHour = -1
	if raw, present := fields["reminderHour"]; present && !isNull(raw) {
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil && f == math.Trunc(f) && f >= 0 && f <= 23 {
			s.ReminderHour = int(f)
		} else {
			issues = append(issues, "reminderHour invalid")
		}
	}

	if v, ok := rawString(fields["lastTakenDate"]); ok {
		if utils.IsDateKey(v) {
			s.LastTakenDate = &v
		} else {
			issues = append(issues, "lastTakenDate invalid")
		}
	}

	if raw, present := fields["history"]; present {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err == nil {
			for _, e := range entries {
				if v, ok := rawString(e); ok {
					s.History = append(s.History, v)
				}
			}
		} else {
			issues = append(issues, "history is not an array")
		}
	}

	for k, v := range fields {
		if knownSupplementFields[k] {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[k] = v
	}

	before := len(s.History)
	s = Normalize(s)
	if len(s.History) < before {
		issues = append(issues, "history entries dropped")
	}
	return s, issues
}

// Normalize applies the default table to a typed value. It is idempotent.
func Normalize(s Supplement) Supplement {
	out := s.Clone()

	if strings.TrimSpace(out.ID) == "" {
		out.ID = NewID()
	}
	if strings.TrimSpace(out.Name) == "" {
		out.Name = constants.DefaultSupplementName
	}
	if strings.TrimSpace(out.Dosage) == "" {
		out.Dosage = constants.DefaultDosage
	}
	if !out.Category.Valid() {
		out.Category = CategoryOther
	}
	if out.ReminderHour < 0 || out.ReminderHour > 23 {
		out.ReminderHour = constants.DefaultReminderHour
	}
	if out.LastTakenDate != nil && !utils.IsDateKey(*out.LastTakenDate) {
		out.LastTakenDate = nil
	}

	seen := make(map[string]bool, len(out.History))
	history := make([]string, 0, len(out.History))
	for _, d := range out.History {
		if !utils.IsDateKey(d) || seen[d] {
			continue
		}
		seen[d] = true
		history = append(history, d)
	}
	if out.LastTakenDate != nil && !seen[*out.LastTakenDate] {
		history = append(history, *out.LastTakenDate)
	}
	out.History = history

	return out
}

// NormalizeSettings fills in defaults for a stored reminder settings record.
// A record without a time is ignored entirely.
func NormalizeSettings(data []byte) (ReminderSettings, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return DefaultReminderSettings(), false
	}

	t, ok := rawString(fields["time"])
	if !ok || strings.TrimSpace(t) == "" {
		return DefaultReminderSettings(), false
	}

	settings := ReminderSettings{Enabled: constants.DefaultReminderEnabled, Time: t}
	var enabled bool
	if raw, present := fields["enabled"]; present && !isNull(raw) && json.Unmarshal(raw, &enabled) == nil {
		settings.Enabled = enabled
	}
	return settings, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || isNull(raw) {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}
