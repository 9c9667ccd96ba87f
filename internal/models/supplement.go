package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/julianstephens/pillbox/internal/constants"
)

type Category string

const (
	CategoryVitamin  Category = "vitamin"
	CategoryCreatine Category = "creatine"
	CategoryOther    Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryVitamin, CategoryCreatine, CategoryOther}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryVitamin, CategoryCreatine, CategoryOther:
		return true
	}
	return false
}

// ParseCategory converts s to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid category %q (want vitamin, creatine or other)", s)
	}
	return c, nil
}

// Supplement represents a recurring item the user takes once per day
type Supplement struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage"`
	Category      Category `json:"category"`
	ReminderHour  int      `json:"reminderHour"`  // 0-23, display only
	LastTakenDate *string  `json:"lastTakenDate"` // YYYY-MM-DD or null
	History       []string `json:"history"`       // YYYY-MM-DD, no duplicates

	// Extra holds fields found in a stored record that pillbox does not know
	// about. They are written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownSupplementFields = map[string]bool{
	"id":            true,
	"name":          true,
	"dosage":        true,
	"category":      true,
	"reminderHour":  true,
	"lastTakenDate": true,
	"history":       true,
}

// TakenOn reports whether the supplement was last taken on dateKey.
func (s Supplement) TakenOn(dateKey string) bool {
	return s.LastTakenDate != nil && *s.LastTakenDate == dateKey
}

// HasHistory reports whether dateKey is in the supplement's history.
func (s Supplement) HasHistory(dateKey string) bool {
	for _, d := range s.History {
		if d == dateKey {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so list mutations never alias caller state.
func (s Supplement) Clone() Supplement {
	out := s
	if s.LastTakenDate != nil {
		v := *s.LastTakenDate
		out.LastTakenDate = &v
	}
	out.History = append([]string(nil), s.History...)
	if out.History == nil {
		out.History = []string{}
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

type supplementAlias Supplement

// MarshalJSON writes the known fields followed by any preserved unknown fields.
func (s Supplement) MarshalJSON() ([]byte, error) {
	alias := supplementAlias(s)
	if alias.History == nil {
		alias.History = []string{}
	}
	known, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return known, nil
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		if !knownSupplementFields[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return known, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(s.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a stored record through normalization, so the result
// always satisfies the item invariants.
func (s *Supplement) UnmarshalJSON(data []byte) error {
	*s = NormalizeRaw(data)
	return nil
}

// Draft is the user input for a new supplement
type Draft struct {
	Name         string
	Dosage       string
	Category     Category
	ReminderHour int
}

// NewDraft returns a Draft with the add-form defaults.
func NewDraft() Draft {
	return Draft{
		Category:     CategoryVitamin,
		ReminderHour: constants.DefaultDraftReminderHour,
	}
}

// Patch is a partial update of a supplement. Nil fields are left unchanged.
// History and the last taken date are not patchable; they only change through Take.
type Patch struct {
	Name         *string
	Dosage       *string
	Category     *Category
	ReminderHour *int
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Dosage == nil && p.Category == nil && p.ReminderHour == nil
}

// ReminderSettings controls the single daily reminder
type ReminderSettings struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"` // HH:MM
}

// DefaultReminderSettings returns the settings used before anything is stored.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Enabled: constants.DefaultReminderEnabled,
		Time:    constants.DefaultReminderTime,
	}
}

// DefaultSupplements returns the items seeded on first run.
func DefaultSupplements() []Supplement {
	return []Supplement{
		{
			ID:           "sup_vitamins",
			Name:         "Morning multivitamin",
			Dosage:       "2 capsules after breakfast",
			Category:     CategoryVitamin,
			ReminderHour: 8,
			History:      []string{},
		},
		{
			ID:           "sup_creatine",
			Name:         "Creatine monohydrate",
			Dosage:       "5 g in water after training",
			Category:     CategoryCreatine,
			ReminderHour: 17,
			History:      []string{},
		},
	}
}
