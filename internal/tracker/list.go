package tracker

import (
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/models"
)

// The list operations below never modify their input. They return a new
// slice; items they do not touch are carried over unchanged.

func indexOf(items []models.Supplement, id string) int {
	for i, s := range items {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func copyList(items []models.Supplement) []models.Supplement {
	out := make([]models.Supplement, len(items))
	for i, s := range items {
		out[i] = s.Clone()
	}
	return out
}

// Take marks the supplement taken on today. Taking twice in one day records
// the date once. ok is false for an unknown id.
func Take(items []models.Supplement, id, today string) ([]models.Supplement, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}

	out := copyList(items)
	s := out[i]
	s.LastTakenDate = &today
	if !s.HasHistory(today) {
		s.History = append(s.History, today)
	}
	out[i] = s
	return out, true
}

// ValidName reports whether name is acceptable for a new supplement.
func ValidName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= constants.MinNameLength
}

// Add appends a supplement built from draft. Drafts whose trimmed name is a
// single character or shorter are rejected and the list is returned as is.
func Add(items []models.Supplement, draft models.Draft) ([]models.Supplement, models.Supplement, bool) {
	if !ValidName(draft.Name) {
		return items, models.Supplement{}, false
	}

	category := draft.Category
	if !category.Valid() {
		category = models.CategoryVitamin
	}

	s := models.Normalize(models.Supplement{
		ID:           models.NewID(),
		Name:         strings.TrimSpace(draft.Name),
		Dosage:       strings.TrimSpace(draft.Dosage),
		Category:     category,
		ReminderHour: draft.ReminderHour,
		History:      []string{},
	})

	out := append(copyList(items), s)
	return out, s, true
}

// Update merges the non-nil fields of patch into the supplement and then
// re-normalizes it, so a patch can never break the history invariant. A name
// that Add would reject is ignored.
func Update(items []models.Supplement, id string, patch models.Patch) ([]models.Supplement, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}

	out := copyList(items)
	s := out[i]
	if patch.Name != nil && ValidName(*patch.Name) {
		s.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Dosage != nil {
		s.Dosage = strings.TrimSpace(*patch.Dosage)
	}
	if patch.Category != nil {
		s.Category = *patch.Category
	}
	if patch.ReminderHour != nil {
		s.ReminderHour = *patch.ReminderHour
	}
	out[i] = models.Normalize(s)
	return out, true
}

// Remove deletes the supplement with the given id. Unknown ids are a no-op.
func Remove(items []models.Supplement, id string) ([]models.Supplement, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}

	out := make([]models.Supplement, 0, len(items)-1)
	for j, s := range items {
		if j != i {
			out = append(out, s.Clone())
		}
	}
	return out, true
}
