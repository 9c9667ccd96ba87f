package tracker

import (
	"reflect"
	"testing"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func checkInvariant(t *testing.T, items []models.Supplement) {
	t.Helper()
	for _, s := range items {
		seen := map[string]bool{}
		for _, d := range s.History {
			if seen[d] {
				t.Errorf("%s: duplicate history entry %s", s.ID, d)
			}
			seen[d] = true
		}
		if s.LastTakenDate != nil && !seen[*s.LastTakenDate] {
			t.Errorf("%s: lastTakenDate %s missing from history", s.ID, *s.LastTakenDate)
		}
	}
}

func sample() []models.Supplement {
	return []models.Supplement{
		{ID: "a", Name: "Zinc", Dosage: "1 tab", Category: models.CategoryOther, ReminderHour: 8, History: []string{}},
		{ID: "b", Name: "Creatine", Dosage: "5 g", Category: models.CategoryCreatine, ReminderHour: 17, History: []string{"2024-05-09"}, LastTakenDate: strPtr("2024-05-09")},
	}
}

func TestTake(t *testing.T) {
	items := sample()

	out, ok := Take(items, "a", "2024-05-10")
	if !ok {
		t.Fatal("Take() ok = false")
	}
	if !out[0].TakenOn("2024-05-10") {
		t.Error("item a not taken today")
	}
	if items[0].LastTakenDate != nil || len(items[0].History) != 0 {
		t.Error("Take() mutated its input")
	}
	if !reflect.DeepEqual(out[1], items[1]) {
		t.Error("Take() changed an untouched item")
	}

	twice, _ := Take(out, "a", "2024-05-10")
	if !reflect.DeepEqual(twice[0].History, []string{"2024-05-10"}) {
		t.Errorf("double take history = %v, want a single entry", twice[0].History)
	}
	checkInvariant(t, twice)

	same, ok := Take(items, "missing", "2024-05-10")
	if ok || !reflect.DeepEqual(same, items) {
		t.Error("Take(unknown id) should be a no-op")
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name   string
		draft  models.Draft
		wantOK bool
		check  func(t *testing.T, s models.Supplement)
	}{
		{
			name:   "whitespace name rejected",
			draft:  models.Draft{Name: "   "},
			wantOK: false,
		},
		{
			name:   "single character rejected",
			draft:  models.Draft{Name: " x "},
			wantOK: false,
		},
		{
			name:   "single multibyte character rejected",
			draft:  models.Draft{Name: "ž"},
			wantOK: false,
		},
		{
			name:   "two characters accepted",
			draft:  models.Draft{Name: "D3", Dosage: "  ", Category: "mineral", ReminderHour: 30},
			wantOK: true,
			check: func(t *testing.T, s models.Supplement) {
				if s.Name != "D3" {
					t.Errorf("Name = %q", s.Name)
				}
				if s.Dosage != constants.DefaultDosage {
					t.Errorf("Dosage = %q, want default", s.Dosage)
				}
				if s.Category != models.CategoryVitamin {
					t.Errorf("Category = %q, want vitamin", s.Category)
				}
				if s.ReminderHour != constants.DefaultReminderHour {
					t.Errorf("ReminderHour = %d, want %d", s.ReminderHour, constants.DefaultReminderHour)
				}
			},
		},
		{
			name:   "fields trimmed",
			draft:  models.Draft{Name: "  Magnesium ", Dosage: " 400 mg ", Category: models.CategoryOther, ReminderHour: 21},
			wantOK: true,
			check: func(t *testing.T, s models.Supplement) {
				if s.Name != "Magnesium" || s.Dosage != "400 mg" || s.ReminderHour != 21 {
					t.Errorf("got %+v", s)
				}
				if s.LastTakenDate != nil || len(s.History) != 0 {
					t.Error("new supplement should have no history")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := sample()
			out, added, ok := Add(items, tt.draft)
			if ok != tt.wantOK {
				t.Fatalf("Add() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if len(out) != len(items) {
					t.Error("rejected Add() changed the list")
				}
				return
			}
			if len(out) != len(items)+1 || out[len(out)-1].ID != added.ID {
				t.Fatal("Add() should append the new item")
			}
			if added.ID == "a" || added.ID == "b" || added.ID == "" {
				t.Errorf("Add() id = %q, want a fresh id", added.ID)
			}
			tt.check(t, added)
		})
	}
}

func TestUpdate(t *testing.T) {
	items := sample()
	cat := models.CategoryVitamin

	out, ok := Update(items, "a", models.Patch{
		Name:         strPtr("Zinc picolinate"),
		Category:     &cat,
		ReminderHour: intPtr(99),
	})
	if !ok {
		t.Fatal("Update() ok = false")
	}
	got := out[0]
	if got.Name != "Zinc picolinate" || got.Category != models.CategoryVitamin {
		t.Errorf("Update() = %+v", got)
	}
	if got.ReminderHour != constants.DefaultReminderHour {
		t.Errorf("out-of-range hour not normalized: %d", got.ReminderHour)
	}
	if got.Dosage != "1 tab" {
		t.Errorf("nil patch field changed Dosage to %q", got.Dosage)
	}

	// Edits never touch intake history.
	before := append([]string(nil), out[1].History...)
	out, _ = Update(out, "b", models.Patch{Dosage: strPtr("3 g"), Name: strPtr("Creatine HCl")})
	checkInvariant(t, out)
	if !reflect.DeepEqual(out[1].History, before) || out[1].LastTakenDate == nil || *out[1].LastTakenDate != "2024-05-09" {
		t.Errorf("Update() changed history: %+v", out[1])
	}

	out, _ = Update(out, "a", models.Patch{Name: strPtr(" ")})
	if out[0].Name != "Zinc picolinate" {
		t.Errorf("invalid name was applied: %q", out[0].Name)
	}

	if _, ok := Update(items, "missing", models.Patch{Name: strPtr("x")}); ok {
		t.Error("Update(unknown id) ok = true")
	}
}

func TestRemove(t *testing.T) {
	items := sample()

	out, ok := Remove(items, "a")
	if !ok || len(out) != 1 || out[0].ID != "b" {
		t.Fatalf("Remove() = %+v, %v", out, ok)
	}
	if len(items) != 2 {
		t.Error("Remove() mutated its input")
	}

	same, ok := Remove(items, "missing")
	if ok || !reflect.DeepEqual(same, items) {
		t.Error("Remove(unknown id) should be a no-op")
	}
}
