package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/utils"
)

func validateHour(s string) error {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("hour must be a number between 0 and 23")
	}
	return nil
}

// NewItemForm creates the form for adding or editing a supplement
func NewItemForm(fm *ItemFormModel) *huh.Form {
	options := make([]huh.Option[models.Category], 0, len(models.Categories))
	for _, c := range models.Categories {
		options = append(options, huh.NewOption(string(c), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if len([]rune(strings.TrimSpace(s))) < constants.MinNameLength {
						return fmt.Errorf("name must be at least %d characters", constants.MinNameLength)
					}
					return nil
				}),
			huh.NewInput().
				Title("Dosage").
				Placeholder(constants.DefaultDosage).
				Value(&fm.Dosage),
			huh.NewSelect[models.Category]().
				Title("Category").
				Options(options...).
				Value(&fm.Category),
			huh.NewInput().
				Title("Hour (0-23)").
				Value(&fm.Hour).
				Validate(validateHour),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewReminderForm creates the form for the daily reminder settings
func NewReminderForm(fm *ReminderFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Daily reminder").
				Affirmative("On").
				Negative("Off").
				Value(&fm.Enabled),
			huh.NewInput().
				Title("Time (HH:MM)").
				Value(&fm.Time).
				Validate(func(s string) error {
					if _, _, ok := utils.ParseReminderTime(s); !ok {
						return fmt.Errorf("time must be HH:MM")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func itemFormFrom(s models.Supplement) *ItemFormModel {
	return &ItemFormModel{
		Name:     s.Name,
		Dosage:   s.Dosage,
		Category: s.Category,
		Hour:     strconv.Itoa(s.ReminderHour),
	}
}

func newItemForm() *ItemFormModel {
	d := models.NewDraft()
	return &ItemFormModel{
		Category: d.Category,
		Hour:     strconv.Itoa(d.ReminderHour),
	}
}

func (fm *ItemFormModel) draft() models.Draft {
	d := models.NewDraft()
	d.Name = strings.TrimSpace(fm.Name)
	d.Dosage = strings.TrimSpace(fm.Dosage)
	d.Category = fm.Category
	if h, err := strconv.Atoi(strings.TrimSpace(fm.Hour)); err == nil {
		d.ReminderHour = h
	}
	return d
}

func (fm *ItemFormModel) patch() models.Patch {
	d := fm.draft()
	p := models.Patch{Name: &d.Name, Category: &d.Category, ReminderHour: &d.ReminderHour}
	if d.Dosage != "" {
		p.Dosage = &d.Dosage
	}
	return p
}
