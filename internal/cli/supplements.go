package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/stats"
	"github.com/julianstephens/pillbox/internal/tracker"
)

type AddCmd struct {
	Name     string `arg:"" help:"Supplement name."`
	Dosage   string `short:"d" help:"Dosage, e.g. '5 g' or '1 tablet'." default:"1 dose"`
	Category string `short:"c" help:"Category (vitamin|creatine|other)." default:"vitamin" enum:"vitamin,creatine,other"`
	Hour     int    `short:"H" help:"Hour of day the supplement is usually taken (0-23)." default:"9"`
}

func (c *AddCmd) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23")
	}
	if !tracker.ValidName(c.Name) {
		return tracker.ErrInvalidName
	}
	return nil
}

func (c *AddCmd) Run(ctx *Context) error {
	tr, err := ctx.OpenTracker(context.Background())
	if err != nil {
		return err
	}

	category, err := models.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	draft := models.NewDraft()
	draft.Name = c.Name
	draft.Dosage = c.Dosage
	draft.Category = category
	draft.ReminderHour = c.Hour

	s, err := tr.AddItem(context.Background(), draft)
	if err != nil {
		return err
	}
	ctx.warnOnSaveError(tr)

	fmt.Fprintf(ctx.Out, "Added supplement: %s (ID: %s)\n", s.Name, s.ID)
	return nil
}

type TakeCmd struct {
	Refs []string `arg:"" help:"IDs or names of the supplements taken."`
}

func (c *TakeCmd) Run(ctx *Context) error {
	bg := context.Background()
	tr, err := ctx.OpenTracker(bg)
	if err != nil {
		return err
	}

	today := tr.Today()
	for _, ref := range c.Refs {
		id, err := resolve(tr, ref)
		if err != nil {
			return err
		}
		before, _ := tr.Find(id)
		if err := tr.TakeItem(bg, id); err != nil {
			return err
		}
		if before.TakenOn(today) {
			fmt.Fprintf(ctx.Out, "• %s was already taken today\n", before.Name)
		} else {
			fmt.Fprintf(ctx.Out, "✓ %s taken\n", before.Name)
		}
	}
	ctx.warnOnSaveError(tr)

	items := tr.Items()
	if pending := stats.Pending(items, today); pending == 0 {
		fmt.Fprintln(ctx.Out, "All supplements taken today 🎉")
	} else {
		fmt.Fprintf(ctx.Out, "%d left for today\n", pending)
	}
	return nil
}

type EditCmd struct {
	Ref      string  `arg:"" help:"ID or name of the supplement."`
	Name     *string `help:"New name."`
	Dosage   *string `help:"New dosage."`
	Category *string `help:"New category (vitamin|creatine|other)."`
	Hour     *int    `help:"New hour of day (0-23)."`
}

func (c *EditCmd) Run(ctx *Context) error {
	bg := context.Background()
	tr, err := ctx.OpenTracker(bg)
	if err != nil {
		return err
	}

	id, err := resolve(tr, c.Ref)
	if err != nil {
		return err
	}

	patch := models.Patch{Dosage: c.Dosage, ReminderHour: c.Hour}
	if c.Name != nil {
		if !tracker.ValidName(*c.Name) {
			return tracker.ErrInvalidName
		}
		patch.Name = c.Name
	}
	if c.Category != nil {
		category, err := models.ParseCategory(*c.Category)
		if err != nil {
			return err
		}
		patch.Category = &category
	}
	if c.Hour != nil && (*c.Hour < 0 || *c.Hour > 23) {
		return fmt.Errorf("hour must be between 0 and 23")
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change; pass --name, --dosage, --category or --hour")
	}

	if err := tr.UpdateItem(bg, id, patch); err != nil {
		return err
	}
	ctx.warnOnSaveError(tr)

	s, _ := tr.Find(id)
	fmt.Fprintf(ctx.Out, "Updated supplement: %s (%s, %s)\n", s.Name, s.Dosage, s.Category)
	return nil
}

type DeleteCmd struct {
	Ref string `arg:"" help:"ID or name of the supplement."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *DeleteCmd) Run(ctx *Context) error {
	bg := context.Background()
	tr, err := ctx.OpenTracker(bg)
	if err != nil {
		return err
	}

	id, err := resolve(tr, c.Ref)
	if err != nil {
		return err
	}
	s, _ := tr.Find(id)

	if !c.Yes {
		ok, err := confirm(ctx, fmt.Sprintf("Delete %q and its history?", s.Name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out, "Delete cancelled.")
			return nil
		}
	}

	if err := tr.DeleteItem(bg, id); err != nil {
		return err
	}
	ctx.warnOnSaveError(tr)

	fmt.Fprintf(ctx.Out, "Deleted supplement: %s\n", s.Name)
	return nil
}

type ListCmd struct {
	Pending bool `short:"p" help:"Show only supplements not yet taken today."`
}

func (c *ListCmd) Run(ctx *Context) error {
	tr, err := ctx.OpenTracker(context.Background())
	if err != nil {
		return err
	}

	items := tr.Items()
	if len(items) == 0 {
		fmt.Fprintln(ctx.Out, "No supplements found")
		return nil
	}

	today := tr.Today()
	now := tr.Now()
	fmt.Fprintln(ctx.Out, "Supplements:")
	for _, s := range items {
		taken := s.TakenOn(today)
		if c.Pending && taken {
			continue
		}

		mark := " "
		if taken {
			mark = "✓"
		}
		fmt.Fprintf(ctx.Out, "  [%s] %s - %s (%s, ~%02d:00)\n", mark, s.Name, s.Dosage, s.Category, s.ReminderHour)
		fmt.Fprintf(ctx.Out, "      ID: %s  Last taken: %s  Days logged: %d\n", s.ID, lastTaken(s, now), len(s.History))
	}
	return nil
}

// lastTaken renders the last intake relative to now, e.g. "2 days ago".
func lastTaken(s models.Supplement, now time.Time) string {
	if s.LastTakenDate == nil {
		return "never"
	}
	day, err := time.ParseInLocation(constants.DateFormat, *s.LastTakenDate, now.Location())
	if err != nil {
		return *s.LastTakenDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !day.Before(today) {
		return "today"
	}
	return humanize.RelTime(day, today, "ago", "from now")
}

func confirm(ctx *Context, question string) (bool, error) {
	fmt.Fprintf(ctx.Out, "%s [y/N]: ", question)
	response, err := bufio.NewReader(ctx.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
