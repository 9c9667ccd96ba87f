package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/pillbox/internal/stats"
	"github.com/julianstephens/pillbox/internal/utils"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *Context) error {
	tr, err := ctx.OpenTracker(context.Background())
	if err != nil {
		return err
	}

	sum := stats.Summarize(tr.Items(), tr.Now())
	fmt.Fprintf(ctx.Out, "%s\n", utils.FriendlyLabel(tr.Now()))
	fmt.Fprintf(ctx.Out, "Taken %d/%d (%d%%)  Streak: %d days\n\n", sum.CompletedToday, sum.Total, sum.CompletionRate, sum.Streak)

	if sum.Total == 0 {
		fmt.Fprintln(ctx.Out, "No supplements tracked. Add one with 'pillbox add'.")
		return nil
	}
	for _, st := range sum.Items {
		mark := "[ ]"
		if st.TakenToday {
			mark = "[✓]"
		}
		fmt.Fprintf(ctx.Out, "  %s %s - %s\n", mark, st.Supplement.Name, st.Supplement.Dosage)
	}
	fmt.Fprintf(ctx.Out, "\n%s\n", sum.Insight)
	fmt.Fprintf(ctx.Out, "Reminder: %s\n", describeReminder(tr.Settings()))
	return nil
}

type StatsCmd struct {
	Markdown bool `short:"m" help:"Render the report as styled markdown."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	tr, err := ctx.OpenTracker(context.Background())
	if err != nil {
		return err
	}

	sum := stats.Summarize(tr.Items(), tr.Now())
	if !c.Markdown {
		writePlainStats(ctx, sum)
		return nil
	}

	md := statsMarkdown(sum)
	out, err := glamour.Render(md, "dark")
	if err != nil {
		// Fall back to the raw markdown.
		out = md
	}
	fmt.Fprintln(ctx.Out, strings.TrimSpace(out))
	return nil
}

func writePlainStats(ctx *Context, sum stats.Summary) {
	fmt.Fprintf(ctx.Out, "Completion today: %d%% (%d of %d)\n", sum.CompletionRate, sum.CompletedToday, sum.Total)
	fmt.Fprintf(ctx.Out, "Streak:           %d days\n", sum.Streak)
	fmt.Fprintf(ctx.Out, "This week:        %d/7 days complete\n\n", sum.WeeklyScore)

	var labels, marks []string
	for _, d := range sum.WeeklyHistory {
		labels = append(labels, fmt.Sprintf("%-2s", d.Label))
		if d.Completed {
			marks = append(marks, "● ")
		} else {
			marks = append(marks, "○ ")
		}
	}
	fmt.Fprintf(ctx.Out, "  %s\n  %s\n", strings.Join(labels, " "), strings.Join(marks, " "))
}

func statsMarkdown(sum stats.Summary) string {
	var b strings.Builder
	b.WriteString("# Supplement stats\n\n")
	fmt.Fprintf(&b, "- **Today:** %d%% (%d of %d taken)\n", sum.CompletionRate, sum.CompletedToday, sum.Total)
	fmt.Fprintf(&b, "- **Streak:** %d days\n", sum.Streak)
	fmt.Fprintf(&b, "- **This week:** %d/7 complete days\n\n", sum.WeeklyScore)

	b.WriteString("## Last 7 days\n\n| Day | Date | Complete |\n|---|---|---|\n")
	for _, d := range sum.WeeklyHistory {
		done := "no"
		if d.Completed {
			done = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Label, d.Date, done)
	}

	if len(sum.Items) > 0 {
		b.WriteString("\n## Today\n\n")
		for _, st := range sum.Items {
			box := "[ ]"
			if st.TakenToday {
				box = "[x]"
			}
			fmt.Fprintf(&b, "- %s %s (%s)\n", box, st.Supplement.Name, st.Supplement.Dosage)
		}
	}

	fmt.Fprintf(&b, "\n> %s\n", sum.Insight)
	return b.String()
}
