package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/notifier"
	"github.com/julianstephens/pillbox/internal/reminder"
	"github.com/julianstephens/pillbox/internal/storage"
	"github.com/julianstephens/pillbox/internal/tracker"
)

func describeReminder(s models.ReminderSettings) string {
	if !s.Enabled {
		return "off"
	}
	return "daily at " + s.Time
}

type ReminderCmd struct {
	Enable  bool   `help:"Turn the daily reminder on." xor:"toggle"`
	Disable bool   `help:"Turn the daily reminder off." xor:"toggle"`
	Time    string `short:"t" help:"Reminder time (HH:MM)."`
}

func (c *ReminderCmd) Run(ctx *Context) error {
	bg := context.Background()
	tr, err := ctx.OpenTracker(bg)
	if err != nil {
		return err
	}

	if c.Time != "" {
		if err := tr.SetReminderTime(bg, c.Time); err != nil {
			return err
		}
	}
	switch {
	case c.Enable:
		tr.SetReminderEnabled(bg, true)
	case c.Disable:
		tr.SetReminderEnabled(bg, false)
	}
	ctx.warnOnSaveError(tr)

	settings := tr.Settings()
	fmt.Fprintf(ctx.Out, "Reminder: %s\n", describeReminder(settings))
	if target, ok := reminder.Plan(tr.Now(), settings); ok {
		fmt.Fprintf(ctx.Out, "Next reminder in %s\n", target.Delay.Round(time.Minute))
	} else if settings.Enabled {
		fmt.Fprintln(ctx.Out, "Today's reminder time has passed.")
	}
	return nil
}

type NotifyCmd struct {
	DryRun bool `help:"Report what would be sent without sending it."`
}

func (c *NotifyCmd) Run(ctx *Context) error {
	bg := context.Background()
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	n, err := ctx.BuildNotifier()
	if err != nil {
		return err
	}
	sched := ctx.NewScheduler(n)
	defer sched.Stop()

	if c.DryRun {
		r := sched.DryRun(bg)
		switch r.Outcome {
		case reminder.OutcomeSent:
			fmt.Fprintf(ctx.Out, "Would send %q (%d pending)\n", constants.ReminderTitle, r.Pending)
		case reminder.OutcomeSuppressed:
			fmt.Fprintln(ctx.Out, "Everything taken today, nothing to send.")
		case reminder.OutcomeBlocked:
			fmt.Fprintln(ctx.Out, reminder.BlockedNotice)
		default:
			return r.Err
		}
		return nil
	}

	if n.Permission(bg) == notifier.PermissionDefault {
		if _, err := n.RequestPermission(bg); err != nil {
			logger.Warn("Notification permission request failed", "error", err)
		}
	}

	already, err := n.SentToday(bg, constants.ReminderTag)
	if err != nil {
		return err
	}

	r := sched.Fire(bg)
	switch r.Outcome {
	case reminder.OutcomeSent:
		if already {
			fmt.Fprintf(ctx.Out, "Reminder already sent today (%d pending)\n", r.Pending)
		} else {
			fmt.Fprintf(ctx.Out, "Reminder sent (%d pending)\n", r.Pending)
		}
	case reminder.OutcomeSuppressed:
		fmt.Fprintln(ctx.Out, "Everything taken today, no reminder sent.")
	case reminder.OutcomeBlocked:
		return errors.New(reminder.BlockedNotice)
	default:
		return fmt.Errorf("failed to send reminder: %w", r.Err)
	}
	return nil
}

// WatchCmd keeps the reminder armed: it re-plans after every change it makes,
// after each midnight rollover, and when the store is reloaded.
type WatchCmd struct {
	Poll time.Duration `help:"How often to pick up changes made by other pillbox processes." default:"1m"`
}

func (c *WatchCmd) Run(ctx *Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(sigCtx, ctx)
}

func (c *WatchCmd) run(runCtx context.Context, ctx *Context) error {
	tr, err := ctx.OpenTracker(runCtx)
	if err != nil {
		return err
	}

	n, err := ctx.BuildNotifier()
	if err != nil {
		return err
	}

	sched := ctx.NewScheduler(n, reminder.WithOnFire(func(r reminder.FireResult) {
		logger.Info("Reminder fired", "outcome", r.Outcome.String(), "pending", r.Pending)
	}))
	defer sched.Stop()
	tr.OnChange(sched.Listener(runCtx))

	replan := func(reason string) {
		if err := tr.Load(runCtx); err != nil {
			logger.Error("Failed to reload supplements", "error", err)
			return
		}
		state := sched.State()
		if at, ok := sched.Target(); ok {
			logger.Info("Reminder planned", "reason", reason, "state", state.String(), "at", at.Format(constants.TimeFormat))
		} else {
			logger.Info("Reminder planned", "reason", reason, "state", state.String())
		}
	}

	rollover, err := reminder.NewRollover(ctx.Clock, ctx.Loc, func() { replan("midnight") })
	if err != nil {
		return err
	}
	defer func() {
		if err := rollover.Stop(); err != nil {
			logger.Warn("Failed to stop rollover scheduler", "error", err)
		}
	}()

	replan("start")
	if sched.Blocked(runCtx) {
		fmt.Fprintln(ctx.Out, reminder.BlockedNotice)
	}
	fmt.Fprintf(ctx.Out, "Watching reminders (%s). Press Ctrl+C to stop.\n", describeReminder(tr.Settings()))

	ticker := ctx.Clock.NewTicker(c.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			fmt.Fprintln(ctx.Out, "Stopped.")
			return nil
		case <-ticker.Chan():
			reloadIfChanged(runCtx, ctx.Store, tr, replan)
		}
	}
}

func (c *WatchCmd) pollInterval() time.Duration {
	if c.Poll <= 0 {
		return time.Minute
	}
	return c.Poll
}

// reloadIfChanged replans when the stored settings differ from the tracker's.
// Item changes need no replan since a fire always reads the store.
func reloadIfChanged(ctx context.Context, gw storage.Gateway, tr *tracker.Tracker, replan func(string)) {
	stored, found, err := storage.LoadReminderSettings(ctx, gw)
	if err != nil || !found {
		return
	}
	if stored != tr.Settings() {
		replan("settings changed")
	}
}
