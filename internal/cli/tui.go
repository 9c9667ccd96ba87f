package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/reminder"
	"github.com/julianstephens/pillbox/internal/tracker"
	"github.com/julianstephens/pillbox/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr, err := ctx.OpenTracker(runCtx)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	n, err := ctx.BuildNotifier()
	if err != nil {
		return err
	}

	// The model needs the scheduler, so the fire hook sees the program late.
	var prog atomic.Pointer[tea.Program]
	sched := ctx.NewScheduler(n, reminder.WithOnFire(func(r reminder.FireResult) {
		if p := prog.Load(); p != nil {
			p.Send(tui.FiredMsg{Result: r})
		}
	}))
	defer sched.Stop()

	tr.OnChange(sched.Listener(runCtx))
	sched.Schedule(runCtx, tr.Settings())

	p := tea.NewProgram(tui.NewModel(tr, sched), tea.WithAltScreen(), tea.WithContext(runCtx))
	prog.Store(p)

	rollover, err := reminder.NewRollover(ctx.Clock, ctx.Loc, func() {
		if err := tr.Load(runCtx); err != nil {
			logger.Error("Failed to reload supplements at midnight", "error", err)
			return
		}
		p.Send(tui.ChangedMsg{Snapshot: tracker.Snapshot{Items: tr.Items(), Settings: tr.Settings()}})
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rollover.Stop(); err != nil {
			logger.Warn("Failed to stop rollover scheduler", "error", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}
