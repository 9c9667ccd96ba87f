package reminder

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/pillbox/internal/constants"
)

// Rollover runs a task once a day just after midnight so a long-running
// process makes a fresh scheduling decision for the new day.
type Rollover struct {
	sched gocron.Scheduler
	job   gocron.Job
}

// NewRollover starts a daily job at 00:00 plus RolloverDelay in loc.
func NewRollover(clock clockwork.Clock, loc *time.Location, task func()) (*Rollover, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rollover scheduler: %w", err)
	}

	seconds := uint(constants.RolloverDelay / time.Second)
	job, err := s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, seconds))),
		gocron.NewTask(task),
		gocron.WithName("midnight-rollover"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to register rollover job: %w", err)
	}

	s.Start()
	return &Rollover{sched: s, job: job}, nil
}

// NextRun returns when the rollover will next run.
func (r *Rollover) NextRun() (time.Time, error) {
	return r.job.NextRun()
}

func (r *Rollover) Stop() error {
	return r.sched.Shutdown()
}
