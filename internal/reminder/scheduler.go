package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/notifier"
	"github.com/julianstephens/pillbox/internal/stats"
	"github.com/julianstephens/pillbox/internal/storage"
	"github.com/julianstephens/pillbox/internal/tracker"
	"github.com/julianstephens/pillbox/internal/utils"
)

// BlockedNotice is shown to the user when reminders cannot be delivered.
const BlockedNotice = "Notifications are blocked. Allow them for pillbox to receive the daily reminder."

const fireTimeout = 30 * time.Second

type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Target is a computed reminder instant for today.
type Target struct {
	At    time.Time
	Delay time.Duration
}

// Plan decides whether a reminder should be armed for today. It arms only
// when reminders are enabled, the time parses and today at HH:MM:00 is
// strictly after now.
func Plan(now time.Time, settings models.ReminderSettings) (Target, bool) {
	if !settings.Enabled {
		return Target{}, false
	}
	hour, minute, ok := utils.ParseReminderTime(settings.Time)
	if !ok {
		return Target{}, false
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		return Target{}, false
	}
	return Target{At: at, Delay: at.Sub(now)}, true
}

// ItemSource returns the persisted supplement list at fire time.
type ItemSource func(ctx context.Context) ([]models.Supplement, error)

// GatewaySource reads the list straight from the gateway, so a fire sees
// whatever was last persisted rather than any in-memory copy.
func GatewaySource(gw storage.Gateway) ItemSource {
	return func(ctx context.Context) ([]models.Supplement, error) {
		items, _, err := storage.LoadSupplements(ctx, gw)
		return items, err
	}
}

type Outcome int

const (
	// OutcomeSent means a reminder notification was delivered.
	OutcomeSent Outcome = iota
	// OutcomeSuppressed means everything was already taken.
	OutcomeSuppressed
	// OutcomeBlocked means permission was no longer granted at fire time.
	OutcomeBlocked
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "failed"
	}
}

// FireResult describes one evaluation of the reminder.
type FireResult struct {
	At      time.Time
	Outcome Outcome
	Pending int
	Err     error
}

// Scheduler holds at most one pending reminder timer. Every Schedule call
// cancels the previous timer and decides again from scratch; a fire is
// terminal and never re-arms on its own.
type Scheduler struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	loc      *time.Location
	notifier notifier.Notifier
	source   ItemSource
	onFire   func(FireResult)

	timer     clockwork.Timer
	gen       uint64
	state     State
	target    time.Time
	requested bool
	stopped   bool
}

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithOnFire registers a hook called with the result of every timer fire.
// It runs on the timer goroutine.
func WithOnFire(fn func(FireResult)) Option {
	return func(s *Scheduler) { s.onFire = fn }
}

func New(n notifier.Notifier, source ItemSource, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    clockwork.NewRealClock(),
		loc:      time.Local,
		notifier: n,
		source:   source,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule cancels any pending reminder and arms a new one when settings,
// permission and the current time allow it. It returns the resulting state.
func (s *Scheduler) Schedule(ctx context.Context, settings models.ReminderSettings) State {
	granted := settings.Enabled && s.permitted(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return Idle
	}
	s.cancelLocked()
	if !granted {
		return Idle
	}

	target, ok := Plan(s.clock.Now().In(s.loc), settings)
	if !ok {
		logger.Debug("Reminder not armed", "enabled", settings.Enabled, "time", settings.Time)
		return Idle
	}

	gen := s.gen
	s.timer = s.clock.AfterFunc(target.Delay, func() { s.fire(gen) })
	s.state = Armed
	s.target = target.At
	logger.Debug("Reminder armed", "at", target.At.Format(constants.TimeFormat), "in", target.Delay)
	return Armed
}

// Listener re-runs the scheduling decision after every tracker change.
func (s *Scheduler) Listener(ctx context.Context) tracker.Listener {
	return func(snap tracker.Snapshot) {
		s.Schedule(ctx, snap.Settings)
	}
}

// Stop cancels the pending reminder. Later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelLocked()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the armed reminder instant.
func (s *Scheduler) Target() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.state == Armed
}

// Blocked reports whether the user denied notifications.
func (s *Scheduler) Blocked(ctx context.Context) bool {
	return s.notifier.Permission(ctx) == notifier.PermissionDenied
}

// Fire evaluates the reminder immediately, exactly as a timer fire would.
func (s *Scheduler) Fire(ctx context.Context) FireResult {
	return s.evaluate(ctx, true)
}

// DryRun evaluates the reminder without sending anything.
func (s *Scheduler) DryRun(ctx context.Context) FireResult {
	return s.evaluate(ctx, false)
}

// permitted asks for permission at most once per scheduler lifetime. A
// request that fails without an answer does not count, so the next
// scheduling decision asks again.
func (s *Scheduler) permitted(ctx context.Context) bool {
	p := s.notifier.Permission(ctx)
	if p == notifier.PermissionDefault {
		s.mu.Lock()
		first := !s.requested
		s.requested = true
		s.mu.Unlock()

		if first {
			var err error
			p, err = s.notifier.RequestPermission(ctx)
			if err != nil {
				logger.Warn("Notification permission request failed", "error", err)
				s.mu.Lock()
				s.requested = false
				s.mu.Unlock()
			}
		}
	}
	return p == notifier.PermissionGranted
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.state = Idle
	s.target = time.Time{}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.state = Idle
	s.target = time.Time{}
	onFire := s.onFire
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	result := s.evaluate(ctx, true)
	if onFire != nil {
		onFire(result)
	}
}

func (s *Scheduler) evaluate(ctx context.Context, send bool) FireResult {
	now := s.clock.Now().In(s.loc)
	result := FireResult{At: now}

	if s.notifier.Permission(ctx) != notifier.PermissionGranted {
		result.Outcome = OutcomeBlocked
		return result
	}

	items, err := s.source(ctx)
	if err != nil {
		logger.Error("Unable to read supplements for reminder", "error", err)
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	today := utils.TodayKey(now)
	result.Pending = stats.Pending(items, today)
	if stats.AllDone(items, today) {
		result.Outcome = OutcomeSuppressed
		logger.Debug("Reminder suppressed, everything taken", "date", today)
		return result
	}

	result.Outcome = OutcomeSent
	if !send {
		return result
	}

	n := notifier.Notification{
		Title: constants.ReminderTitle,
		Body:  constants.ReminderBody,
		Tag:   constants.ReminderTag,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Error("Unable to deliver reminder", "error", err)
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	logger.Info("Reminder sent", "pending", result.Pending, "date", today)
	return result
}
