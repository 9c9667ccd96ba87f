package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/storage"
	"github.com/julianstephens/pillbox/internal/utils"
)

var (
	ErrInvalidName = errors.New("name must be at least 2 characters")
	ErrInvalidTime = errors.New("reminder time must be HH:MM (00:00-23:59)")
	ErrNotFound    = errors.New("supplement not found")
)

// Snapshot is the state handed to change listeners.
type Snapshot struct {
	Items    []models.Supplement
	Settings models.ReminderSettings
}

// Listener is called after every state change, outside the tracker lock.
type Listener func(Snapshot)

// Tracker owns the supplement list and reminder settings. Every mutation is
// applied in memory first and then persisted through the gateway; a failed
// write is logged and kept in Err while the in-memory state stays current.
type Tracker struct {
	mu        sync.Mutex
	gw        storage.Gateway
	clock     clockwork.Clock
	loc       *time.Location
	items     []models.Supplement
	settings  models.ReminderSettings
	err       error
	listeners []Listener
}

type Option func(*Tracker)

// WithClock sets the clock used to compute today's date-key.
func WithClock(c clockwork.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithLocation sets the time zone date-keys are computed in.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

func New(gw storage.Gateway, opts ...Option) *Tracker {
	t := &Tracker{
		gw:       gw,
		clock:    clockwork.NewRealClock(),
		loc:      time.Local,
		items:    []models.Supplement{},
		settings: models.DefaultReminderSettings(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load reads both records from the gateway. When nothing usable is stored the
// defaults are seeded and written back.
func (t *Tracker) Load(ctx context.Context) error {
	items, found, err := storage.LoadSupplements(ctx, t.gw)
	if err != nil {
		return err
	}
	settings, settingsFound, err := storage.LoadReminderSettings(ctx, t.gw)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if found {
		t.items = items
	} else {
		logger.Info("No stored supplements, seeding defaults")
		t.items = models.DefaultSupplements()
		t.persistItems(ctx)
	}
	t.settings = settings
	if !settingsFound {
		t.persistSettings(ctx)
	}
	snap := t.snapshot()
	t.mu.Unlock()

	t.notify(snap)
	return nil
}

// OnChange registers a listener for state changes.
func (t *Tracker) OnChange(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Now returns the current time in the tracker's location.
func (t *Tracker) Now() time.Time {
	return t.clock.Now().In(t.loc)
}

// Today returns today's date-key. It is recomputed on every call.
func (t *Tracker) Today() string {
	return utils.TodayKey(t.Now())
}

// Items returns a copy of the current list.
func (t *Tracker) Items() []models.Supplement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyList(t.items)
}

// Settings returns the current reminder settings.
func (t *Tracker) Settings() models.ReminderSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// Err returns the last storage write error, or nil once a write succeeds again.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Find resolves ref as an id first, then as a case-insensitive name.
func (t *Tracker) Find(ref string) (models.Supplement, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if i := indexOf(t.items, ref); i >= 0 {
		return t.items[i].Clone(), true
	}
	for _, s := range t.items {
		if strings.EqualFold(s.Name, ref) {
			return s.Clone(), true
		}
	}
	return models.Supplement{}, false
}

// TakeItem marks the supplement taken today.
func (t *Tracker) TakeItem(ctx context.Context, id string) error {
	today := t.Today()
	return t.mutateItems(ctx, func(items []models.Supplement) ([]models.Supplement, error) {
		out, ok := Take(items, id, today)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return out, nil
	})
}

// AddItem appends a new supplement built from draft.
func (t *Tracker) AddItem(ctx context.Context, draft models.Draft) (models.Supplement, error) {
	var added models.Supplement
	err := t.mutateItems(ctx, func(items []models.Supplement) ([]models.Supplement, error) {
		out, s, ok := Add(items, draft)
		if !ok {
			return nil, ErrInvalidName
		}
		added = s
		return out, nil
	})
	return added, err
}

// UpdateItem applies patch to the supplement with the given id.
func (t *Tracker) UpdateItem(ctx context.Context, id string, patch models.Patch) error {
	return t.mutateItems(ctx, func(items []models.Supplement) ([]models.Supplement, error) {
		out, ok := Update(items, id, patch)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return out, nil
	})
}

// DeleteItem removes the supplement with the given id.
func (t *Tracker) DeleteItem(ctx context.Context, id string) error {
	return t.mutateItems(ctx, func(items []models.Supplement) ([]models.Supplement, error) {
		out, ok := Remove(items, id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return out, nil
	})
}

// SetReminderEnabled turns the daily reminder on or off.
func (t *Tracker) SetReminderEnabled(ctx context.Context, enabled bool) {
	t.mutateSettings(ctx, func(s models.ReminderSettings) models.ReminderSettings {
		s.Enabled = enabled
		return s
	})
}

// SetReminderTime stores value as the reminder time, zero padded. Malformed
// input is rejected and nothing changes.
func (t *Tracker) SetReminderTime(ctx context.Context, value string) error {
	hour, minute, ok := utils.ParseReminderTime(value)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	t.mutateSettings(ctx, func(s models.ReminderSettings) models.ReminderSettings {
		s.Time = utils.FormatTime(hour, minute)
		return s
	})
	return nil
}

// mutateItems applies fn under the lock. An error from fn means "no change":
// nothing is persisted and listeners are not called.
func (t *Tracker) mutateItems(ctx context.Context, fn func([]models.Supplement) ([]models.Supplement, error)) error {
	t.mu.Lock()
	out, err := fn(t.items)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.items = out
	t.persistItems(ctx)
	snap := t.snapshot()
	t.mu.Unlock()

	t.notify(snap)
	return nil
}

func (t *Tracker) mutateSettings(ctx context.Context, fn func(models.ReminderSettings) models.ReminderSettings) {
	t.mu.Lock()
	t.settings = fn(t.settings)
	t.persistSettings(ctx)
	snap := t.snapshot()
	t.mu.Unlock()

	t.notify(snap)
}

func (t *Tracker) persistItems(ctx context.Context) {
	t.recordWrite(storage.SaveSupplements(ctx, t.gw, t.items))
}

func (t *Tracker) persistSettings(ctx context.Context) {
	t.recordWrite(storage.SaveReminderSettings(ctx, t.gw, t.settings))
}

func (t *Tracker) recordWrite(err error) {
	if err != nil {
		logger.Error("Failed to persist state", "error", err)
	}
	t.err = err
}

func (t *Tracker) snapshot() Snapshot {
	return Snapshot{Items: copyList(t.items), Settings: t.settings}
}

func (t *Tracker) notify(snap Snapshot) {
	t.mu.Lock()
	listeners := append([]Listener(nil), t.listeners...)
	t.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
