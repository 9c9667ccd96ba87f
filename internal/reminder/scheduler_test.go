package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/notifier"
	"github.com/julianstephens/pillbox/internal/storage"
)

// 2024-05-10 15:00 UTC
var testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu         sync.Mutex
	permission notifier.Permission
	onRequest  notifier.Permission
	requests   int
	requestErr error
	sent       []notifier.Notification
	err        error
}

func newFakeNotifier(p notifier.Permission) *fakeNotifier {
	return &fakeNotifier{permission: p, onRequest: notifier.PermissionGranted}
}

func (f *fakeNotifier) Permission(context.Context) notifier.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission
}

func (f *fakeNotifier) RequestPermission(context.Context) (notifier.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if f.requestErr != nil {
		err := f.requestErr
		f.requestErr = nil
		return f.permission, err
	}
	f.permission = f.onRequest
	return f.permission, nil
}

func (f *fakeNotifier) Notify(_ context.Context, n notifier.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func staticSource(items ...models.Supplement) ItemSource {
	return func(context.Context) ([]models.Supplement, error) { return items, nil }
}

func pendingItem(id string) models.Supplement {
	return models.Supplement{ID: id, Name: "Item " + id, Dosage: "1", Category: models.CategoryVitamin, ReminderHour: 8, History: []string{}}
}

func takenItem(id, date string) models.Supplement {
	s := pendingItem(id)
	s.LastTakenDate = &date
	s.History = []string{date}
	return s
}

type harness struct {
	clock *clockwork.FakeClock
	notif *fakeNotifier
	sched *Scheduler
	fired chan FireResult
}

func newHarness(t *testing.T, source ItemSource) *harness {
	t.Helper()
	h := &harness{
		clock: clockwork.NewFakeClockAt(testNow),
		notif: newFakeNotifier(notifier.PermissionGranted),
		fired: make(chan FireResult, 4),
	}
	h.sched = New(h.notif, source,
		WithClock(h.clock),
		WithLocation(time.UTC),
		WithOnFire(func(r FireResult) { h.fired <- r }),
	)
	t.Cleanup(h.sched.Stop)
	return h
}

func (h *harness) waitFire(t *testing.T) FireResult {
	t.Helper()
	select {
	case r := <-h.fired:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire")
		return FireResult{}
	}
}

func (h *harness) expectNoFire(t *testing.T) {
	t.Helper()
	select {
	case r := <-h.fired:
		t.Fatalf("unexpected fire: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		settings models.ReminderSettings
		wantOK   bool
		delay    time.Duration
	}{
		{"future", models.ReminderSettings{Enabled: true, Time: "19:00"}, true, 4 * time.Hour},
		{"one minute ahead", models.ReminderSettings{Enabled: true, Time: "15:01"}, true, time.Minute},
		{"exactly now", models.ReminderSettings{Enabled: true, Time: "15:00"}, false, 0},
		{"past", models.ReminderSettings{Enabled: true, Time: "09:30"}, false, 0},
		{"disabled", models.ReminderSettings{Enabled: false, Time: "19:00"}, false, 0},
		{"malformed", models.ReminderSettings{Enabled: true, Time: "7pm"}, false, 0},
		{"out of range", models.ReminderSettings{Enabled: true, Time: "24:10"}, false, 0},
		{"single digit hour", models.ReminderSettings{Enabled: true, Time: "9:05"}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := Plan(testNow, tt.settings)
			if ok != tt.wantOK {
				t.Fatalf("Plan() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && target.Delay != tt.delay {
				t.Errorf("Delay = %v, want %v", target.Delay, tt.delay)
			}
			if ok && !target.At.Equal(testNow.Add(tt.delay)) {
				t.Errorf("At = %v", target.At)
			}
		})
	}
}

func TestSchedule_PastTimeStaysIdle(t *testing.T) {
	h := newHarness(t, staticSource(pendingItem("a")))
	if got := h.sched.Schedule(context.Background(), models.ReminderSettings{Enabled: true, Time: "08:00"}); got != Idle {
		t.Fatalf("Schedule() = %s, want idle", got)
	}
	h.clock.Advance(24 * time.Hour)
	h.expectNoFire(t)
}

func TestSchedule_FiresOnceWithTag(t *testing.T) {
	h := newHarness(t, staticSource(pendingItem("a"), takenItem("b", "2024-05-10")))
	ctx := context.Background()

	if got := h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "19:00"}); got != Armed {
		t.Fatalf("Schedule() = %s, want armed", got)
	}
	at, ok := h.sched.Target()
	if !ok || !at.Equal(time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC)) {
		t.Errorf("Target() = %v, %v", at, ok)
	}

	h.clock.Advance(4*time.Hour - time.Second)
	h.expectNoFire(t)

	h.clock.Advance(time.Second)
	r := h.waitFire(t)
	if r.Outcome != OutcomeSent || r.Pending != 1 {
		t.Errorf("result = %+v, want sent with 1 pending", r)
	}
	if h.notif.sentCount() != 1 {
		t.Fatalf("sent %d notifications, want 1", h.notif.sentCount())
	}
	if tag := h.notif.sent[0].Tag; tag != constants.ReminderTag {
		t.Errorf("tag = %q, want %q", tag, constants.ReminderTag)
	}
	if h.sched.State() != Idle {
		t.Error("scheduler should be idle after firing")
	}

	// A fire never re-arms.
	h.clock.Advance(48 * time.Hour)
	h.expectNoFire(t)
	if h.notif.sentCount() != 1 {
		t.Error("reminder re-armed itself")
	}
}

func TestSchedule_SuppressedWhenAllTaken(t *testing.T) {
	h := newHarness(t, staticSource(takenItem("a", "2024-05-10"), takenItem("b", "2024-05-10")))
	h.sched.Schedule(context.Background(), models.ReminderSettings{Enabled: true, Time: "16:00"})
	h.clock.Advance(time.Hour)

	r := h.waitFire(t)
	if r.Outcome != OutcomeSuppressed {
		t.Errorf("Outcome = %s, want suppressed", r.Outcome)
	}
	if h.notif.sentCount() != 0 {
		t.Error("notification sent although everything was taken")
	}
}

func TestSchedule_EmptyListSuppressed(t *testing.T) {
	h := newHarness(t, staticSource())
	h.sched.Schedule(context.Background(), models.ReminderSettings{Enabled: true, Time: "16:00"})
	h.clock.Advance(time.Hour)
	if r := h.waitFire(t); r.Outcome != OutcomeSuppressed {
		t.Errorf("Outcome = %s, want suppressed for empty list", r.Outcome)
	}
}

func TestSchedule_ReadsPersistedStateAtFireTime(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemoryStore()
	if err := storage.SaveSupplements(ctx, gw, []models.Supplement{pendingItem("a")}); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, GatewaySource(gw))
	h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "16:00"})

	// Taken elsewhere after arming.
	if err := storage.SaveSupplements(ctx, gw, []models.Supplement{takenItem("a", "2024-05-10")}); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(time.Hour)

	if r := h.waitFire(t); r.Outcome != OutcomeSuppressed {
		t.Errorf("Outcome = %s, want suppressed from persisted state", r.Outcome)
	}
}

func TestSchedule_SharedJSONFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pillbox.json")

	daemon := storage.NewJSONStore(path)
	if err := daemon.Init(); err != nil {
		t.Fatal(err)
	}
	if err := storage.SaveSupplements(ctx, daemon, []models.Supplement{pendingItem("a"), pendingItem("b")}); err != nil {
		t.Fatal(err)
	}

	clock := clockwork.NewFakeClockAt(testNow)
	notif := newFakeNotifier(notifier.PermissionGranted)
	fired := make(chan FireResult, 1)
	sched := New(notifier.NewDedupe(notif, daemon, func() string { return "2024-05-10" }), GatewaySource(daemon),
		WithClock(clock),
		WithLocation(time.UTC),
		WithOnFire(func(r FireResult) { fired <- r }),
	)
	t.Cleanup(sched.Stop)
	sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "16:00"})

	// Another process takes one item through its own store on the same file.
	other := storage.NewJSONStore(path)
	if err := other.Load(); err != nil {
		t.Fatal(err)
	}
	if err := storage.SaveSupplements(ctx, other, []models.Supplement{takenItem("a", "2024-05-10"), pendingItem("b")}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Hour)
	var r FireResult
	select {
	case r = <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire")
	}
	if r.Outcome != OutcomeSent || r.Pending != 1 {
		t.Fatalf("fire = %s with %d pending, want sent with 1", r.Outcome, r.Pending)
	}

	// Recording the send must not overwrite the other process's take.
	items, _, err := storage.LoadSupplements(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || !items[0].TakenOn("2024-05-10") {
		t.Errorf("items after fire = %+v, the take was lost", items)
	}
}

func TestSchedule_RescheduleCancelsPrevious(t *testing.T) {
	h := newHarness(t, staticSource(pendingItem("a")))
	ctx := context.Background()

	h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "16:00"})
	h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "18:00"})

	h.clock.Advance(90 * time.Minute)
	h.expectNoFire(t)

	h.clock.Advance(90 * time.Minute)
	h.waitFire(t)
	h.expectNoFire(t)
	if h.notif.sentCount() != 1 {
		t.Errorf("sent %d, want exactly 1", h.notif.sentCount())
	}
}

func TestSchedule_DisableCancels(t *testing.T) {
	h := newHarness(t, staticSource(pendingItem("a")))
	ctx := context.Background()

	h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "16:00"})
	if got := h.sched.Schedule(ctx, models.ReminderSettings{Enabled: false, Time: "16:00"}); got != Idle {
		t.Fatalf("Schedule() = %s, want idle", got)
	}
	h.clock.Advance(2 * time.Hour)
	h.expectNoFire(t)
}

func TestSchedule_StopIsFinal(t *testing.T) {
	h := newHarness(t, staticSource(pendingItem("a")))
	ctx := context.Background()

	h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "16:00"})
	h.sched.Stop()
	if got := h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "17:00"}); got != Idle {
		t.Errorf("Schedule() after Stop = %s, want idle", got)
	}
	h.clock.Advance(3 * time.Hour)
	h.expectNoFire(t)
}

func TestSchedule_Permission(t *testing.T) {
	ctx := context.Background()
	settings := models.ReminderSettings{Enabled: true, Time: "19:00"}

	t.Run("default asks once", func(t *testing.T) {
		h := newHarness(t, staticSource(pendingItem("a")))
		h.notif.permission = notifier.PermissionDefault
		h.notif.onRequest = notifier.PermissionDefault

		h.sched.Schedule(ctx, settings)
		h.sched.Schedule(ctx, settings)
		if h.notif.requests != 1 {
			t.Errorf("RequestPermission called %d times, want 1", h.notif.requests)
		}
		if h.sched.State() != Idle {
			t.Error("armed without permission")
		}
	})

	t.Run("default then granted arms", func(t *testing.T) {
		h := newHarness(t, staticSource(pendingItem("a")))
		h.notif.permission = notifier.PermissionDefault
		if got := h.sched.Schedule(ctx, settings); got != Armed {
			t.Errorf("Schedule() = %s, want armed after grant", got)
		}
	})

	t.Run("failed request asks again", func(t *testing.T) {
		h := newHarness(t, staticSource(pendingItem("a")))
		h.notif.permission = notifier.PermissionDefault
		h.notif.requestErr = errors.New("connection reset")

		if got := h.sched.Schedule(ctx, settings); got != Idle {
			t.Fatalf("Schedule() = %s, want idle after a failed request", got)
		}
		if got := h.sched.Schedule(ctx, settings); got != Armed {
			t.Errorf("Schedule() = %s, want armed once the request succeeds", got)
		}
		if h.notif.requests != 2 {
			t.Errorf("RequestPermission called %d times, want 2", h.notif.requests)
		}
		h.sched.Schedule(ctx, settings)
		if h.notif.requests != 2 {
			t.Error("permission requested again after an answer")
		}
	})

	t.Run("disabled does not ask", func(t *testing.T) {
		h := newHarness(t, staticSource(pendingItem("a")))
		h.notif.permission = notifier.PermissionDefault
		h.sched.Schedule(ctx, models.ReminderSettings{Enabled: false, Time: "19:00"})
		if h.notif.requests != 0 {
			t.Error("permission requested while reminders are disabled")
		}
	})

	t.Run("denied is blocked", func(t *testing.T) {
		h := newHarness(t, staticSource(pendingItem("a")))
		h.notif.permission = notifier.PermissionDenied
		if got := h.sched.Schedule(ctx, settings); got != Idle {
			t.Errorf("Schedule() = %s, want idle", got)
		}
		if !h.sched.Blocked(ctx) {
			t.Error("Blocked() = false for denied permission")
		}
		if h.notif.requests != 0 {
			t.Error("denied permission must not be re-requested")
		}
	})

	t.Run("revoked before fire", func(t *testing.T) {
		h := newHarness(t, staticSource(pendingItem("a")))
		h.sched.Schedule(ctx, models.ReminderSettings{Enabled: true, Time: "16:00"})
		h.notif.mu.Lock()
		h.notif.permission = notifier.PermissionDenied
		h.notif.mu.Unlock()

		h.clock.Advance(time.Hour)
		if r := h.waitFire(t); r.Outcome != OutcomeBlocked {
			t.Errorf("Outcome = %s, want blocked", r.Outcome)
		}
		if h.notif.sentCount() != 0 {
			t.Error("sent after permission was revoked")
		}
	})
}

func TestFireAndDryRun(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, staticSource(pendingItem("a"), pendingItem("b")))

	r := h.sched.DryRun(ctx)
	if r.Outcome != OutcomeSent || r.Pending != 2 {
		t.Errorf("DryRun() = %+v", r)
	}
	if h.notif.sentCount() != 0 {
		t.Error("DryRun() sent a notification")
	}

	if r := h.sched.Fire(ctx); r.Outcome != OutcomeSent {
		t.Errorf("Fire() = %+v", r)
	}
	if h.notif.sentCount() != 1 {
		t.Error("Fire() did not send")
	}

	h.notif.err = errors.New("offline")
	if r := h.sched.Fire(ctx); r.Outcome != OutcomeFailed || r.Err == nil {
		t.Errorf("Fire() with failing notifier = %+v", r)
	}

	failing := New(h.notif, func(context.Context) ([]models.Supplement, error) {
		return nil, errors.New("disk gone")
	}, WithClock(h.clock))
	if r := failing.Fire(ctx); r.Outcome != OutcomeFailed {
		t.Errorf("Fire() with failing source = %s", r.Outcome)
	}
}
