package notifier

import (
	"context"
	"sync"

	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/storage"
)

// Dedupe wraps a Notifier so a tagged notification is delivered at most once
// per day, across processes sharing the same gateway. Untagged notifications
// pass through.
type Dedupe struct {
	inner Notifier
	gw    storage.Gateway
	today func() string
	mu    sync.Mutex
}

func NewDedupe(inner Notifier, gw storage.Gateway, today func() string) *Dedupe {
	return &Dedupe{inner: inner, gw: gw, today: today}
}

func (d *Dedupe) Permission(ctx context.Context) Permission {
	return d.inner.Permission(ctx)
}

func (d *Dedupe) RequestPermission(ctx context.Context) (Permission, error) {
	return d.inner.RequestPermission(ctx)
}

func (d *Dedupe) Notify(ctx context.Context, n Notification) error {
	if n.Tag == "" {
		return d.inner.Notify(ctx, n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	today := d.today()
	sent, err := storage.LoadSentLog(ctx, d.gw)
	if err != nil {
		return err
	}
	if sent[n.Tag] == today {
		logger.Debug("Notification already delivered today", "tag", n.Tag, "date", today)
		return nil
	}

	if err := d.inner.Notify(ctx, n); err != nil {
		return err
	}

	sent[n.Tag] = today
	if err := storage.SaveSentLog(ctx, d.gw, sent); err != nil {
		// Delivered but not recorded; a second process may repeat it.
		logger.Warn("Failed to record delivered notification", "tag", n.Tag, "error", err)
	}
	return nil
}

// SentToday reports whether a notification with tag was already delivered today.
func (d *Dedupe) SentToday(ctx context.Context, tag string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sent, err := storage.LoadSentLog(ctx, d.gw)
	if err != nil {
		return false, err
	}
	return sent[tag] == d.today(), nil
}
