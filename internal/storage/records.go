package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/models"
)

// LoadSupplements reads and normalizes the stored supplement list.
// found is false when nothing was stored yet or the record is not a JSON array;
// callers seed defaults in that case.
func LoadSupplements(ctx context.Context, gw Gateway) (items []models.Supplement, found bool, err error) {
	raw, ok, err := gw.Get(ctx, constants.SupplementsKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read supplements: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	items, issues, ok := models.NormalizeListVerbose([]byte(raw))
	if !ok {
		logger.Warn("Stored supplement record is not a list, ignoring it", "key", constants.SupplementsKey)
		return nil, false, nil
	}
	if len(issues) > 0 {
		logger.Warn("Repaired malformed supplement records", "count", len(issues), "issues", issues)
	}
	return items, true, nil
}

// SaveSupplements writes the whole supplement list as one record.
func SaveSupplements(ctx context.Context, gw Gateway, items []models.Supplement) error {
	if items == nil {
		items = []models.Supplement{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize supplements: %w", err)
	}
	if err := gw.Set(ctx, constants.SupplementsKey, string(data)); err != nil {
		return fmt.Errorf("failed to write supplements: %w", err)
	}
	return nil
}

// LoadReminderSettings reads the reminder settings. A missing or unusable
// record yields the defaults with found=false.
func LoadReminderSettings(ctx context.Context, gw Gateway) (models.ReminderSettings, bool, error) {
	raw, ok, err := gw.Get(ctx, constants.SettingsKey)
	if err != nil {
		return models.DefaultReminderSettings(), false, fmt.Errorf("failed to read reminder settings: %w", err)
	}
	if !ok {
		return models.DefaultReminderSettings(), false, nil
	}

	settings, ok := models.NormalizeSettings([]byte(raw))
	if !ok {
		logger.Warn("Stored reminder settings are malformed, using defaults", "key", constants.SettingsKey)
	}
	return settings, ok, nil
}

// SaveReminderSettings writes the reminder settings record.
func SaveReminderSettings(ctx context.Context, gw Gateway, settings models.ReminderSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to serialize reminder settings: %w", err)
	}
	if err := gw.Set(ctx, constants.SettingsKey, string(data)); err != nil {
		return fmt.Errorf("failed to write reminder settings: %w", err)
	}
	return nil
}

// SentLog maps a notification tag to the date-key it was last sent on.
type SentLog map[string]string

// LoadSentLog reads the record of delivered tagged reminders.
func LoadSentLog(ctx context.Context, gw Gateway) (SentLog, error) {
	raw, ok, err := gw.Get(ctx, constants.ReminderSentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read reminder log: %w", err)
	}
	log := SentLog{}
	if !ok {
		return log, nil
	}
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		logger.Warn("Stored reminder log is malformed, resetting it", "error", err)
		return SentLog{}, nil
	}
	return log, nil
}

// SaveSentLog writes the record of delivered tagged reminders.
func SaveSentLog(ctx context.Context, gw Gateway, log SentLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to serialize reminder log: %w", err)
	}
	if err := gw.Set(ctx, constants.ReminderSentKey, string(data)); err != nil {
		return fmt.Errorf("failed to write reminder log: %w", err)
	}
	return nil
}
