package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

const notificationSettingsID = 1

// NotificationSettingsRepository stores the singleton settings row.
type NotificationSettingsRepository struct {
	db *sqlx.DB
}

// NewNotificationSettingsRepository constructs the repository.
func NewNotificationSettingsRepository(db *sqlx.DB) *NotificationSettingsRepository {
	return &NotificationSettingsRepository{db: db}
}

// Get returns the stored settings, or nil when no row has been saved yet.
func (r *NotificationSettingsRepository) Get(ctx context.Context) (*models.NotificationSettings, error) {
	const query = `SELECT id, enable_alerts, enable_reminders, enable_reminder_library, enable_reminder_bursar, enable_reminder_academic,
library_email, bursar_email, academic_email, processor_email,
reminder_hours_library, reminder_hours_bursar, reminder_hours_academic, updated_by, updated_at
FROM notification_settings WHERE id = $1`
	var settings models.NotificationSettings
	if err := r.db.GetContext(ctx, &settings, query, notificationSettingsID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	return &settings, nil
}

// Upsert saves the settings row.
func (r *NotificationSettingsRepository) Upsert(ctx context.Context, settings *models.NotificationSettings) error {
	settings.ID = notificationSettingsID
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO notification_settings (id, enable_alerts, enable_reminders, enable_reminder_library, enable_reminder_bursar,
enable_reminder_academic, library_email, bursar_email, academic_email, processor_email,
reminder_hours_library, reminder_hours_bursar, reminder_hours_academic, updated_by, updated_at)
VALUES (:id, :enable_alerts, :enable_reminders, :enable_reminder_library, :enable_reminder_bursar,
:enable_reminder_academic, :library_email, :bursar_email, :academic_email, :processor_email,
:reminder_hours_library, :reminder_hours_bursar, :reminder_hours_academic, :updated_by, :updated_at)
ON CONFLICT (id)
DO UPDATE SET enable_alerts = EXCLUDED.enable_alerts, enable_reminders = EXCLUDED.enable_reminders,
              enable_reminder_library = EXCLUDED.enable_reminder_library, enable_reminder_bursar = EXCLUDED.enable_reminder_bursar,
              enable_reminder_academic = EXCLUDED.enable_reminder_academic, library_email = EXCLUDED.library_email,
              bursar_email = EXCLUDED.bursar_email, academic_email = EXCLUDED.academic_email,
              processor_email = EXCLUDED.processor_email, reminder_hours_library = EXCLUDED.reminder_hours_library,
              reminder_hours_bursar = EXCLUDED.reminder_hours_bursar, reminder_hours_academic = EXCLUDED.reminder_hours_academic,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert notification settings: %w", err)
	}
	return nil
}
