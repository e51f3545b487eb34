package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

func TestNotificationSettingsRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_settings WHERE id = $1")).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestNotificationSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationSettingsRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "enable_alerts", "enable_reminders", "enable_reminder_library", "enable_reminder_bursar", "enable_reminder_academic",
		"library_email", "bursar_email", "academic_email", "processor_email",
		"reminder_hours_library", "reminder_hours_bursar", "reminder_hours_academic", "updated_by", "updated_at",
	}).AddRow(1, true, true, true, false, true, "lib@x.edu", "bur@x.edu", "aca@x.edu", "taps@x.edu", 24, 48, 72, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_settings WHERE id = $1")).WithArgs(1).WillReturnRows(rows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.False(t, settings.EnableReminderBursar)
	assert.Equal(t, 72, settings.ReminderHoursAcademic)
}

func TestNotificationSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationSettingsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_settings")).
		WithArgs(1, true, false, true, true, true, "lib@x.edu", "", "", "", 48, 48, 48, strPtr("admin-1"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	settings := &models.NotificationSettings{
		EnableAlerts:           true,
		EnableReminderLibrary:  true,
		EnableReminderBursar:   true,
		EnableReminderAcademic: true,
		LibraryEmail:           "lib@x.edu",
		ReminderHoursLibrary:   48,
		ReminderHoursBursar:    48,
		ReminderHoursAcademic:  48,
		UpdatedBy:              strPtr("admin-1"),
	}
	require.NoError(t, repo.Upsert(context.Background(), settings))
	assert.Equal(t, 1, settings.ID)
}
