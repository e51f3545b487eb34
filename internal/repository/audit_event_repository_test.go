package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

func TestAuditEventRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)

	details := json.RawMessage(`{"recipient":"lib@example.edu"}`)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs(sqlmock.AnyArg(), "req-1", models.AuditActionLibraryQueueNotificationSent, []byte(details), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.AuditEvent{RequestID: "req-1", Action: models.AuditActionLibraryQueueNotificationSent, Details: details}
	require.NoError(t, repo.Append(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestAuditEventRepositoryLatestEventNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC LIMIT 1")).
		WithArgs("req-1", models.AuditActionAcademicReminderSent).
		WillReturnError(sql.ErrNoRows)

	event, err := repo.LatestEvent(context.Background(), "req-1", models.AuditActionAcademicReminderSent)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestAuditEventRepositoryLatestEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC LIMIT 1")).
		WithArgs("req-1", models.AuditActionAcademicQueueNotificationSent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "action", "details", "timestamp"}).
			AddRow("evt-1", "req-1", "ACADEMIC_QUEUE_NOTIFICATION_SENT", []byte(`{}`), ts))

	event, err := repo.LatestEvent(context.Background(), "req-1", models.AuditActionAcademicQueueNotificationSent)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, ts, event.Timestamp)
}

func TestAuditEventRepositoryHasEventSince(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)
	since := time.Now().UTC().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("AND timestamp >= $3")).
		WithArgs("req-1", models.AuditActionLibraryReminderSent, since).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM audit_events WHERE request_id = $1 AND action = $2)")).
		WithArgs("req-1", models.AuditActionAcademicQueueNotificationSent).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ctx := context.Background()
	recent, err := repo.HasEventSince(ctx, "req-1", models.AuditActionLibraryReminderSent, since)
	require.NoError(t, err)
	assert.True(t, recent)

	exists, err := repo.HasEvent(ctx, "req-1", models.AuditActionAcademicQueueNotificationSent)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuditEventRepositoryListByRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp ASC")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "action", "details", "timestamp"}).
			AddRow("evt-1", "req-1", "LIBRARY_QUEUE_NOTIFICATION_SENT", nil, now).
			AddRow("evt-2", "req-1", "BURSAR_QUEUE_NOTIFICATION_SENT", nil, now))

	events, err := repo.ListByRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.JSONEq(t, `{}`, string(events[0].Details))
	assert.Equal(t, models.AuditActionBursarQueueNotificationSent, events[1].Action)
}

func TestAuditEventRepositoryLatestEventNullDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(details, '{}'::jsonb) AS details")).
		WithArgs("req-1", models.AuditActionAcademicQueueNotificationSent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "action", "details", "timestamp"}).
			AddRow("evt-1", "req-1", "ACADEMIC_QUEUE_NOTIFICATION_SENT", nil, ts))

	event, err := repo.LatestEvent(context.Background(), "req-1", models.AuditActionAcademicQueueNotificationSent)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, ts, event.Timestamp)
	assert.JSONEq(t, `{}`, string(event.Details))
}

func TestAuditEventRepositoryAppendDefaultsDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs(sqlmock.AnyArg(), "req-1", models.AuditActionRequestStatusChanged, []byte(`{}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Append(context.Background(), &models.AuditEvent{RequestID: "req-1", Action: models.AuditActionRequestStatusChanged}))
}
