package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

const auditEventColumns = `id, request_id, action, COALESCE(details, '{}'::jsonb) AS details, timestamp`

var emptyDetails = json.RawMessage(`{}`)

// auditEventRow scans details through a plain byte slice so rows written
// before details became mandatory still load.
type auditEventRow struct {
	ID        string             `db:"id"`
	RequestID string             `db:"request_id"`
	Action    models.AuditAction `db:"action"`
	Details   []byte             `db:"details"`
	Timestamp time.Time          `db:"timestamp"`
}

func (row auditEventRow) event() models.AuditEvent {
	details := json.RawMessage(row.Details)
	if len(details) == 0 {
		details = emptyDetails
	}
	return models.AuditEvent{
		ID:        row.ID,
		RequestID: row.RequestID,
		Action:    row.Action,
		Details:   details,
		Timestamp: row.Timestamp,
	}
}

// AuditEventRepository is the append-only journal used for history and
// notification dedup.
type AuditEventRepository struct {
	db *sqlx.DB
}

// NewAuditEventRepository constructs the repository.
func NewAuditEventRepository(db *sqlx.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

// Append writes a new journal entry.
func (r *AuditEventRepository) Append(ctx context.Context, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if len(event.Details) == 0 {
		event.Details = emptyDetails
	}
	const query = `INSERT INTO audit_events (id, request_id, action, details, timestamp)
VALUES (:id, :request_id, :action, :details, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// LatestEvent returns the most recent entry for the request and action, or
// nil when none exists.
func (r *AuditEventRepository) LatestEvent(ctx context.Context, requestID string, action models.AuditAction) (*models.AuditEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_events
WHERE request_id = $1 AND action = $2 ORDER BY timestamp DESC LIMIT 1`, auditEventColumns)
	var row auditEventRow
	if err := r.db.GetContext(ctx, &row, query, requestID, action); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest audit event: %w", err)
	}
	event := row.event()
	return &event, nil
}

// HasEvent reports whether any entry exists for the request and action.
func (r *AuditEventRepository) HasEvent(ctx context.Context, requestID string, action models.AuditAction) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM audit_events WHERE request_id = $1 AND action = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, requestID, action); err != nil {
		return false, fmt.Errorf("check audit event: %w", err)
	}
	return exists, nil
}

// HasEventSince reports whether an entry exists at or after since.
func (r *AuditEventRepository) HasEventSince(ctx context.Context, requestID string, action models.AuditAction, since time.Time) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM audit_events WHERE request_id = $1 AND action = $2 AND timestamp >= $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, requestID, action, since); err != nil {
		return false, fmt.Errorf("check audit event window: %w", err)
	}
	return exists, nil
}

// ListByRequest returns the journal of a request, oldest first.
func (r *AuditEventRepository) ListByRequest(ctx context.Context, requestID string) ([]models.AuditEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_events
WHERE request_id = $1 ORDER BY timestamp ASC`, auditEventColumns)
	var rows []auditEventRow
	if err := r.db.SelectContext(ctx, &rows, query, requestID); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	events := make([]models.AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.event())
	}
	return events, nil
}
