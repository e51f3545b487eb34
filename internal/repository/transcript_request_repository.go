package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

const transcriptRequestColumns = `id, request_id, student_id, student_email, requestor, program, status,
library_status, library_due_amount, library_due_details, library_comments,
bursar_status, bursar_due_amount, bursar_due_details, bursar_comments,
academic_status, academic_comments, processor_comments, created, updated_at`

var departmentColumns = map[models.Department]string{
	models.DepartmentLibrary:  "library",
	models.DepartmentBursar:   "bursar",
	models.DepartmentAcademic: "academic",
}

// TranscriptRequestRepository persists transcript requests.
type TranscriptRequestRepository struct {
	db *sqlx.DB
}

// NewTranscriptRequestRepository constructs the repository.
func NewTranscriptRequestRepository(db *sqlx.DB) *TranscriptRequestRepository {
	return &TranscriptRequestRepository{db: db}
}

// Create inserts a new request with every department in its neutral state.
func (r *TranscriptRequestRepository) Create(ctx context.Context, req *models.TranscriptRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.Created.IsZero() {
		req.Created = now
	}
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = models.RequestStatusSubmitted
	}
	for _, dept := range models.Departments {
		if req.StatusOf(dept) == "" {
			setStatus(req, dept, models.NeutralStatus(dept))
		}
	}

	const query = `INSERT INTO transcript_requests (id, request_id, student_id, student_email, requestor, program, status,
library_status, bursar_status, academic_status, created, updated_at)
VALUES (:id, :request_id, :student_id, :student_email, :requestor, :program, :status,
:library_status, :bursar_status, :academic_status, :created, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create transcript request: %w", err)
	}
	return nil
}

// GetByID fetches a single request. sql.ErrNoRows is returned unwrapped.
func (r *TranscriptRequestRepository) GetByID(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM transcript_requests WHERE id = $1", transcriptRequestColumns)
	var req models.TranscriptRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns a page of requests, newest first, with the total match count.
func (r *TranscriptRequestRepository) List(ctx context.Context, filter models.TranscriptRequestFilter) ([]models.TranscriptRequest, int, error) {
	where, args := buildTranscriptRequestWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM transcript_requests %s ORDER BY created DESC LIMIT %d OFFSET %d",
		transcriptRequestColumns, where, limit, offset)
	var requests []models.TranscriptRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transcript requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM transcript_requests "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count transcript requests: %w", err)
	}
	return requests, total, nil
}

// FindMany returns every matching request, oldest first. Limit applies only
// when positive.
func (r *TranscriptRequestRepository) FindMany(ctx context.Context, filter models.TranscriptRequestFilter) ([]models.TranscriptRequest, error) {
	where, args := buildTranscriptRequestWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM transcript_requests %s ORDER BY created ASC", transcriptRequestColumns, where)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	var requests []models.TranscriptRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("find transcript requests: %w", err)
	}
	return requests, nil
}

// UpdateDepartment records a department decision.
func (r *TranscriptRequestRepository) UpdateDepartment(ctx context.Context, id string, dept models.Department, update models.DepartmentUpdate) error {
	prefix, ok := departmentColumns[dept]
	if !ok {
		return fmt.Errorf("unknown department %q", dept)
	}

	sets := []string{
		fmt.Sprintf("%s_status = $1", prefix),
		fmt.Sprintf("%s_comments = $2", prefix),
		"updated_at = $3",
	}
	args := []interface{}{update.Status, update.Comments, time.Now().UTC()}
	if dept != models.DepartmentAcademic {
		sets = append(sets,
			fmt.Sprintf("%s_due_amount = $%d", prefix, len(args)+1),
			fmt.Sprintf("%s_due_details = $%d", prefix, len(args)+2),
		)
		args = append(args, update.DueAmount, update.DueDetails)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE transcript_requests SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s status: %w", prefix, err)
	}
	return nil
}

// UpdateStatus records the overall request status and processor comments.
func (r *TranscriptRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, comments *string) error {
	const query = `UPDATE transcript_requests SET status = $1, processor_comments = COALESCE($2, processor_comments), updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, comments, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

func buildTranscriptRequestWhere(filter models.TranscriptRequestFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if len(filter.Status) > 0 {
		start := len(args) + 1
		for _, status := range filter.Status {
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", placeholderRange(start, len(filter.Status))))
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	for _, dept := range filter.Pending {
		prefix, ok := departmentColumns[dept]
		if !ok {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("COALESCE(UPPER(TRIM(%s_status)), '') IN ('', $%d)", prefix, len(args)+1))
		args = append(args, models.NeutralStatus(dept))
	}
	for _, dept := range filter.Decided {
		prefix, ok := departmentColumns[dept]
		if !ok {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("COALESCE(UPPER(TRIM(%s_status)), '') NOT IN ('', $%d)", prefix, len(args)+1))
		args = append(args, models.NeutralStatus(dept))
	}
	if filter.CreatedUntil != nil {
		conditions = append(conditions, fmt.Sprintf("created <= $%d", len(args)+1))
		args = append(args, *filter.CreatedUntil)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(student_id) LIKE $%d OR LOWER(requestor) LIKE $%d OR LOWER(COALESCE(request_id, '')) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func placeholderRange(start, n int) string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(values, ",")
}

func setStatus(req *models.TranscriptRequest, dept models.Department, status models.DepartmentStatus) {
	switch dept {
	case models.DepartmentLibrary:
		req.LibraryStatus = status
	case models.DepartmentBursar:
		req.BursarStatus = status
	case models.DepartmentAcademic:
		req.AcademicStatus = status
	}
}
