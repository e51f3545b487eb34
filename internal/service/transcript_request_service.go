package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/dto"
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
)

type transcriptRequestStore interface {
	Create(ctx context.Context, req *models.TranscriptRequest) error
	GetByID(ctx context.Context, id string) (*models.TranscriptRequest, error)
	List(ctx context.Context, filter models.TranscriptRequestFilter) ([]models.TranscriptRequest, int, error)
	UpdateDepartment(ctx context.Context, id string, dept models.Department, update models.DepartmentUpdate) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, comments *string) error
}

type auditTrail interface {
	Append(ctx context.Context, event *models.AuditEvent) error
	ListByRequest(ctx context.Context, requestID string) ([]models.AuditEvent, error)
}

type workflowNotifications interface {
	NotifyDepartmentQueue(ctx context.Context, req *models.TranscriptRequest, dept models.Department) NotificationResult
	CheckAndNotifyAcademic(ctx context.Context, req *models.TranscriptRequest) NotificationResult
	NotifyLibraryStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult
	NotifyBursarStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult
	NotifyProcessorLibraryStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult
	NotifyProcessorAcademicStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult
	NotifyProcessorRequestStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.RequestStatus) NotificationResult
}

type notificationDispatch interface {
	Dispatch(ctx context.Context, name, requestID string, task NotificationTask)
}

// DepartmentDecision is the outcome of recording a department verdict.
type DepartmentDecision struct {
	Request      *models.TranscriptRequest `json:"request"`
	AcademicGate *NotificationResult       `json:"academicGate,omitempty"`
}

// TranscriptRequestService coordinates request submission and review.
// Notification outcomes never roll back the state change that caused them.
type TranscriptRequestService struct {
	store      transcriptRequestStore
	audit      auditTrail
	notifier   workflowNotifications
	dispatcher notificationDispatch
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTranscriptRequestService constructs the service.
func NewTranscriptRequestService(store transcriptRequestStore, audit auditTrail, notifier workflowNotifications, dispatcher notificationDispatch, validate *validator.Validate, logger *zap.Logger) *TranscriptRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptRequestService{
		store:      store,
		audit:      audit,
		notifier:   notifier,
		dispatcher: dispatcher,
		validator:  validate,
		logger:     logger,
	}
}

// Create submits a new request and notifies the Library and Bursar queues.
func (s *TranscriptRequestService) Create(ctx context.Context, claims *models.JWTClaims, payload dto.CreateTranscriptRequest) (*models.TranscriptRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transcript request payload")
	}

	req := &models.TranscriptRequest{Program: strings.TrimSpace(payload.Program)}
	switch claims.Role {
	case models.RoleStudent:
		req.StudentID = firstNonEmpty(claims.StudentID, claims.UserID)
		req.StudentEmail = claims.Email
		req.Requestor = claims.FullName
	case models.RoleAdmin:
		req.StudentID = strings.TrimSpace(payload.StudentID)
		req.StudentEmail = strings.TrimSpace(payload.StudentEmail)
		req.Requestor = strings.TrimSpace(payload.Requestor)
		if req.StudentID == "" || req.StudentEmail == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and studentEmail are required")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students or administrators can submit requests")
	}
	if code := strings.TrimSpace(payload.RequestID); code != "" {
		req.RequestID = &code
	}

	if err := s.store.Create(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transcript request")
	}

	snapshot := *req
	for _, dept := range []models.Department{models.DepartmentLibrary, models.DepartmentBursar} {
		dept := dept
		s.dispatch(ctx, "queue_"+strings.ToLower(string(dept)), &snapshot, func(ctx context.Context) NotificationResult {
			result := s.notifier.NotifyDepartmentQueue(ctx, &snapshot, dept)
			if result.Success {
				s.journal(ctx, snapshot.ID, models.QueueNotificationAction(dept), map[string]interface{}{"trigger": "submission"})
			}
			return result
		})
	}

	return req, nil
}

// Get returns a request visible to the caller.
func (s *TranscriptRequestService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.TranscriptRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !claims.Role.IsStaff() && req.StudentID != firstNonEmpty(claims.StudentID, claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript request not found")
	}
	return req, nil
}

// List returns a page of requests.
func (s *TranscriptRequestService) List(ctx context.Context, query dto.TranscriptRequestQuery) ([]models.TranscriptRequest, *models.Pagination, error) {
	filter, err := filterFromQuery(query)
	if err != nil {
		return nil, nil, err
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	filter.Limit = size
	filter.Offset = (page - 1) * size

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transcript requests")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateDepartmentStatus records a department verdict, dispatches the status
// change notifications and evaluates the Academic gate.
func (s *TranscriptRequestService) UpdateDepartmentStatus(ctx context.Context, claims *models.JWTClaims, id, department string, payload dto.UpdateDepartmentStatusRequest) (*DepartmentDecision, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department decision payload")
	}
	dept, ok := models.ParseDepartment(department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown department %q", department))
	}
	if !claims.Role.CanReview(dept) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot review for %s", claims.Role, dept))
	}
	status := models.NormalizeDepartmentStatus(payload.Status)
	if !models.ValidDepartmentStatus(dept, status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("%s must be one of %s", dept, joinStatuses(models.AllowedStatuses(dept))))
	}

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if closedRequest(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request is %s", req.Status))
	}

	oldStatus := req.StatusOf(dept)
	update := models.DepartmentUpdate{Status: status, DueAmount: payload.DueAmount, DueDetails: payload.DueDetails, Comments: payload.Comments}
	if err := s.store.UpdateDepartment(ctx, req.ID, dept, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record department decision")
	}
	applyDepartmentUpdate(req, dept, update)

	oldRequestStatus := req.Status
	if req.Status == models.RequestStatusSubmitted {
		if err := s.store.UpdateStatus(ctx, req.ID, models.RequestStatusInReview, nil); err != nil {
			s.logger.Warn("advance request to in review failed", zap.String("request_id", req.ID), zap.Error(err))
		} else {
			req.Status = models.RequestStatusInReview
		}
	}

	// Decisions from other departments may have committed since the read, so
	// the gate and notifications work from the stored row.
	if committed, err := s.store.GetByID(ctx, req.ID); err == nil {
		req = committed
	} else {
		s.logger.Warn("reload transcript request failed, using local copy", zap.String("request_id", req.ID), zap.Error(err))
	}

	snapshot := *req
	s.dispatchDepartmentChange(ctx, &snapshot, dept, oldStatus, status)
	if oldRequestStatus != snapshot.Status {
		s.dispatch(ctx, "processor_request_status", &snapshot, func(ctx context.Context) NotificationResult {
			return s.notifier.NotifyProcessorRequestStatusChange(ctx, &snapshot, oldRequestStatus, snapshot.Status)
		})
	}

	decision := &DepartmentDecision{Request: req}
	if dept != models.DepartmentAcademic {
		gate := s.notifier.CheckAndNotifyAcademic(ctx, &snapshot)
		decision.AcademicGate = &gate
	}
	return decision, nil
}

func (s *TranscriptRequestService) dispatchDepartmentChange(ctx context.Context, snapshot *models.TranscriptRequest, dept models.Department, oldStatus, newStatus models.DepartmentStatus) {
	switch dept {
	case models.DepartmentLibrary:
		s.dispatch(ctx, "library_status", snapshot, func(ctx context.Context) NotificationResult {
			return s.notifier.NotifyLibraryStatusChange(ctx, snapshot, oldStatus, newStatus)
		})
		s.dispatch(ctx, "processor_library_status", snapshot, func(ctx context.Context) NotificationResult {
			return s.notifier.NotifyProcessorLibraryStatusChange(ctx, snapshot, oldStatus, newStatus)
		})
	case models.DepartmentBursar:
		s.dispatch(ctx, "bursar_status", snapshot, func(ctx context.Context) NotificationResult {
			return s.notifier.NotifyBursarStatusChange(ctx, snapshot, oldStatus, newStatus)
		})
	case models.DepartmentAcademic:
		s.dispatch(ctx, "processor_academic_status", snapshot, func(ctx context.Context) NotificationResult {
			return s.notifier.NotifyProcessorAcademicStatusChange(ctx, snapshot, oldStatus, newStatus)
		})
	}
}

// UpdateStatus moves the request through its lifecycle. Completion requires
// every department to have cleared the request.
func (s *TranscriptRequestService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, payload dto.UpdateRequestStatusRequest) (*models.TranscriptRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleProcessor && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the processing office can change request status")
	}
	payload.Status = string(models.NormalizeRequestStatus(payload.Status))
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request status payload")
	}
	status := models.RequestStatus(payload.Status)

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := req.Status
	if oldStatus == status && payload.Comments == nil {
		return req, nil
	}
	if closedRequest(oldStatus) && oldStatus != status {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request is %s", oldStatus))
	}
	if status == models.RequestStatusCompleted && !req.FullyCleared() {
		return nil, appErrors.ErrClearanceIncomplete
	}

	if err := s.store.UpdateStatus(ctx, req.ID, status, payload.Comments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}
	req.Status = status
	if payload.Comments != nil {
		req.ProcessorComments = payload.Comments
	}

	if oldStatus != status {
		snapshot := *req
		s.dispatch(ctx, "processor_request_status", &snapshot, func(ctx context.Context) NotificationResult {
			return s.notifier.NotifyProcessorRequestStatusChange(ctx, &snapshot, oldStatus, status)
		})
	}
	return req, nil
}

// ListAudit returns the journal of a request.
func (s *TranscriptRequestService) ListAudit(ctx context.Context, id string) ([]models.AuditEvent, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.audit.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return events, nil
}

func (s *TranscriptRequestService) load(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript request")
	}
	return req, nil
}

func (s *TranscriptRequestService) dispatch(ctx context.Context, name string, req *models.TranscriptRequest, task NotificationTask) {
	if s.dispatcher == nil {
		task(ctx)
		return
	}
	s.dispatcher.Dispatch(ctx, name, req.ID, task)
}

func (s *TranscriptRequestService) journal(ctx context.Context, requestID string, action models.AuditAction, details map[string]interface{}) {
	event := &models.AuditEvent{RequestID: requestID, Action: action}
	if payload, err := marshalDetails(details); err == nil {
		event.Details = payload
	}
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.Warn("append audit event failed",
			zap.String("request_id", requestID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func filterFromQuery(query dto.TranscriptRequestQuery) (models.TranscriptRequestFilter, error) {
	filter := models.TranscriptRequestFilter{
		StudentID: strings.TrimSpace(query.StudentID),
		Program:   strings.TrimSpace(query.Program),
		Search:    strings.TrimSpace(query.Search),
	}
	for _, raw := range splitValues(query.Status) {
		status := models.NormalizeRequestStatus(raw)
		if !models.ValidRequestStatus(status) {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", raw))
		}
		filter.Status = append(filter.Status, status)
	}
	for _, raw := range splitValues(query.Pending) {
		dept, ok := models.ParseDepartment(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown department %q", raw))
		}
		filter.Pending = append(filter.Pending, dept)
	}
	return filter, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func applyDepartmentUpdate(req *models.TranscriptRequest, dept models.Department, update models.DepartmentUpdate) {
	switch dept {
	case models.DepartmentLibrary:
		req.LibraryStatus = update.Status
		req.LibraryDueAmount = update.DueAmount
		req.LibraryDueDetails = update.DueDetails
		req.LibraryComments = update.Comments
	case models.DepartmentBursar:
		req.BursarStatus = update.Status
		req.BursarDueAmount = update.DueAmount
		req.BursarDueDetails = update.DueDetails
		req.BursarComments = update.Comments
	case models.DepartmentAcademic:
		req.AcademicStatus = update.Status
		req.AcademicComments = update.Comments
	}
}

func closedRequest(status models.RequestStatus) bool {
	return status == models.RequestStatusCompleted || status == models.RequestStatusCancelled
}

func joinStatuses(statuses []models.DepartmentStatus) string {
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
