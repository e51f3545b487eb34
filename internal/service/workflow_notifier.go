package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/pkg/mailer"
)

// NotificationReason classifies a notification outcome.
type NotificationReason string

const (
	ReasonSent            NotificationReason = "SENT"
	ReasonDisabled        NotificationReason = "DISABLED"
	ReasonNoRecipient     NotificationReason = "NO_RECIPIENT"
	ReasonNotReady        NotificationReason = "NOT_READY"
	ReasonNoChange        NotificationReason = "NO_CHANGE"
	ReasonTransportFailed NotificationReason = "TRANSPORT_FAILED"
	ReasonInternal        NotificationReason = "INTERNAL"
)

// NotificationResult reports what a gating operation did. Operations never
// return errors; failures are described here.
type NotificationResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Reason  NotificationReason `json:"reason"`
}

func sent(message string) NotificationResult {
	return NotificationResult{Success: true, Message: message, Reason: ReasonSent}
}

func skipped(reason NotificationReason, format string, args ...interface{}) NotificationResult {
	return NotificationResult{Message: fmt.Sprintf(format, args...), Reason: reason}
}

type notificationJournal interface {
	Append(ctx context.Context, event *models.AuditEvent) error
	LatestEvent(ctx context.Context, requestID string, action models.AuditAction) (*models.AuditEvent, error)
	HasEvent(ctx context.Context, requestID string, action models.AuditAction) (bool, error)
	HasEventSince(ctx context.Context, requestID string, action models.AuditAction, since time.Time) (bool, error)
}

type settingsSource interface {
	Get(ctx context.Context) (*models.NotificationSettings, error)
}

type reminderCandidateFinder interface {
	FindMany(ctx context.Context, filter models.TranscriptRequestFilter) ([]models.TranscriptRequest, error)
}

// WorkflowNotifier decides which department must hear about a request and
// when, sends through the mail channel and journals every delivery.
type WorkflowNotifier struct {
	requests  reminderCandidateFinder
	journal   notificationJournal
	settings  settingsSource
	sender    mailer.Sender
	templates TemplateSet
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// WorkflowNotifierOption customises the notifier.
type WorkflowNotifierOption func(*WorkflowNotifier)

// WithNotifierClock overrides the time source used for reminder windows.
func WithNotifierClock(now func() time.Time) WorkflowNotifierOption {
	return func(n *WorkflowNotifier) {
		if now != nil {
			n.now = now
		}
	}
}

// WithNotifierTemplates overrides individual built-in templates.
func WithNotifierTemplates(templates TemplateSet) WorkflowNotifierOption {
	return func(n *WorkflowNotifier) {
		for kind, tpl := range templates {
			n.templates[kind] = tpl
		}
	}
}

// WithNotifierMetrics records notification outcomes.
func WithNotifierMetrics(metrics *MetricsService) WorkflowNotifierOption {
	return func(n *WorkflowNotifier) {
		n.metrics = metrics
	}
}

// NewWorkflowNotifier constructs the gating engine.
func NewWorkflowNotifier(requests reminderCandidateFinder, journal notificationJournal, settings settingsSource, sender mailer.Sender, logger *zap.Logger, opts ...WorkflowNotifierOption) *WorkflowNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &WorkflowNotifier{
		requests:  requests,
		journal:   journal,
		settings:  settings,
		sender:    sender,
		templates: DefaultTemplates(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// guard converts panics into an INTERNAL result and records the outcome.
func (n *WorkflowNotifier) guard(kind string, requestID string, fn func() NotificationResult) (result NotificationResult) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("notification panic recovered",
				zap.String("kind", kind),
				zap.String("request_id", requestID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			result = skipped(ReasonInternal, "internal error while processing %s notification", kind)
		}
		n.metrics.RecordNotification(kind, result.Reason)
		n.logOutcome(kind, requestID, result)
	}()
	return fn()
}

func (n *WorkflowNotifier) logOutcome(kind, requestID string, result NotificationResult) {
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("request_id", requestID),
		zap.String("reason", string(result.Reason)),
		zap.String("message", result.Message),
	}
	switch result.Reason {
	case ReasonSent:
		n.logger.Info("notification sent", fields...)
	case ReasonTransportFailed, ReasonInternal:
		n.logger.Warn("notification failed", fields...)
	case ReasonDisabled, ReasonNoRecipient:
		n.logger.Info("notification skipped", fields...)
	default:
		n.logger.Debug("notification skipped", fields...)
	}
}

func (n *WorkflowNotifier) loadSettings(ctx context.Context) (*models.NotificationSettings, error) {
	if n.settings == nil {
		return nil, errors.New("settings provider not configured")
	}
	settings, err := n.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}
	if settings == nil {
		return nil, errors.New("notification settings unavailable")
	}
	return settings, nil
}

// deliver renders and sends one message. It does not touch the journal.
func (n *WorkflowNotifier) deliver(ctx context.Context, kind NotificationKind, to string, req *models.TranscriptRequest, extras map[string]string, subjectPrefix string) NotificationResult {
	tpl, ok := n.templates[kind]
	if !ok {
		return skipped(ReasonInternal, "no template for %s", kind)
	}
	msg := tpl.Render(to, TemplateDataFromRequest(req), extras)
	msg.Subject = subjectPrefix + msg.Subject
	if n.sender == nil {
		return skipped(ReasonInternal, "notification channel not configured")
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrNoRecipient) {
			return skipped(ReasonNoRecipient, "no recipient for %s", kind)
		}
		return skipped(ReasonTransportFailed, "send %s to %s: %v", kind, to, err)
	}
	return sent(fmt.Sprintf("%s notification sent to %s", kind, to))
}

// record appends a journal entry. Failures are logged and swallowed.
func (n *WorkflowNotifier) record(ctx context.Context, requestID string, action models.AuditAction, details map[string]interface{}) {
	if n.journal == nil {
		return
	}
	event := &models.AuditEvent{RequestID: requestID, Action: action, Timestamp: n.now().UTC()}
	payload, err := marshalDetails(details)
	if err != nil {
		n.logger.Warn("marshal audit details failed", zap.String("action", string(action)), zap.Error(err))
	}
	event.Details = payload
	if err := n.journal.Append(ctx, event); err != nil {
		n.logger.Warn("append audit event failed",
			zap.String("request_id", requestID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// NotifyDepartmentQueue tells a department that a request waits in its queue.
// It makes exactly one send attempt and leaves journalling to the caller.
func (n *WorkflowNotifier) NotifyDepartmentQueue(ctx context.Context, req *models.TranscriptRequest, dept models.Department) NotificationResult {
	return n.guard(string(queueKind(dept)), requestIDOf(req), func() NotificationResult {
		if req == nil {
			return skipped(ReasonInternal, "request is nil")
		}
		settings, err := n.loadSettings(ctx)
		if err != nil {
			return skipped(ReasonInternal, "%v", err)
		}
		return n.sendQueue(ctx, settings, req, dept, "")
	})
}

func (n *WorkflowNotifier) sendQueue(ctx context.Context, settings *models.NotificationSettings, req *models.TranscriptRequest, dept models.Department, subjectPrefix string) NotificationResult {
	if !settings.EnableAlerts {
		return skipped(ReasonDisabled, "alerts disabled")
	}
	recipient := settings.RecipientFor(dept)
	if recipient == "" {
		return skipped(ReasonNoRecipient, "no %s queue address configured", dept)
	}
	extras := map[string]string{
		"LIBRARY_STATUS": string(req.Clearance(models.DepartmentLibrary).Verdict),
		"BURSAR_STATUS":  string(req.Clearance(models.DepartmentBursar).Verdict),
	}
	return n.deliver(ctx, queueKind(dept), recipient, req, extras, subjectPrefix)
}

// CheckAndNotifyAcademic opens the Academic queue once Library and Bursar
// have both decided. The ACADEMIC_QUEUE_NOTIFICATION_SENT entry makes it
// fire at most once per request.
func (n *WorkflowNotifier) CheckAndNotifyAcademic(ctx context.Context, req *models.TranscriptRequest) NotificationResult {
	return n.guard(string(KindAcademicQueue), requestIDOf(req), func() NotificationResult {
		if req == nil {
			return skipped(ReasonInternal, "request is nil")
		}
		library := req.Clearance(models.DepartmentLibrary)
		bursar := req.Clearance(models.DepartmentBursar)
		academic := req.Clearance(models.DepartmentAcademic)
		n.warnUnrecognized(req.ID, library, bursar, academic)

		if !library.Decided || !bursar.Decided {
			return skipped(ReasonNotReady, "waiting for library and bursar decisions")
		}
		if academic.Decided {
			return skipped(ReasonNotReady, "academic review already decided")
		}

		notified, err := n.journal.HasEvent(ctx, req.ID, models.AuditActionAcademicQueueNotificationSent)
		if err != nil {
			return skipped(ReasonInternal, "check academic notification history: %v", err)
		}
		if notified {
			return skipped(ReasonNotReady, "academic queue already notified")
		}

		settings, err := n.loadSettings(ctx)
		if err != nil {
			return skipped(ReasonInternal, "%v", err)
		}
		result := n.sendQueue(ctx, settings, req, models.DepartmentAcademic, "")
		if result.Success {
			n.record(ctx, req.ID, models.AuditActionAcademicQueueNotificationSent, map[string]interface{}{
				"libraryStatus": library.Verdict,
				"bursarStatus":  bursar.Verdict,
				"recipient":     settings.RecipientFor(models.DepartmentAcademic),
			})
		}
		return result
	})
}

// NotifyLibraryStatusChange tells the Bursar that the Library has decided.
// Only the first move away from the neutral status notifies.
func (n *WorkflowNotifier) NotifyLibraryStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult {
	return n.guard(string(KindLibraryStatusToBursar), requestIDOf(req), func() NotificationResult {
		if req == nil {
			return skipped(ReasonInternal, "request is nil")
		}
		before := models.ClearanceOf(models.DepartmentLibrary, oldStatus)
		after := models.ClearanceOf(models.DepartmentLibrary, newStatus)
		if before.Verdict == after.Verdict {
			return skipped(ReasonNoChange, "library status unchanged")
		}
		if before.Decided || !after.Decided {
			return skipped(ReasonNoChange, "library status %s -> %s is not a first decision", before.Verdict, after.Verdict)
		}
		return n.notifyStatus(ctx, req, statusNotification{
			kind:      KindLibraryStatusToBursar,
			action:    models.AuditActionLibraryStatusNotificationSent,
			recipient: func(s *models.NotificationSettings) string { return s.RecipientFor(models.DepartmentBursar) },
			from:      string(before.Verdict),
			to:        string(after.Verdict),
		})
	})
}

// NotifyBursarStatusChange tells the student about a Bursar status change.
func (n *WorkflowNotifier) NotifyBursarStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult {
	return n.guard(string(KindBursarStatusToStudent), requestIDOf(req), func() NotificationResult {
		if req == nil {
			return skipped(ReasonInternal, "request is nil")
		}
		before := models.ClearanceOf(models.DepartmentBursar, oldStatus)
		after := models.ClearanceOf(models.DepartmentBursar, newStatus)
		if before.Verdict == after.Verdict {
			return skipped(ReasonNoChange, "bursar status unchanged")
		}
		return n.notifyStatus(ctx, req, statusNotification{
			kind:      KindBursarStatusToStudent,
			action:    models.AuditActionBursarStatusNotificationSent,
			recipient: func(*models.NotificationSettings) string { return req.StudentEmail },
			from:      string(before.Verdict),
			to:        string(after.Verdict),
		})
	})
}

// NotifyProcessorLibraryStatusChange tells the processor office about a
// Library status change.
func (n *WorkflowNotifier) NotifyProcessorLibraryStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult {
	return n.processorDepartmentChange(ctx, req, models.DepartmentLibrary, KindProcessorLibraryStatus,
		models.AuditActionProcessorLibraryStatusNotificationSent, oldStatus, newStatus)
}

// NotifyProcessorAcademicStatusChange tells the processor office about an
// Academic status change.
func (n *WorkflowNotifier) NotifyProcessorAcademicStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.DepartmentStatus) NotificationResult {
	return n.processorDepartmentChange(ctx, req, models.DepartmentAcademic, KindProcessorAcademicStatus,
		models.AuditActionProcessorAcademicStatusNotificationSent, oldStatus, newStatus)
}

func (n *WorkflowNotifier) processorDepartmentChange(ctx context.Context, req *models.TranscriptRequest, dept models.Department, kind NotificationKind, action models.AuditAction, oldStatus, newStatus models.DepartmentStatus) NotificationResult {
	return n.guard(string(kind), requestIDOf(req), func() NotificationResult {
		if req == nil {
			return skipped(ReasonInternal, "request is nil")
		}
		before := models.ClearanceOf(dept, oldStatus)
		after := models.ClearanceOf(dept, newStatus)
		if before.Verdict == after.Verdict {
			return skipped(ReasonNoChange, "%s status unchanged", dept)
		}
		return n.notifyStatus(ctx, req, statusNotification{
			kind:      kind,
			action:    action,
			recipient: func(s *models.NotificationSettings) string { return s.ProcessorEmail },
			from:      string(before.Verdict),
			to:        string(after.Verdict),
		})
	})
}

// NotifyProcessorRequestStatusChange tells the processor office about an
// overall status change.
func (n *WorkflowNotifier) NotifyProcessorRequestStatusChange(ctx context.Context, req *models.TranscriptRequest, oldStatus, newStatus models.RequestStatus) NotificationResult {
	return n.guard(string(KindProcessorRequestStatus), requestIDOf(req), func() NotificationResult {
		if req == nil {
			return skipped(ReasonInternal, "request is nil")
		}
		from := models.NormalizeRequestStatus(string(oldStatus))
		to := models.NormalizeRequestStatus(string(newStatus))
		if from == to {
			return skipped(ReasonNoChange, "request status unchanged")
		}
		return n.notifyStatus(ctx, req, statusNotification{
			kind:      KindProcessorRequestStatus,
			action:    models.AuditActionProcessorRequestStatusNotificationSent,
			recipient: func(s *models.NotificationSettings) string { return s.ProcessorEmail },
			from:      string(from),
			to:        string(to),
		})
	})
}

type statusNotification struct {
	kind      NotificationKind
	action    models.AuditAction
	recipient func(*models.NotificationSettings) string
	from      string
	to        string
}

func (n *WorkflowNotifier) notifyStatus(ctx context.Context, req *models.TranscriptRequest, note statusNotification) NotificationResult {
	settings, err := n.loadSettings(ctx)
	if err != nil {
		return skipped(ReasonInternal, "%v", err)
	}
	if !settings.EnableAlerts {
		return skipped(ReasonDisabled, "alerts disabled")
	}
	recipient := note.recipient(settings)
	if recipient == "" {
		return skipped(ReasonNoRecipient, "no recipient for %s", note.kind)
	}
	result := n.deliver(ctx, note.kind, recipient, req, map[string]string{
		"OLD_STATUS": note.from,
		"NEW_STATUS": note.to,
	}, "")
	if result.Success {
		n.record(ctx, req.ID, note.action, map[string]interface{}{
			"from":      note.from,
			"to":        note.to,
			"recipient": recipient,
		})
	}
	return result
}

func (n *WorkflowNotifier) warnUnrecognized(requestID string, clearances ...models.Clearance) {
	for _, c := range clearances {
		if c.Decided && !c.Recognized {
			n.logger.Warn("unrecognized department status treated as decided",
				zap.String("request_id", requestID),
				zap.String("department", string(c.Department)),
				zap.String("status", string(c.Verdict)),
			)
		}
	}
}

func marshalDetails(details map[string]interface{}) (json.RawMessage, error) {
	if len(details) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func requestIDOf(req *models.TranscriptRequest) string {
	if req == nil {
		return ""
	}
	return req.ID
}
