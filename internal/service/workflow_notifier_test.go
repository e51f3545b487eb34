package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/pkg/mailer"
)

type senderStub struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
	panicMsg string
}

func (s *senderStub) Send(ctx context.Context, msg mailer.Message) error {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *senderStub) sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.messages...)
}

type journalStub struct {
	mu        sync.Mutex
	events    []models.AuditEvent
	readErr   error
	appendErr error
}

func (j *journalStub) Append(ctx context.Context, event *models.AuditEvent) error {
	if j.appendErr != nil {
		return j.appendErr
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, *event)
	return nil
}

func (j *journalStub) LatestEvent(ctx context.Context, requestID string, action models.AuditAction) (*models.AuditEvent, error) {
	if j.readErr != nil {
		return nil, j.readErr
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	var latest *models.AuditEvent
	for i := range j.events {
		e := j.events[i]
		if e.RequestID == requestID && e.Action == action && (latest == nil || e.Timestamp.After(latest.Timestamp)) {
			latest = &e
		}
	}
	return latest, nil
}

func (j *journalStub) HasEvent(ctx context.Context, requestID string, action models.AuditAction) (bool, error) {
	return j.HasEventSince(ctx, requestID, action, time.Time{})
}

func (j *journalStub) HasEventSince(ctx context.Context, requestID string, action models.AuditAction, since time.Time) (bool, error) {
	if j.readErr != nil {
		return false, j.readErr
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range j.events {
		if e.RequestID == requestID && e.Action == action && !e.Timestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (j *journalStub) count(action models.AuditAction) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	total := 0
	for _, e := range j.events {
		if e.Action == action {
			total++
		}
	}
	return total
}

type settingsStub struct {
	settings *models.NotificationSettings
	err      error
}

func (s *settingsStub) Get(ctx context.Context) (*models.NotificationSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.settings
	return &copied, nil
}

type requestFinderStub struct {
	requests []models.TranscriptRequest
	filters  []models.TranscriptRequestFilter
	err      error
}

func (f *requestFinderStub) FindMany(ctx context.Context, filter models.TranscriptRequestFilter) ([]models.TranscriptRequest, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TranscriptRequest
	for _, req := range f.requests {
		if matchesFilter(req, filter) {
			out = append(out, req)
		}
	}
	return out, nil
}

func matchesFilter(req models.TranscriptRequest, filter models.TranscriptRequestFilter) bool {
	for _, dept := range filter.Pending {
		if !req.Clearance(dept).Pending() {
			return false
		}
	}
	for _, dept := range filter.Decided {
		if !req.Clearance(dept).Decided {
			return false
		}
	}
	if filter.CreatedUntil != nil && req.Created.After(*filter.CreatedUntil) {
		return false
	}
	return true
}

func enabledSettings() *models.NotificationSettings {
	return &models.NotificationSettings{
		EnableAlerts:           true,
		EnableReminders:        true,
		EnableReminderLibrary:  true,
		EnableReminderBursar:   true,
		EnableReminderAcademic: true,
		LibraryEmail:           "library@uni.edu",
		BursarEmail:            "bursar@uni.edu",
		AcademicEmail:          "academic@uni.edu",
		ProcessorEmail:         "taps@uni.edu",
		ReminderHoursLibrary:   48,
		ReminderHoursBursar:    48,
		ReminderHoursAcademic:  48,
	}
}

func newRequest(id string, library, bursar, academic models.DepartmentStatus) *models.TranscriptRequest {
	return &models.TranscriptRequest{
		ID:             id,
		StudentID:      "S-100",
		StudentEmail:   "ada@student.uni.edu",
		Requestor:      "Ada Lovelace",
		Program:        "BSc Mathematics",
		Status:         models.RequestStatusInReview,
		LibraryStatus:  library,
		BursarStatus:   bursar,
		AcademicStatus: academic,
	}
}

type notifierFixture struct {
	notifier *WorkflowNotifier
	sender   *senderStub
	journal  *journalStub
	settings *settingsStub
	finder   *requestFinderStub
	now      time.Time
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()
	f := &notifierFixture{
		sender:   &senderStub{},
		journal:  &journalStub{},
		settings: &settingsStub{settings: enabledSettings()},
		finder:   &requestFinderStub{},
		now:      time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
	}
	f.notifier = NewWorkflowNotifier(f.finder, f.journal, f.settings, f.sender, nil,
		WithNotifierClock(func() time.Time { return f.now }))
	return f
}

const (
	pending  = models.DepartmentStatusPending
	approved = models.DepartmentStatusApproved
	hold     = models.DepartmentStatusHold
)

func TestNotifyDepartmentQueueSendsWithoutJournal(t *testing.T) {
	f := newNotifierFixture(t)
	req := newRequest("req-1", pending, pending, pending)

	result := f.notifier.NotifyDepartmentQueue(context.Background(), req, models.DepartmentLibrary)

	assert.True(t, result.Success)
	assert.Equal(t, ReasonSent, result.Reason)
	msgs := f.sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "library@uni.edu", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "REQ1")
	assert.Contains(t, msgs[0].Text, "Ada Lovelace (S-100)")
	assert.Empty(t, f.journal.events)
}

func TestNotifyDepartmentQueueGuards(t *testing.T) {
	f := newNotifierFixture(t)
	req := newRequest("req-1", pending, pending, pending)

	f.settings.settings.BursarEmail = ""
	result := f.notifier.NotifyDepartmentQueue(context.Background(), req, models.DepartmentBursar)
	assert.Equal(t, ReasonNoRecipient, result.Reason)

	f.settings.settings.EnableAlerts = false
	result = f.notifier.NotifyDepartmentQueue(context.Background(), req, models.DepartmentLibrary)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonDisabled, result.Reason)
	assert.Empty(t, f.sender.sent())
}

func TestNotifyDepartmentQueueTransportFailure(t *testing.T) {
	f := newNotifierFixture(t)
	f.sender.err = errors.New("smtp down")

	result := f.notifier.NotifyDepartmentQueue(context.Background(), newRequest("req-1", pending, pending, pending), models.DepartmentLibrary)

	assert.False(t, result.Success)
	assert.Equal(t, ReasonTransportFailed, result.Reason)
	assert.Contains(t, result.Message, "smtp down")
}

func TestGuardRecoversPanics(t *testing.T) {
	f := newNotifierFixture(t)
	f.sender.panicMsg = "boom"

	result := f.notifier.NotifyDepartmentQueue(context.Background(), newRequest("req-1", pending, pending, pending), models.DepartmentLibrary)

	assert.False(t, result.Success)
	assert.Equal(t, ReasonInternal, result.Reason)
}

func TestCheckAndNotifyAcademicJoinBarrier(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()
	req := newRequest("req-1", pending, pending, pending)

	req.LibraryStatus = approved
	result := f.notifier.CheckAndNotifyAcademic(ctx, req)
	assert.Equal(t, ReasonNotReady, result.Reason)
	assert.Empty(t, f.sender.sent())

	req.BursarStatus = models.DepartmentStatusAwaitingPayment
	result = f.notifier.CheckAndNotifyAcademic(ctx, req)
	require.True(t, result.Success, result.Message)
	require.Len(t, f.sender.sent(), 1)
	assert.Equal(t, "academic@uni.edu", f.sender.sent()[0].To)
	assert.Contains(t, f.sender.sent()[0].Text, "Bursar: AWAITING_PAYMENT")
	assert.Equal(t, 1, f.journal.count(models.AuditActionAcademicQueueNotificationSent))
	assert.JSONEq(t, `{"libraryStatus":"APPROVED","bursarStatus":"AWAITING_PAYMENT","recipient":"academic@uni.edu"}`,
		string(f.journal.events[0].Details))

	result = f.notifier.CheckAndNotifyAcademic(ctx, req)
	assert.Equal(t, ReasonNotReady, result.Reason)
	assert.Len(t, f.sender.sent(), 1)
	assert.Equal(t, 1, f.journal.count(models.AuditActionAcademicQueueNotificationSent))
}

func TestCheckAndNotifyAcademicNonApprovalVerdictsCount(t *testing.T) {
	f := newNotifierFixture(t)
	req := newRequest("req-1", models.DepartmentStatusFinesDue, hold, pending)

	result := f.notifier.CheckAndNotifyAcademic(context.Background(), req)

	assert.True(t, result.Success)
}

func TestCheckAndNotifyAcademicAcademicAlreadyDecided(t *testing.T) {
	f := newNotifierFixture(t)
	req := newRequest("req-1", approved, approved, approved)

	result := f.notifier.CheckAndNotifyAcademic(context.Background(), req)

	assert.Equal(t, ReasonNotReady, result.Reason)
	assert.Empty(t, f.sender.sent())
}

func TestCheckAndNotifyAcademicJournalReadFailureKeepsGateClosed(t *testing.T) {
	f := newNotifierFixture(t)
	f.journal.readErr = errors.New("db gone")

	result := f.notifier.CheckAndNotifyAcademic(context.Background(), newRequest("req-1", approved, approved, pending))

	assert.Equal(t, ReasonInternal, result.Reason)
	assert.Empty(t, f.sender.sent())
}

func TestCheckAndNotifyAcademicJournalWriteFailureSwallowed(t *testing.T) {
	f := newNotifierFixture(t)
	f.journal.appendErr = errors.New("insert failed")

	result := f.notifier.CheckAndNotifyAcademic(context.Background(), newRequest("req-1", approved, approved, pending))

	assert.True(t, result.Success)
	assert.Len(t, f.sender.sent(), 1)
}

func TestCheckAndNotifyAcademicDisabledWritesNothing(t *testing.T) {
	f := newNotifierFixture(t)
	f.settings.settings.EnableAlerts = false

	result := f.notifier.CheckAndNotifyAcademic(context.Background(), newRequest("req-1", approved, approved, pending))

	assert.Equal(t, ReasonDisabled, result.Reason)
	assert.Empty(t, f.sender.sent())
	assert.Empty(t, f.journal.events)
}

func TestNotifyLibraryStatusChangeFiresOnlyOnFirstDecision(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()
	req := newRequest("req-1", approved, pending, pending)

	result := f.notifier.NotifyLibraryStatusChange(ctx, req, "pending", "Approved")
	require.True(t, result.Success)
	require.Len(t, f.sender.sent(), 1)
	assert.Equal(t, "bursar@uni.edu", f.sender.sent()[0].To)
	assert.Equal(t, 1, f.journal.count(models.AuditActionLibraryStatusNotificationSent))

	result = f.notifier.NotifyLibraryStatusChange(ctx, req, approved, approved)
	assert.Equal(t, ReasonNoChange, result.Reason)

	result = f.notifier.NotifyLibraryStatusChange(ctx, req, hold, approved)
	assert.Equal(t, ReasonNoChange, result.Reason)

	result = f.notifier.NotifyLibraryStatusChange(ctx, req, approved, pending)
	assert.Equal(t, ReasonNoChange, result.Reason)
	assert.Len(t, f.sender.sent(), 1)
}

func TestNotifyBursarStatusChangeGoesToStudent(t *testing.T) {
	f := newNotifierFixture(t)
	req := newRequest("req-1", pending, models.DepartmentStatusAwaitingPayment, pending)

	result := f.notifier.NotifyBursarStatusChange(context.Background(), req, pending, "Awaiting Payment")

	require.True(t, result.Success)
	msg := f.sender.sent()[0]
	assert.Equal(t, "ada@student.uni.edu", msg.To)
	assert.Contains(t, msg.Text, "from PENDING to AWAITING_PAYMENT")
	assert.Equal(t, 1, f.journal.count(models.AuditActionBursarStatusNotificationSent))

	assert.Equal(t, ReasonNoChange, f.notifier.NotifyBursarStatusChange(context.Background(), req, "awaiting-payment", "AWAITING_PAYMENT").Reason)
}

func TestNotifyBursarStatusChangeWithoutStudentEmail(t *testing.T) {
	f := newNotifierFixture(t)
	req := newRequest("req-1", pending, approved, pending)
	req.StudentEmail = ""

	result := f.notifier.NotifyBursarStatusChange(context.Background(), req, pending, approved)

	assert.Equal(t, ReasonNoRecipient, result.Reason)
}

func TestProcessorNotifications(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()
	req := newRequest("req-1", approved, approved, approved)

	assert.True(t, f.notifier.NotifyProcessorLibraryStatusChange(ctx, req, pending, approved).Success)
	assert.True(t, f.notifier.NotifyProcessorAcademicStatusChange(ctx, req, pending, models.DepartmentStatusCompleted).Success)
	assert.True(t, f.notifier.NotifyProcessorRequestStatusChange(ctx, req, models.RequestStatusProcessing, models.RequestStatusCompleted).Success)
	assert.Equal(t, ReasonNoChange, f.notifier.NotifyProcessorRequestStatusChange(ctx, req, "completed", models.RequestStatusCompleted).Reason)

	for _, msg := range f.sender.sent() {
		assert.Equal(t, "taps@uni.edu", msg.To)
	}
	assert.Len(t, f.sender.sent(), 3)
	assert.Equal(t, 1, f.journal.count(models.AuditActionProcessorLibraryStatusNotificationSent))
	assert.Equal(t, 1, f.journal.count(models.AuditActionProcessorAcademicStatusNotificationSent))
	assert.Equal(t, 1, f.journal.count(models.AuditActionProcessorRequestStatusNotificationSent))
}

func TestStatusNotificationsRespectDisabledAlerts(t *testing.T) {
	f := newNotifierFixture(t)
	f.settings.settings.EnableAlerts = false
	req := newRequest("req-1", approved, approved, pending)

	assert.Equal(t, ReasonDisabled, f.notifier.NotifyLibraryStatusChange(context.Background(), req, pending, approved).Reason)
	assert.Equal(t, ReasonDisabled, f.notifier.NotifyProcessorRequestStatusChange(context.Background(), req, models.RequestStatusSubmitted, models.RequestStatusInReview).Reason)
	assert.Empty(t, f.sender.sent())
	assert.Empty(t, f.journal.events)
}

func TestSettingsFailureReportsInternal(t *testing.T) {
	f := newNotifierFixture(t)
	f.settings.err = errors.New("db down")

	result := f.notifier.NotifyDepartmentQueue(context.Background(), newRequest("req-1", pending, pending, pending), models.DepartmentLibrary)

	assert.Equal(t, ReasonInternal, result.Reason)
}
