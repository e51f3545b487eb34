package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

// reminderSuppressionWindow blocks a second reminder for the same request and
// department within this period.
const reminderSuppressionWindow = 24 * time.Hour

// DepartmentSweep summarises one department's pass of a reminder sweep.
type DepartmentSweep struct {
	Department    models.Department  `json:"department"`
	Enabled       bool               `json:"enabled"`
	ReminderHours int                `json:"reminderHours"`
	Considered    int                `json:"considered"`
	Sent          int                `json:"sent"`
	Suppressed    int                `json:"suppressed"`
	NotDue        int                `json:"notDue"`
	Failed        int                `json:"failed"`
	Reason        NotificationReason `json:"reason,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// AcademicGateSweep summarises the pass that opens Academic gates missed
// when Library and Bursar decided at the same time.
type AcademicGateSweep struct {
	Considered int    `json:"considered"`
	Opened     int    `json:"opened"`
	Failed     int    `json:"failed"`
	Message    string `json:"message,omitempty"`
}

// SweepReport is the outcome of SendReminderSweep.
type SweepReport struct {
	StartedAt    time.Time          `json:"startedAt"`
	FinishedAt   time.Time          `json:"finishedAt"`
	AcademicGate AcademicGateSweep  `json:"academicGate"`
	Departments  []DepartmentSweep  `json:"departments"`
	Result       NotificationResult `json:"result"`
}

// TotalSent returns the reminders sent across departments.
func (r SweepReport) TotalSent() int {
	total := 0
	for _, dept := range r.Departments {
		total += dept.Sent
	}
	return total
}

// SendReminderSweep reminds each department about requests that have waited
// longer than its reminder interval. Library and Bursar are measured from the
// request creation time and Academic from the Academic queue notification.
// A reminder already sent within 24 hours suppresses another one, so the
// sweep can run at any frequency. Before reminding, the sweep opens the
// Academic gate of every request whose upstream decisions are in but whose
// Academic queue was never notified.
func (n *WorkflowNotifier) SendReminderSweep(ctx context.Context) (report SweepReport) {
	report.StartedAt = n.now().UTC()
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("reminder sweep panic recovered", zap.Any("panic", r), zap.Stack("stack"))
			report.Result = skipped(ReasonInternal, "reminder sweep aborted")
		}
		report.FinishedAt = n.now().UTC()
		n.metrics.RecordSweep(report, report.FinishedAt.Sub(report.StartedAt))
	}()

	settings, err := n.loadSettings(ctx)
	if err != nil {
		report.Result = skipped(ReasonInternal, "%v", err)
		return report
	}
	if !settings.EnableAlerts {
		report.Result = skipped(ReasonDisabled, "alerts disabled")
		return report
	}
	report.AcademicGate = n.openMissedAcademicGates(ctx)
	if !settings.EnableReminders {
		report.Result = skipped(ReasonDisabled, "reminders disabled")
		return report
	}

	for _, dept := range models.Departments {
		if ctx.Err() != nil {
			report.Result = skipped(ReasonInternal, "reminder sweep cancelled: %v", ctx.Err())
			return report
		}
		report.Departments = append(report.Departments, n.sweepDepartment(ctx, settings, dept))
	}

	report.Result = sent(fmt.Sprintf("reminder sweep sent %d reminders and opened %d academic gates",
		report.TotalSent(), report.AcademicGate.Opened))
	if report.TotalSent() == 0 && report.AcademicGate.Opened == 0 {
		report.Result.Reason = ReasonNoChange
	}
	return report
}

func (n *WorkflowNotifier) openMissedAcademicGates(ctx context.Context) AcademicGateSweep {
	var summary AcademicGateSweep
	candidates, err := n.requests.FindMany(ctx, models.TranscriptRequestFilter{
		Status:  models.ActiveRequestStatuses,
		Pending: []models.Department{models.DepartmentAcademic},
		Decided: []models.Department{models.DepartmentLibrary, models.DepartmentBursar},
	})
	if err != nil {
		summary.Message = fmt.Sprintf("load academic gate candidates: %v", err)
		n.logger.Warn("load academic gate candidates failed", zap.Error(err))
		return summary
	}

	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		summary.Considered++
		result := n.CheckAndNotifyAcademic(ctx, &candidates[i])
		switch {
		case result.Success:
			summary.Opened++
			n.logger.Info("academic gate opened by sweep", zap.String("request_id", candidates[i].ID))
		case result.Reason == ReasonInternal || result.Reason == ReasonTransportFailed:
			summary.Failed++
		}
	}
	return summary
}

func (n *WorkflowNotifier) sweepDepartment(ctx context.Context, settings *models.NotificationSettings, dept models.Department) DepartmentSweep {
	summary := DepartmentSweep{Department: dept, ReminderHours: settings.ReminderHours(dept)}
	if !settings.ReminderEnabled(dept) {
		summary.Reason = ReasonDisabled
		summary.Message = fmt.Sprintf("%s reminders disabled", dept)
		return summary
	}
	summary.Enabled = true
	if settings.RecipientFor(dept) == "" {
		summary.Reason = ReasonNoRecipient
		summary.Message = fmt.Sprintf("no %s queue address configured", dept)
		return summary
	}

	now := n.now().UTC()
	interval := time.Duration(summary.ReminderHours) * time.Hour
	filter := models.TranscriptRequestFilter{
		Status:  models.ActiveRequestStatuses,
		Pending: []models.Department{dept},
	}
	if dept == models.DepartmentAcademic {
		filter.Decided = []models.Department{models.DepartmentLibrary, models.DepartmentBursar}
	} else {
		cutoff := now.Add(-interval)
		filter.CreatedUntil = &cutoff
	}

	candidates, err := n.requests.FindMany(ctx, filter)
	if err != nil {
		summary.Reason = ReasonInternal
		summary.Message = fmt.Sprintf("load %s reminder candidates: %v", dept, err)
		n.logger.Warn("load reminder candidates failed", zap.String("department", string(dept)), zap.Error(err))
		return summary
	}

	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		req := &candidates[i]
		summary.Considered++
		switch n.remindOne(ctx, settings, req, dept, now, interval) {
		case reminderSent:
			summary.Sent++
		case reminderSuppressed:
			summary.Suppressed++
		case reminderNotDue:
			summary.NotDue++
		default:
			summary.Failed++
		}
	}
	summary.Reason = ReasonSent
	if summary.Sent == 0 {
		summary.Reason = ReasonNoChange
	}
	return summary
}

type reminderOutcome int

const (
	reminderFailed reminderOutcome = iota
	reminderSent
	reminderSuppressed
	reminderNotDue
)

func (n *WorkflowNotifier) remindOne(ctx context.Context, settings *models.NotificationSettings, req *models.TranscriptRequest, dept models.Department, now time.Time, interval time.Duration) (outcome reminderOutcome) {
	kind := "reminder_" + string(queueKind(dept))
	result := n.guard(kind, req.ID, func() NotificationResult {
		if !req.Clearance(dept).Pending() {
			outcome = reminderNotDue
			return skipped(ReasonNotReady, "%s already decided", dept)
		}

		if dept == models.DepartmentAcademic {
			if !req.UpstreamDecided() {
				outcome = reminderNotDue
				return skipped(ReasonNotReady, "waiting for library and bursar decisions")
			}
			anchor, err := n.journal.LatestEvent(ctx, req.ID, models.AuditActionAcademicQueueNotificationSent)
			if err != nil {
				return skipped(ReasonInternal, "load academic queue notification: %v", err)
			}
			if anchor == nil || anchor.Timestamp.After(now.Add(-interval)) {
				outcome = reminderNotDue
				return skipped(ReasonNotReady, "academic reminder not due")
			}
		} else if req.Created.After(now.Add(-interval)) {
			outcome = reminderNotDue
			return skipped(ReasonNotReady, "%s reminder not due", dept)
		}

		action := models.ReminderAction(dept)
		recent, err := n.journal.HasEventSince(ctx, req.ID, action, now.Add(-reminderSuppressionWindow))
		if err != nil {
			return skipped(ReasonInternal, "check reminder history: %v", err)
		}
		if recent {
			outcome = reminderSuppressed
			return skipped(ReasonNoChange, "%s reminder sent within the last 24 hours", dept)
		}

		result := n.sendQueue(ctx, settings, req, dept, "Reminder: ")
		if result.Success {
			outcome = reminderSent
			n.record(ctx, req.ID, action, map[string]interface{}{
				"reminderHours": settings.ReminderHours(dept),
				"recipient":     settings.RecipientFor(dept),
			})
		}
		return result
	})
	if result.Reason == ReasonInternal {
		outcome = reminderFailed
	}
	return outcome
}
