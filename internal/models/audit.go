package models

import (
	"encoding/json"
	"time"
)

// AuditAction names a journal entry. The strings are matched exactly by the
// reminder and queue dedup checks.
type AuditAction string

const (
	AuditActionLibraryQueueNotificationSent  AuditAction = "LIBRARY_QUEUE_NOTIFICATION_SENT"
	AuditActionBursarQueueNotificationSent   AuditAction = "BURSAR_QUEUE_NOTIFICATION_SENT"
	AuditActionAcademicQueueNotificationSent AuditAction = "ACADEMIC_QUEUE_NOTIFICATION_SENT"

	AuditActionLibraryReminderSent  AuditAction = "LIBRARY_REMINDER_SENT"
	AuditActionBursarReminderSent   AuditAction = "BURSAR_REMINDER_SENT"
	AuditActionAcademicReminderSent AuditAction = "ACADEMIC_REMINDER_SENT"

	AuditActionLibraryStatusNotificationSent           AuditAction = "LIBRARY_STATUS_NOTIFICATION_SENT"
	AuditActionBursarStatusNotificationSent            AuditAction = "BURSAR_STATUS_NOTIFICATION_SENT"
	AuditActionProcessorLibraryStatusNotificationSent  AuditAction = "PROCESSOR_LIBRARY_STATUS_NOTIFICATION_SENT"
	AuditActionProcessorAcademicStatusNotificationSent AuditAction = "PROCESSOR_ACADEMIC_STATUS_NOTIFICATION_SENT"
	AuditActionProcessorRequestStatusNotificationSent  AuditAction = "PROCESSOR_REQUEST_STATUS_NOTIFICATION_SENT"

	AuditActionDepartmentDecisionRecorded AuditAction = "DEPARTMENT_DECISION_RECORDED"
	AuditActionRequestStatusChanged       AuditAction = "REQUEST_STATUS_CHANGED"
)

// QueueNotificationAction returns the queue journal action for the department.
func QueueNotificationAction(dept Department) AuditAction {
	switch dept {
	case DepartmentLibrary:
		return AuditActionLibraryQueueNotificationSent
	case DepartmentBursar:
		return AuditActionBursarQueueNotificationSent
	default:
		return AuditActionAcademicQueueNotificationSent
	}
}

// ReminderAction returns the reminder journal action for the department.
func ReminderAction(dept Department) AuditAction {
	switch dept {
	case DepartmentLibrary:
		return AuditActionLibraryReminderSent
	case DepartmentBursar:
		return AuditActionBursarReminderSent
	default:
		return AuditActionAcademicReminderSent
	}
}

// AuditEvent is an immutable journal entry.
type AuditEvent struct {
	ID        string          `db:"id" json:"id"`
	RequestID string          `db:"request_id" json:"requestId"`
	Action    AuditAction     `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details,omitempty"`
	Timestamp time.Time       `db:"timestamp" json:"timestamp"`
}
