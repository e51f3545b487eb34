package models

import (
	"strings"
	"time"
)

// DefaultReminderHours applies when a department interval is unset or zero.
const DefaultReminderHours = 48

// NotificationSettings is the process-wide notification configuration row.
type NotificationSettings struct {
	ID                     int       `db:"id" json:"-"`
	EnableAlerts           bool      `db:"enable_alerts" json:"enableAlerts"`
	EnableReminders        bool      `db:"enable_reminders" json:"enableReminders"`
	EnableReminderLibrary  bool      `db:"enable_reminder_library" json:"enableReminderLibrary"`
	EnableReminderBursar   bool      `db:"enable_reminder_bursar" json:"enableReminderBursar"`
	EnableReminderAcademic bool      `db:"enable_reminder_academic" json:"enableReminderAcademic"`
	LibraryEmail           string    `db:"library_email" json:"libraryEmail"`
	BursarEmail            string    `db:"bursar_email" json:"bursarEmail"`
	AcademicEmail          string    `db:"academic_email" json:"academicEmail"`
	ProcessorEmail         string    `db:"processor_email" json:"processorEmail"`
	ReminderHoursLibrary   int       `db:"reminder_hours_library" json:"reminderHoursLibrary"`
	ReminderHoursBursar    int       `db:"reminder_hours_bursar" json:"reminderHoursBursar"`
	ReminderHoursAcademic  int       `db:"reminder_hours_academic" json:"reminderHoursAcademic"`
	UpdatedBy              *string   `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt              time.Time `db:"updated_at" json:"updatedAt"`
}

// RecipientFor returns the queue address of the department.
func (s *NotificationSettings) RecipientFor(dept Department) string {
	if s == nil {
		return ""
	}
	switch dept {
	case DepartmentLibrary:
		return strings.TrimSpace(s.LibraryEmail)
	case DepartmentBursar:
		return strings.TrimSpace(s.BursarEmail)
	case DepartmentAcademic:
		return strings.TrimSpace(s.AcademicEmail)
	default:
		return ""
	}
}

// ReminderEnabled reports whether reminders may fire for the department.
func (s *NotificationSettings) ReminderEnabled(dept Department) bool {
	if s == nil || !s.EnableAlerts || !s.EnableReminders {
		return false
	}
	switch dept {
	case DepartmentLibrary:
		return s.EnableReminderLibrary
	case DepartmentBursar:
		return s.EnableReminderBursar
	case DepartmentAcademic:
		return s.EnableReminderAcademic
	default:
		return false
	}
}

// ReminderHours returns the department interval, defaulting to 48.
func (s *NotificationSettings) ReminderHours(dept Department) int {
	if s == nil {
		return DefaultReminderHours
	}
	var hours int
	switch dept {
	case DepartmentLibrary:
		hours = s.ReminderHoursLibrary
	case DepartmentBursar:
		hours = s.ReminderHoursBursar
	case DepartmentAcademic:
		hours = s.ReminderHoursAcademic
	}
	if hours <= 0 {
		return DefaultReminderHours
	}
	return hours
}
