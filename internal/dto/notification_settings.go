package dto

// UpdateNotificationSettingsRequest replaces the notification settings row.
type UpdateNotificationSettingsRequest struct {
	EnableAlerts           *bool  `json:"enableAlerts" validate:"required"`
	EnableReminders        *bool  `json:"enableReminders" validate:"required"`
	EnableReminderLibrary  *bool  `json:"enableReminderLibrary" validate:"required"`
	EnableReminderBursar   *bool  `json:"enableReminderBursar" validate:"required"`
	EnableReminderAcademic *bool  `json:"enableReminderAcademic" validate:"required"`
	LibraryEmail           string `json:"libraryEmail" validate:"omitempty,email"`
	BursarEmail            string `json:"bursarEmail" validate:"omitempty,email"`
	AcademicEmail          string `json:"academicEmail" validate:"omitempty,email"`
	ProcessorEmail         string `json:"processorEmail" validate:"omitempty,email"`
	ReminderHoursLibrary   int    `json:"reminderHoursLibrary" validate:"min=0,max=720"`
	ReminderHoursBursar    int    `json:"reminderHoursBursar" validate:"min=0,max=720"`
	ReminderHoursAcademic  int    `json:"reminderHoursAcademic" validate:"min=0,max=720"`
}
