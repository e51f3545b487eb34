package service

import (
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/pkg/mailer"
)

// NotificationKind identifies a built-in message template.
type NotificationKind string

const (
	KindLibraryQueue            NotificationKind = "library_queue"
	KindBursarQueue             NotificationKind = "bursar_queue"
	KindAcademicQueue           NotificationKind = "academic_queue"
	KindLibraryStatusToBursar   NotificationKind = "library_status_to_bursar"
	KindBursarStatusToStudent   NotificationKind = "bursar_status_to_student"
	KindProcessorLibraryStatus  NotificationKind = "processor_library_status"
	KindProcessorAcademicStatus NotificationKind = "processor_academic_status"
	KindProcessorRequestStatus  NotificationKind = "processor_request_status"
)

// MessageTemplate is the subject and bodies of one notification kind.
type MessageTemplate struct {
	Subject string
	HTML    string
	Text    string
}

// TemplateSet maps kinds to templates.
type TemplateSet map[NotificationKind]MessageTemplate

func queueKind(dept models.Department) NotificationKind {
	switch dept {
	case models.DepartmentLibrary:
		return KindLibraryQueue
	case models.DepartmentBursar:
		return KindBursarQueue
	default:
		return KindAcademicQueue
	}
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		KindLibraryQueue: queueTemplate("Library"),
		KindBursarQueue:  queueTemplate("Bursar"),
		KindAcademicQueue: {
			Subject: "Transcript request {{REQUEST_ID}} ready for academic review",
			HTML: "<p>Library and Bursar have both reviewed transcript request <strong>{{REQUEST_ID}}</strong>.</p>" +
				"<p>Student: {{STUDENT_NAME}} ({{STUDENT_ID}})<br>Program: {{PROGRAM}}<br>" +
				"Library: {{LIBRARY_STATUS}}<br>Bursar: {{BURSAR_STATUS}}</p>" +
				"<p>Please complete the academic review.</p>",
			Text: "Library and Bursar have both reviewed transcript request {{REQUEST_ID}}.\n" +
				"Student: {{STUDENT_NAME}} ({{STUDENT_ID}})\nProgram: {{PROGRAM}}\n" +
				"Library: {{LIBRARY_STATUS}}\nBursar: {{BURSAR_STATUS}}\n\n" +
				"Please complete the academic review.",
		},
		KindLibraryStatusToBursar: {
			Subject: "Library decision recorded for transcript request {{REQUEST_ID}}",
			HTML: "<p>The Library recorded <strong>{{NEW_STATUS}}</strong> for transcript request {{REQUEST_ID}}.</p>" +
				"<p>Student: {{STUDENT_NAME}} ({{STUDENT_ID}})</p>",
			Text: "The Library recorded {{NEW_STATUS}} for transcript request {{REQUEST_ID}}.\n" +
				"Student: {{STUDENT_NAME}} ({{STUDENT_ID}})",
		},
		KindBursarStatusToStudent: {
			Subject: "Update on your transcript request {{REQUEST_ID}}",
			HTML: "<p>Dear {{STUDENT_NAME}},</p>" +
				"<p>The Bursar's office changed the status of your transcript request {{REQUEST_ID}} " +
				"from {{OLD_STATUS}} to <strong>{{NEW_STATUS}}</strong>.</p>",
			Text: "Dear {{STUDENT_NAME}},\n\n" +
				"The Bursar's office changed the status of your transcript request {{REQUEST_ID}} " +
				"from {{OLD_STATUS}} to {{NEW_STATUS}}.",
		},
		KindProcessorLibraryStatus:  processorTemplate("Library status"),
		KindProcessorAcademicStatus: processorTemplate("Academic status"),
		KindProcessorRequestStatus:  processorTemplate("Request status"),
	}
}

func queueTemplate(office string) MessageTemplate {
	return MessageTemplate{
		Subject: "Transcript request {{REQUEST_ID}} awaiting " + office + " review",
		HTML: "<p>A transcript request is waiting in the " + office + " queue.</p>" +
			"<p>Request: <strong>{{REQUEST_ID}}</strong><br>Student: {{STUDENT_NAME}} ({{STUDENT_ID}})<br>" +
			"Email: {{STUDENT_EMAIL}}<br>Program: {{PROGRAM}}</p>",
		Text: "A transcript request is waiting in the " + office + " queue.\n" +
			"Request: {{REQUEST_ID}}\nStudent: {{STUDENT_NAME}} ({{STUDENT_ID}})\n" +
			"Email: {{STUDENT_EMAIL}}\nProgram: {{PROGRAM}}",
	}
}

func processorTemplate(label string) MessageTemplate {
	return MessageTemplate{
		Subject: label + " changed for transcript request {{REQUEST_ID}}",
		HTML: "<p>" + label + " for transcript request <strong>{{REQUEST_ID}}</strong> changed from " +
			"{{OLD_STATUS}} to <strong>{{NEW_STATUS}}</strong>.</p>" +
			"<p>Student: {{STUDENT_NAME}} ({{STUDENT_ID}})<br>Program: {{PROGRAM}}</p>",
		Text: label + " for transcript request {{REQUEST_ID}} changed from {{OLD_STATUS}} to {{NEW_STATUS}}.\n" +
			"Student: {{STUDENT_NAME}} ({{STUDENT_ID}})\nProgram: {{PROGRAM}}",
	}
}

// Render builds a message for the recipient. Values are HTML escaped in the
// HTML body only.
func (t MessageTemplate) Render(to string, data TemplateData, extras map[string]string) mailer.Message {
	htmlBody := templateReplacer(data, true).Replace(replaceExtras(t.HTML, extras, true))
	return mailer.Message{
		To:      to,
		Subject: ReplaceTemplateVariables(replaceExtras(t.Subject, extras, false), data),
		HTML:    htmlBody,
		Text:    ReplaceTemplateVariables(replaceExtras(t.Text, extras, false), data),
	}
}
