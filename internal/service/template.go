package service

import (
	"html"
	"strings"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
)

const (
	templateFallbackName  = "Student"
	templateFallbackValue = "N/A"
)

// TemplateData holds the placeholder values of a notification.
type TemplateData struct {
	RequestID    string
	StudentName  string
	StudentID    string
	StudentEmail string
	Program      string
}

// TemplateDataFromRequest builds the placeholder values for a request.
func TemplateDataFromRequest(req *models.TranscriptRequest) TemplateData {
	if req == nil {
		return TemplateData{}
	}
	return TemplateData{
		RequestID:    req.DisplayRequestID(),
		StudentName:  req.Requestor,
		StudentID:    req.StudentID,
		StudentEmail: req.StudentEmail,
		Program:      req.Program,
	}
}

// ReplaceTemplateVariables substitutes every occurrence of the known
// placeholders. Matching is case-sensitive and unknown placeholders are kept.
func ReplaceTemplateVariables(template string, data TemplateData) string {
	return templateReplacer(data, false).Replace(template)
}

func templateReplacer(data TemplateData, escape bool) *strings.Replacer {
	value := func(raw, fallback string) string {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			raw = fallback
		}
		if escape {
			return html.EscapeString(raw)
		}
		return raw
	}
	return strings.NewReplacer(
		"{{REQUEST_ID}}", value(data.RequestID, templateFallbackValue),
		"{{STUDENT_NAME}}", value(data.StudentName, templateFallbackName),
		"{{STUDENT_ID}}", value(data.StudentID, templateFallbackValue),
		"{{STUDENT_EMAIL}}", value(data.StudentEmail, templateFallbackValue),
		"{{PROGRAM}}", value(data.Program, templateFallbackValue),
	)
}

func replaceExtras(template string, extras map[string]string, escape bool) string {
	if len(extras) == 0 {
		return template
	}
	pairs := make([]string, 0, len(extras)*2)
	for key, raw := range extras {
		if escape {
			raw = html.EscapeString(raw)
		}
		pairs = append(pairs, "{{"+key+"}}", raw)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
