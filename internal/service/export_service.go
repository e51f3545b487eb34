package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/dto"
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
	"github.com/noah-isme/transcript-clearance-api/pkg/export"
)

const maxExportRows = 5000

type exportSource interface {
	GetByID(ctx context.Context, id string) (*models.TranscriptRequest, error)
	FindMany(ctx context.Context, filter models.TranscriptRequestFilter) ([]models.TranscriptRequest, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders request listings and clearance slips.
type ExportService struct {
	source exportSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source exportSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// RequestsCSV exports every request matching the query, oldest first.
func (s *ExportService) RequestsCSV(ctx context.Context, query dto.TranscriptRequestQuery) (*ExportFile, error) {
	filter, err := filterFromQuery(query)
	if err != nil {
		return nil, err
	}
	filter.Limit = maxExportRows

	rows, err := s.source.FindMany(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript requests")
	}

	dataset := export.Dataset{Headers: []string{
		"Request", "Student ID", "Student Email", "Requestor", "Program", "Status",
		"Library", "Library Due", "Bursar", "Bursar Due", "Academic", "Created", "Updated",
	}}
	for _, row := range rows {
		record := []string{
			row.DisplayRequestID(),
			row.StudentID,
			row.StudentEmail,
			row.Requestor,
			row.Program,
			string(row.Status),
			string(row.Clearance(models.DepartmentLibrary).Verdict),
			deref(row.LibraryDueAmount),
			string(row.Clearance(models.DepartmentBursar).Verdict),
			deref(row.BursarDueAmount),
			string(row.Clearance(models.DepartmentAcademic).Verdict),
			row.Created.UTC().Format(time.RFC3339),
			row.UpdatedAt.UTC().Format(time.RFC3339),
		}
		values := make(map[string]string, len(dataset.Headers))
		for i, header := range dataset.Headers {
			values[header] = record[i]
		}
		dataset.Rows = append(dataset.Rows, values)
	}

	body, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	s.logger.Info("transcript requests exported", zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("transcript_requests_%s.csv", s.now().UTC().Format("20060102_150405")),
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
	}, nil
}

// ClearanceSlip renders the department verdicts of one request as a PDF.
func (s *ExportService) ClearanceSlip(ctx context.Context, id string) (*ExportFile, error) {
	req, err := s.source.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript request")
	}

	doc := export.Document{
		Title:    "Transcript Clearance Slip",
		Subtitle: fmt.Sprintf("Request %s", req.DisplayRequestID()),
		Sections: []export.Section{
			{Heading: "Student", Fields: []export.Field{
				{Label: "Name", Value: req.Requestor},
				{Label: "Student ID", Value: req.StudentID},
				{Label: "Email", Value: req.StudentEmail},
				{Label: "Program", Value: req.Program},
				{Label: "Status", Value: string(req.Status)},
			}},
			{Heading: "Library", Fields: []export.Field{
				{Label: "Verdict", Value: string(req.Clearance(models.DepartmentLibrary).Verdict)},
				{Label: "Amount due", Value: deref(req.LibraryDueAmount)},
				{Label: "Details", Value: deref(req.LibraryDueDetails)},
				{Label: "Comments", Value: deref(req.LibraryComments)},
			}},
			{Heading: "Bursar", Fields: []export.Field{
				{Label: "Verdict", Value: string(req.Clearance(models.DepartmentBursar).Verdict)},
				{Label: "Amount due", Value: deref(req.BursarDueAmount)},
				{Label: "Details", Value: deref(req.BursarDueDetails)},
				{Label: "Comments", Value: deref(req.BursarComments)},
			}},
			{Heading: "Academic", Fields: []export.Field{
				{Label: "Verdict", Value: string(req.Clearance(models.DepartmentAcademic).Verdict)},
				{Label: "Comments", Value: deref(req.AcademicComments)},
			}},
		},
		Footer: fmt.Sprintf("Generated %s", s.now().UTC().Format("2006-01-02 15:04 MST")),
	}
	if req.FullyCleared() {
		doc.Subtitle += " - cleared by all departments"
	}

	body, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render clearance slip")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("clearance_%s.pdf", sanitizeFilename(req.DisplayRequestID())),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
