package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value printed on a document.
type Field struct {
	Label string
	Value string
}

// Section groups fields under a heading.
type Section struct {
	Heading string
	Fields  []Field
}

// Document is a single page form such as a clearance slip.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
	Footer   string
}

// PDFExporter renders documents with gofpdf.
type PDFExporter struct {
	pageSize string
}

// NewPDFExporter constructs a PDF exporter for A4 pages.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageSize: "A4"}
}

// Render lays out the document as labelled rows grouped by section.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", e.pageSize, "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	const labelWidth = 55.0
	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.SetFillColor(230, 230, 230)
			pdf.CellFormat(0, 8, tr(section.Heading), "1", 1, "L", true, 0, "")
		}
		for _, field := range section.Fields {
			value := field.Value
			if strings.TrimSpace(value) == "" {
				value = "-"
			}
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(labelWidth, 7, tr(field.Label), "1", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 7, tr(value), "1", "L", false)
		}
		pdf.Ln(3)
	}

	if doc.Footer != "" {
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, tr(doc.Footer), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
