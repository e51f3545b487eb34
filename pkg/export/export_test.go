package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersHeadersAndRows(t *testing.T) {
	exporter := &CSVExporter{}
	out, err := exporter.Render(Dataset{
		Headers: []string{"id", "status"},
		Rows: []map[string]string{
			{"id": "1", "status": "SUBMITTED"},
			{"id": "2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id,status\n1,SUBMITTED\n2,\n", string(out))
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	exporter := &CSVExporter{}
	out, err := exporter.Render(Dataset{
		Headers: []string{"name", "amount"},
		Rows: []map[string]string{
			{"name": "=HYPERLINK(\"x\")", "amount": "-12.50"},
			{"name": "@SUM(A1)", "amount": "-1+2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "name,amount\n\"'=HYPERLINK(\"\"x\"\")\",-12.50\n'@SUM(A1),'-1+2\n", string(out))
}

func TestCSVExporterBOM(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{Headers: []string{"id"}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\ufeff")))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title:    "Clearance Slip",
		Subtitle: "Request ABCD1234",
		Sections: []Section{{
			Heading: "Library",
			Fields:  []Field{{Label: "Status", Value: "APPROVED"}, {Label: "Comments"}},
		}},
		Footer: "Generated automatically.",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresTitle(t *testing.T) {
	_, err := NewPDFExporter().Render(Document{})
	assert.Error(t, err)
}
