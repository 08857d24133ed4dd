package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Invoices",
		Columns: []Column{{Key: "number", Label: "Number"}, {Key: "total", Label: "Total"}},
		Rows: []map[string]string{
			{"number": "INV-202610-000001", "total": "150.00"},
			{"number": "INV-202610-000002", "total": "75,50"},
		},
	}
}

func TestCSVRendererOrdersByColumn(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Number,Total\nINV-202610-000001,150.00\nINV-202610-000002,\"75,50\"\n", string(out))
}

func TestRenderersRejectEmptyColumns(t *testing.T) {
	_, err := NewCSVRenderer().Render(Table{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Table{})
	assert.Error(t, err)
}

func TestPDFRendererProducesDocument(t *testing.T) {
	out, err := NewPDFRenderer().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "invoices/invoices_20261015T093000Z.pdf", FileName("Invoices", ".pdf", at))
	assert.Equal(t, "export/export_20261015T093000Z.csv", FileName("../..", "csv", at))
}
