package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Column maps a row key to its printed label.
type Column struct {
	Key   string
	Label string
}

// Table is the tabular content shared by every renderer.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

// Labels returns the column headers in order.
func (t Table) Labels() []string {
	labels := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}

// Record returns row values ordered by column.
func (t Table) Record(row map[string]string) []string {
	record := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		record[i] = row[col.Key]
	}
	return record
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export table requires at least one column")
	}
	return nil
}

// Renderer turns a table into file bytes.
type Renderer interface {
	Render(Table) ([]byte, error)
	ContentType() string
	Extension() string
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

// FileName builds a storage-safe name such as invoices/invoices_20261015T093000Z.pdf.
func FileName(kind, ext string, at time.Time) string {
	slug := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(kind)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "export"
	}
	return fmt.Sprintf("%s/%s_%s.%s", slug, slug, at.UTC().Format("20060102T150405Z"), strings.TrimPrefix(ext, "."))
}
