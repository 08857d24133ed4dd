package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/clinic-admin-api/internal/models"
)

// where accumulates AND-ed conditions with $N placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func newWhere(clinicColumn, clinicID string) *where {
	w := &where{}
	w.eq(clinicColumn, clinicID)
	return w
}

// add appends expr, replacing each "?" with the next placeholder bound to arg.
func (w *where) add(expr string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(expr, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) eq(column string, value interface{}) {
	w.add(column+" = ?", value)
}

// eqIf skips empty strings.
func (w *where) eqIf(column, value string) {
	if value != "" {
		w.eq(column, value)
	}
}

// search matches term case-insensitively against any of columns.
func (w *where) search(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + ") LIKE ?"
	}
	w.add("("+strings.Join(parts, " OR ")+")", "%"+strings.ToLower(term)+"%")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// sortSpec whitelists sortable columns for one table.
type sortSpec struct {
	columns   map[string]string
	fallback  string
	direction string
}

// page renders ORDER BY, LIMIT and OFFSET for q. Unknown columns fall back to the default.
func (s sortSpec) page(q models.PageQuery) string {
	q = q.Normalize()
	column, ok := s.columns[q.SortColumn]
	if !ok {
		column = s.fallback
	}
	dir := strings.ToUpper(q.SortDirection)
	if dir == "" {
		dir = s.direction
	}
	return fmt.Sprintf("ORDER BY %s %s LIMIT %d OFFSET %d", column, dir, q.PageSize, q.Offset())
}
