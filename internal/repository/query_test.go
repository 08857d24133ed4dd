package repository

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/clinic-admin-api/internal/models"
)

func TestWhereNumbersPlaceholders(t *testing.T) {
	w := newWhere("clinic_id", "c1")
	w.eqIf("status", "")
	w.eqIf("staff_id", "s1")
	w.search("Ann", "patient_name", "staff_name")

	assert.Equal(t, "WHERE clinic_id = $1 AND staff_id = $2 AND (LOWER(patient_name) LIKE $3 OR LOWER(staff_name) LIKE $3)", w.String())
	if diff := cmp.Diff([]interface{}{"c1", "s1", "%ann%"}, w.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSortSpecPage(t *testing.T) {
	spec := sortSpec{columns: map[string]string{"name": "name"}, fallback: "created_at", direction: "DESC"}

	assert.Equal(t, "ORDER BY name ASC LIMIT 100 OFFSET 200", spec.page(models.PageQuery{PageNumber: 3, PageSize: 500, SortColumn: "name", SortDirection: "ASC"}))
	assert.Equal(t, "ORDER BY created_at DESC LIMIT 20 OFFSET 0", spec.page(models.PageQuery{SortColumn: "password_hash", SortDirection: "sideways"}))
}
