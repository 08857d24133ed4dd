package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-admin-api/internal/models"
)

const labResultColumns = `id, clinic_id, patient_id, patient_name, test_name, result_value, unit, reference_range, status, collected_at, reported_at, created_at, updated_at`

var labResultSorts = sortSpec{
	columns:   map[string]string{"collected_at": "collected_at", "reported_at": "reported_at", "test_name": "test_name", "patient_name": "patient_name", "status": "status"},
	fallback:  "collected_at",
	direction: "DESC",
}

// LabResultRepository persists laboratory results.
type LabResultRepository struct {
	db *sqlx.DB
}

// NewLabResultRepository constructs a LabResultRepository.
func NewLabResultRepository(db *sqlx.DB) *LabResultRepository {
	return &LabResultRepository{db: db}
}

// List returns a page of lab results.
func (r *LabResultRepository) List(ctx context.Context, filter models.ClinicalFilter) ([]models.LabResult, int, error) {
	w := newWhere("clinic_id", filter.ClinicID)
	w.eqIf("patient_id", filter.PatientID)
	w.eqIf("status", filter.Status)
	w.search(filter.SearchValue, "patient_name", "test_name")

	var items []models.LabResult
	query := fmt.Sprintf("SELECT %s FROM lab_results %s %s", labResultColumns, w, labResultSorts.page(filter.PageQuery))
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list lab results: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM lab_results %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count lab results: %w", err)
	}
	return items, total, nil
}

// FindByID fetches one lab result.
func (r *LabResultRepository) FindByID(ctx context.Context, clinicID, id string) (*models.LabResult, error) {
	var l models.LabResult
	query := fmt.Sprintf("SELECT %s FROM lab_results WHERE clinic_id = $1 AND id = $2", labResultColumns)
	if err := r.db.GetContext(ctx, &l, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lab result: %w", err)
	}
	return &l, nil
}

// Create inserts a lab result.
func (r *LabResultRepository) Create(ctx context.Context, l *models.LabResult) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	const query = `INSERT INTO lab_results (id, clinic_id, patient_id, patient_name, test_name, result_value, unit, reference_range, status, collected_at, reported_at, created_at, updated_at)
        VALUES (:id, :clinic_id, :patient_id, :patient_name, :test_name, :result_value, :unit, :reference_range, :status, :collected_at, :reported_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("create lab result: %w", err)
	}
	return nil
}

// Update replaces a lab result. It returns sql.ErrNoRows when nothing matched.
func (r *LabResultRepository) Update(ctx context.Context, l *models.LabResult) error {
	l.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lab_results SET patient_id = :patient_id, patient_name = :patient_name, test_name = :test_name, result_value = :result_value,
        unit = :unit, reference_range = :reference_range, status = :status, collected_at = :collected_at, reported_at = :reported_at, updated_at = :updated_at
        WHERE clinic_id = :clinic_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, l)
	if err != nil {
		return fmt.Errorf("update lab result: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a lab result. It returns sql.ErrNoRows when nothing matched.
func (r *LabResultRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lab_results WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete lab result: %w", err)
	}
	return expectAffected(res)
}
