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

const prescriptionColumns = `id, clinic_id, patient_id, patient_name, doctor_id, doctor_name, appointment_id, medications, notes, issued_at, created_at, updated_at`

var prescriptionSorts = sortSpec{
	columns:   map[string]string{"issued_at": "issued_at", "patient_name": "patient_name", "doctor_name": "doctor_name"},
	fallback:  "issued_at",
	direction: "DESC",
}

// PrescriptionRepository persists prescriptions.
type PrescriptionRepository struct {
	db *sqlx.DB
}

// NewPrescriptionRepository constructs a PrescriptionRepository.
func NewPrescriptionRepository(db *sqlx.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

// List returns a page of prescriptions.
func (r *PrescriptionRepository) List(ctx context.Context, filter models.ClinicalFilter) ([]models.Prescription, int, error) {
	w := newWhere("clinic_id", filter.ClinicID)
	w.eqIf("patient_id", filter.PatientID)
	w.eqIf("doctor_id", filter.DoctorID)
	w.search(filter.SearchValue, "patient_name", "doctor_name")

	var items []models.Prescription
	query := fmt.Sprintf("SELECT %s FROM prescriptions %s %s", prescriptionColumns, w, prescriptionSorts.page(filter.PageQuery))
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM prescriptions %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}
	return items, total, nil
}

// FindByID fetches one prescription.
func (r *PrescriptionRepository) FindByID(ctx context.Context, clinicID, id string) (*models.Prescription, error) {
	var p models.Prescription
	query := fmt.Sprintf("SELECT %s FROM prescriptions WHERE clinic_id = $1 AND id = $2", prescriptionColumns)
	if err := r.db.GetContext(ctx, &p, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find prescription: %w", err)
	}
	return &p, nil
}

// Create inserts a prescription.
func (r *PrescriptionRepository) Create(ctx context.Context, p *models.Prescription) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.IssuedAt.IsZero() {
		p.IssuedAt = now
	}
	const query = `INSERT INTO prescriptions (id, clinic_id, patient_id, patient_name, doctor_id, doctor_name, appointment_id, medications, notes, issued_at, created_at, updated_at)
        VALUES (:id, :clinic_id, :patient_id, :patient_name, :doctor_id, :doctor_name, :appointment_id, :medications, :notes, :issued_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create prescription: %w", err)
	}
	return nil
}

// Update replaces a prescription. It returns sql.ErrNoRows when nothing matched.
func (r *PrescriptionRepository) Update(ctx context.Context, p *models.Prescription) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE prescriptions SET patient_id = :patient_id, patient_name = :patient_name, doctor_id = :doctor_id, doctor_name = :doctor_name,
        appointment_id = :appointment_id, medications = :medications, notes = :notes, issued_at = :issued_at, updated_at = :updated_at
        WHERE clinic_id = :clinic_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a prescription. It returns sql.ErrNoRows when nothing matched.
func (r *PrescriptionRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return expectAffected(res)
}
