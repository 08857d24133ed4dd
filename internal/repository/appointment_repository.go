package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
)

const appointmentColumns = `id, clinic_id, patient_id, patient_name, staff_id, staff_name, date, start_time, end_time, type, status, notes, created_at, updated_at`

var appointmentSorts = sortSpec{
	columns: map[string]string{
		"date":         "date",
		"start_time":   "date, start_time",
		"patient_name": "patient_name",
		"staff_name":   "staff_name",
		"status":       "status",
		"created_at":   "created_at",
	},
	fallback:  "date, start_time",
	direction: "ASC",
}

// AppointmentRepository persists appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns a page of appointments and the total match count.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	w := newWhere("clinic_id", filter.ClinicID)
	if filter.DateFrom != nil {
		w.add("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		w.add("date <= ?", *filter.DateTo)
	}
	w.eqIf("staff_id", filter.StaffID)
	w.eqIf("patient_id", filter.PatientID)
	w.eqIf("type", filter.Type)
	w.eqIf("status", filter.Status)
	w.search(filter.SearchValue, "patient_name", "staff_name")

	query := fmt.Sprintf("SELECT %s FROM appointments %s %s", appointmentColumns, w, appointmentSorts.page(filter.PageQuery))
	var items []models.Appointment
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM appointments %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return items, total, nil
}

// ListRange returns every appointment dated between from and to inclusive, in day then start order.
func (r *AppointmentRepository) ListRange(ctx context.Context, clinicID string, from, to calendar.Date) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE clinic_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, start_time, created_at`, appointmentColumns)
	var items []models.Appointment
	if err := r.db.SelectContext(ctx, &items, query, clinicID, from, to); err != nil {
		return nil, fmt.Errorf("list appointments in range: %w", err)
	}
	return items, nil
}

// FindByID fetches one appointment within the clinic.
func (r *AppointmentRepository) FindByID(ctx context.Context, clinicID, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE clinic_id = $1 AND id = $2`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &appt, nil
}

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appt.CreatedAt, appt.UpdatedAt = now, now
	const query = `INSERT INTO appointments (id, clinic_id, patient_id, patient_name, staff_id, staff_name, date, start_time, end_time, type, status, notes, created_at, updated_at)
        VALUES (:id, :clinic_id, :patient_id, :patient_name, :staff_id, :staff_name, :date, :start_time, :end_time, :type, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// Update replaces the mutable columns. It returns sql.ErrNoRows when nothing matched.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE appointments SET patient_id = :patient_id, patient_name = :patient_name, staff_id = :staff_id, staff_name = :staff_name,
        date = :date, start_time = :start_time, end_time = :end_time, type = :type, status = :status, notes = :notes, updated_at = :updated_at
        WHERE clinic_id = :clinic_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, appt)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an appointment. It returns sql.ErrNoRows when nothing matched.
func (r *AppointmentRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
