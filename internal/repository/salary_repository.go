package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/clinic-admin-api/internal/models"
)

const salaryColumns = `id, clinic_id, staff_id, staff_name, period, base_amount, allowances, deductions, net_amount, currency_id, status, paid_at, created_at, updated_at`

var salarySorts = sortSpec{
	columns:   map[string]string{"period": "period", "staff_name": "staff_name", "net_amount": "net_amount", "status": "status", "created_at": "created_at"},
	fallback:  "period",
	direction: "DESC",
}

// SalaryRepository persists monthly salaries.
type SalaryRepository struct {
	db *sqlx.DB
}

// NewSalaryRepository constructs a SalaryRepository.
func NewSalaryRepository(db *sqlx.DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// List returns a page of salaries.
func (r *SalaryRepository) List(ctx context.Context, filter models.SalaryFilter) ([]models.Salary, int, error) {
	w := newWhere("clinic_id", filter.ClinicID)
	w.eqIf("staff_id", filter.StaffID)
	w.eqIf("period", filter.Period)
	w.eqIf("status", filter.Status)
	w.search(filter.SearchValue, "staff_name")

	var items []models.Salary
	query := fmt.Sprintf("SELECT %s FROM salaries %s %s", salaryColumns, w, salarySorts.page(filter.PageQuery))
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list salaries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM salaries %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count salaries: %w", err)
	}
	return items, total, nil
}

// ListPeriods returns every salary whose period is one of periods.
func (r *SalaryRepository) ListPeriods(ctx context.Context, clinicID string, periods []string) ([]models.Salary, error) {
	query := fmt.Sprintf("SELECT %s FROM salaries WHERE clinic_id = $1 AND period = ANY($2) ORDER BY period, staff_name", salaryColumns)
	var items []models.Salary
	if err := r.db.SelectContext(ctx, &items, query, clinicID, pq.Array(periods)); err != nil {
		return nil, fmt.Errorf("list salaries by period: %w", err)
	}
	return items, nil
}

// FindByID fetches one salary.
func (r *SalaryRepository) FindByID(ctx context.Context, clinicID, id string) (*models.Salary, error) {
	var s models.Salary
	query := fmt.Sprintf("SELECT %s FROM salaries WHERE clinic_id = $1 AND id = $2", salaryColumns)
	if err := r.db.GetContext(ctx, &s, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find salary: %w", err)
	}
	return &s, nil
}

// ExistsForPeriod reports whether staffID already has a salary in period, ignoring excludeID.
func (r *SalaryRepository) ExistsForPeriod(ctx context.Context, clinicID, staffID, period, excludeID string) (bool, error) {
	query := "SELECT 1 FROM salaries WHERE clinic_id = $1 AND staff_id = $2 AND period = $3"
	args := []interface{}{clinicID, staffID, period}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check salary period: %w", err)
	}
	return true, nil
}

// Create inserts a salary.
func (r *SalaryRepository) Create(ctx context.Context, s *models.Salary) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	const query = `INSERT INTO salaries (id, clinic_id, staff_id, staff_name, period, base_amount, allowances, deductions, net_amount, currency_id, status, paid_at, created_at, updated_at)
        VALUES (:id, :clinic_id, :staff_id, :staff_name, :period, :base_amount, :allowances, :deductions, :net_amount, :currency_id, :status, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create salary: %w", err)
	}
	return nil
}

// Update replaces a salary. It returns sql.ErrNoRows when nothing matched.
func (r *SalaryRepository) Update(ctx context.Context, s *models.Salary) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE salaries SET staff_id = :staff_id, staff_name = :staff_name, period = :period, base_amount = :base_amount, allowances = :allowances,
        deductions = :deductions, net_amount = :net_amount, currency_id = :currency_id, status = :status, paid_at = :paid_at, updated_at = :updated_at
        WHERE clinic_id = :clinic_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("update salary: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a salary. It returns sql.ErrNoRows when nothing matched.
func (r *SalaryRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM salaries WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete salary: %w", err)
	}
	return expectAffected(res)
}
