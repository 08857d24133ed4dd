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

const servicePriceColumns = `id, clinic_id, service_name, description, price, currency_id, duration_minutes, active, created_at, updated_at`

var servicePriceSorts = sortSpec{
	columns:   map[string]string{"service_name": "service_name", "price": "price", "duration_minutes": "duration_minutes", "created_at": "created_at"},
	fallback:  "service_name",
	direction: "ASC",
}

// ServicePriceRepository persists the clinic price list.
type ServicePriceRepository struct {
	db *sqlx.DB
}

// NewServicePriceRepository constructs a ServicePriceRepository.
func NewServicePriceRepository(db *sqlx.DB) *ServicePriceRepository {
	return &ServicePriceRepository{db: db}
}

// List returns a page of service prices. activeOnly hides retired services.
func (r *ServicePriceRepository) List(ctx context.Context, clinicID string, activeOnly bool, q models.PageQuery) ([]models.ServicePrice, int, error) {
	w := newWhere("clinic_id", clinicID)
	if activeOnly {
		w.eq("active", true)
	}
	w.search(q.SearchValue, "service_name")

	var items []models.ServicePrice
	query := fmt.Sprintf("SELECT %s FROM service_prices %s %s", servicePriceColumns, w, servicePriceSorts.page(q))
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list service prices: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM service_prices %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count service prices: %w", err)
	}
	return items, total, nil
}

// FindByID fetches one service price.
func (r *ServicePriceRepository) FindByID(ctx context.Context, clinicID, id string) (*models.ServicePrice, error) {
	var p models.ServicePrice
	query := fmt.Sprintf("SELECT %s FROM service_prices WHERE clinic_id = $1 AND id = $2", servicePriceColumns)
	if err := r.db.GetContext(ctx, &p, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find service price: %w", err)
	}
	return &p, nil
}

// Create inserts a service price.
func (r *ServicePriceRepository) Create(ctx context.Context, p *models.ServicePrice) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	const query = `INSERT INTO service_prices (id, clinic_id, service_name, description, price, currency_id, duration_minutes, active, created_at, updated_at)
        VALUES (:id, :clinic_id, :service_name, :description, :price, :currency_id, :duration_minutes, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create service price: %w", err)
	}
	return nil
}

// Update replaces a service price. It returns sql.ErrNoRows when nothing matched.
func (r *ServicePriceRepository) Update(ctx context.Context, p *models.ServicePrice) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE service_prices SET service_name = :service_name, description = :description, price = :price, currency_id = :currency_id,
        duration_minutes = :duration_minutes, active = :active, updated_at = :updated_at WHERE clinic_id = :clinic_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("update service price: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a service price. It returns sql.ErrNoRows when nothing matched.
func (r *ServicePriceRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM service_prices WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete service price: %w", err)
	}
	return expectAffected(res)
}
