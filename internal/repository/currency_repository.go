package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/pkg/database"
)

const currencyColumns = `id, clinic_id, code, name, symbol, exchange_rate, is_default, created_at, updated_at`

var currencySorts = sortSpec{
	columns:   map[string]string{"code": "code", "name": "name", "exchange_rate": "exchange_rate", "created_at": "created_at"},
	fallback:  "code",
	direction: "ASC",
}

// CurrencyRepository persists clinic currencies.
type CurrencyRepository struct {
	db *sqlx.DB
}

// NewCurrencyRepository constructs a CurrencyRepository.
func NewCurrencyRepository(db *sqlx.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// List returns a page of currencies.
func (r *CurrencyRepository) List(ctx context.Context, clinicID string, q models.PageQuery) ([]models.Currency, int, error) {
	w := newWhere("clinic_id", clinicID)
	w.search(q.SearchValue, "code", "name")

	var items []models.Currency
	query := fmt.Sprintf("SELECT %s FROM currencies %s %s", currencyColumns, w, currencySorts.page(q))
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list currencies: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM currencies %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count currencies: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a currency.
func (r *CurrencyRepository) FindByID(ctx context.Context, clinicID, id string) (*models.Currency, error) {
	var c models.Currency
	query := fmt.Sprintf("SELECT %s FROM currencies WHERE clinic_id = $1 AND id = $2", currencyColumns)
	if err := r.db.GetContext(ctx, &c, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find currency: %w", err)
	}
	return &c, nil
}

// ExistsByCode reports whether code is taken in the clinic, ignoring excludeID.
func (r *CurrencyRepository) ExistsByCode(ctx context.Context, clinicID, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM currencies WHERE clinic_id = $1 AND code = $2"
	args := []interface{}{clinicID, code}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check currency code: %w", err)
	}
	return true, nil
}

// Create inserts a currency. A new default clears the previous one in the same transaction.
func (r *CurrencyRepository) Create(ctx context.Context, c *models.Currency) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := clearDefaultCurrency(ctx, tx, c); err != nil {
			return err
		}
		const query = `INSERT INTO currencies (id, clinic_id, code, name, symbol, exchange_rate, is_default, created_at, updated_at)
        VALUES (:id, :clinic_id, :code, :name, :symbol, :exchange_rate, :is_default, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return fmt.Errorf("create currency: %w", err)
		}
		return nil
	})
}

// Update replaces a currency. It returns sql.ErrNoRows when nothing matched.
func (r *CurrencyRepository) Update(ctx context.Context, c *models.Currency) error {
	c.UpdatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := clearDefaultCurrency(ctx, tx, c); err != nil {
			return err
		}
		const query = `UPDATE currencies SET code = :code, name = :name, symbol = :symbol, exchange_rate = :exchange_rate, is_default = :is_default, updated_at = :updated_at
        WHERE clinic_id = :clinic_id AND id = :id`
		res, err := tx.NamedExecContext(ctx, query, c)
		if err != nil {
			return fmt.Errorf("update currency: %w", err)
		}
		return expectAffected(res)
	})
}

// Delete removes a currency. It returns sql.ErrNoRows when nothing matched.
func (r *CurrencyRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM currencies WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	return expectAffected(res)
}

func clearDefaultCurrency(ctx context.Context, tx *sqlx.Tx, c *models.Currency) error {
	if !c.IsDefault {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE currencies SET is_default = FALSE WHERE clinic_id = $1 AND id <> $2 AND is_default`, c.ClinicID, c.ID); err != nil {
		return fmt.Errorf("clear default currency: %w", err)
	}
	return nil
}
