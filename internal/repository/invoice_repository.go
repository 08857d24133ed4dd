package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/pkg/database"
)

const invoiceColumns = `id, clinic_id, number, patient_id, patient_name, appointment_id, issue_date, due_date, currency_id, status, total, notes, created_at, updated_at`

const invoiceItemColumns = `id, invoice_id, position, description, quantity, unit_price, amount`

var invoiceSorts = sortSpec{
	columns:   map[string]string{"number": "number", "issue_date": "issue_date", "due_date": "due_date", "total": "total", "status": "status", "patient_name": "patient_name"},
	fallback:  "issue_date",
	direction: "DESC",
}

// InvoiceRepository persists invoices and their line items.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs an InvoiceRepository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// List returns a page of invoice headers. Items are not loaded.
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error) {
	w := newWhere("clinic_id", filter.ClinicID)
	w.eqIf("patient_id", filter.PatientID)
	w.eqIf("status", filter.Status)
	if filter.DateFrom != nil {
		w.add("issue_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		w.add("issue_date <= ?", *filter.DateTo)
	}
	w.search(filter.SearchValue, "number", "patient_name")

	var items []models.Invoice
	query := fmt.Sprintf("SELECT %s FROM invoices %s %s", invoiceColumns, w, invoiceSorts.page(filter.PageQuery))
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", w), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return items, total, nil
}

// ListRange returns invoices issued between from and to inclusive, with items.
func (r *InvoiceRepository) ListRange(ctx context.Context, clinicID string, from, to calendar.Date) ([]models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE clinic_id = $1 AND issue_date >= $2 AND issue_date <= $3 ORDER BY issue_date, number", invoiceColumns)
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, clinicID, from, to); err != nil {
		return nil, fmt.Errorf("list invoices in range: %w", err)
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	ids := make([]string, len(invoices))
	index := make(map[string]int, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		index[inv.ID] = i
	}
	var items []models.InvoiceItem
	itemQuery := fmt.Sprintf("SELECT %s FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, position", invoiceItemColumns)
	if err := r.db.SelectContext(ctx, &items, itemQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	for _, item := range items {
		i := index[item.InvoiceID]
		invoices[i].Items = append(invoices[i].Items, item)
	}
	return invoices, nil
}

// FindByID fetches an invoice with its items.
func (r *InvoiceRepository) FindByID(ctx context.Context, clinicID, id string) (*models.Invoice, error) {
	var inv models.Invoice
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE clinic_id = $1 AND id = $2", invoiceColumns)
	if err := r.db.GetContext(ctx, &inv, query, clinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	itemQuery := fmt.Sprintf("SELECT %s FROM invoice_items WHERE invoice_id = $1 ORDER BY position", invoiceItemColumns)
	if err := r.db.SelectContext(ctx, &inv.Items, itemQuery, inv.ID); err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	return &inv, nil
}

// Create numbers the invoice and inserts it with its items in one transaction.
// Numbers are INV-YYYYMM-NNNNNN, sequential per clinic and issue month.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		number, err := nextInvoiceNumber(ctx, tx, inv.ClinicID, inv.IssueDate)
		if err != nil {
			return err
		}
		inv.Number = number
		const query = `INSERT INTO invoices (id, clinic_id, number, patient_id, patient_name, appointment_id, issue_date, due_date, currency_id, status, total, notes, created_at, updated_at)
        VALUES (:id, :clinic_id, :number, :patient_id, :patient_name, :appointment_id, :issue_date, :due_date, :currency_id, :status, :total, :notes, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return insertInvoiceItems(ctx, tx, inv)
	})
}

// Update replaces the header and all items in one transaction. It returns sql.ErrNoRows when nothing matched.
func (r *InvoiceRepository) Update(ctx context.Context, inv *models.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `UPDATE invoices SET patient_id = :patient_id, patient_name = :patient_name, appointment_id = :appointment_id, issue_date = :issue_date,
        due_date = :due_date, currency_id = :currency_id, status = :status, total = :total, notes = :notes, updated_at = :updated_at
        WHERE clinic_id = :clinic_id AND id = :id`
		res, err := tx.NamedExecContext(ctx, query, inv)
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("clear invoice items: %w", err)
		}
		return insertInvoiceItems(ctx, tx, inv)
	})
}

// Delete removes an invoice; items cascade.
func (r *InvoiceRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return expectAffected(res)
}

func nextInvoiceNumber(ctx context.Context, tx *sqlx.Tx, clinicID string, issued calendar.Date) (string, error) {
	prefix := "INV-" + issued.In(time.UTC).Format("200601") + "-"
	// serialise numbering per clinic and month until commit
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, clinicID+prefix); err != nil {
		return "", fmt.Errorf("lock invoice sequence: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices WHERE clinic_id = $1 AND number LIKE $2`, clinicID, prefix+"%"); err != nil {
		return "", fmt.Errorf("count invoices for sequence: %w", err)
	}
	return fmt.Sprintf("%s%06d", prefix, count+1), nil
}

func insertInvoiceItems(ctx context.Context, tx *sqlx.Tx, inv *models.Invoice) error {
	if len(inv.Items) == 0 {
		return nil
	}
	for i := range inv.Items {
		if inv.Items[i].ID == "" {
			inv.Items[i].ID = uuid.NewString()
		}
		inv.Items[i].InvoiceID = inv.ID
	}
	const query = `INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, amount)
        VALUES (:id, :invoice_id, :position, :description, :quantity, :unit_price, :amount)`
	if _, err := tx.NamedExecContext(ctx, query, inv.Items); err != nil {
		return fmt.Errorf("insert invoice items: %w", err)
	}
	return nil
}
