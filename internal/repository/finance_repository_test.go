package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
)

func TestInvoiceCreateNumbersWithinTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("c1INV-202610-").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM invoices WHERE clinic_id = $1 AND number LIKE $2")).
		WithArgs("c1", "INV-202610-%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectExec("INSERT INTO invoices").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO invoice_items").WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectCommit()

	inv := &models.Invoice{
		ClinicID:  "c1",
		IssueDate: calendar.NewDate(2026, time.October, 15),
		DueDate:   calendar.NewDate(2026, time.October, 30),
		Items: []models.InvoiceItem{
			{Description: "Consultation", Quantity: 1, UnitPrice: 50},
			{Description: "Lab panel", Quantity: 2, UnitPrice: 12.5},
		},
	}
	inv.ComputeTotal()
	require.NoError(t, repo.Create(context.Background(), inv))
	assert.Equal(t, "INV-202610-000042", inv.Number)
	for _, item := range inv.Items {
		assert.Equal(t, inv.ID, item.InvoiceID)
		assert.NotEmpty(t, item.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceUpdateReplacesItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoice_items WHERE invoice_id = $1")).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO invoice_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	inv := &models.Invoice{ID: "i1", ClinicID: "c1", Items: []models.InvoiceItem{{Description: "Follow-up", Quantity: 1, UnitPrice: 30}}}
	require.NoError(t, repo.Update(context.Background(), inv))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceListRangeAttachesItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	now := time.Now()
	headers := sqlmock.NewRows([]string{"id", "clinic_id", "number", "patient_id", "patient_name", "appointment_id", "issue_date", "due_date", "currency_id", "status", "total", "notes", "created_at", "updated_at"}).
		AddRow("i1", "c1", "INV-202610-000001", "p1", "Pat", nil, "2026-10-01", "2026-10-15", "cur", "ISSUED", 75.0, nil, now, now).
		AddRow("i2", "c1", "INV-202610-000002", "p2", "Sam", nil, "2026-10-02", "2026-10-16", "cur", "DRAFT", 0.0, nil, now, now)
	mock.ExpectQuery("FROM invoices WHERE clinic_id = \\$1 AND issue_date >= \\$2").WillReturnRows(headers)
	items := sqlmock.NewRows([]string{"id", "invoice_id", "position", "description", "quantity", "unit_price", "amount"}).
		AddRow("it1", "i1", 1, "Consultation", 1, 50.0, 50.0).
		AddRow("it2", "i1", 2, "Lab panel", 2, 12.5, 25.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM invoice_items WHERE invoice_id = ANY($1)")).WillReturnRows(items)

	invoices, err := repo.ListRange(context.Background(), "c1", calendar.NewDate(2026, time.October, 1), calendar.NewDate(2026, time.October, 31))
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Len(t, invoices[0].Items, 2)
	assert.Empty(t, invoices[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyCreateDefaultClearsPrevious(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCurrencyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE currencies SET is_default = FALSE WHERE clinic_id = $1 AND id <> $2 AND is_default")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO currencies").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), &models.Currency{ClinicID: "c1", Code: "EUR", Name: "Euro", ExchangeRate: 1, IsDefault: true}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyExistsByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCurrencyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM currencies WHERE clinic_id = $1 AND code = $2 AND id <> $3 LIMIT 1")).
		WithArgs("c1", "USD", "cur-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByCode(context.Background(), "c1", "USD", "cur-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryExistsForPeriod(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM salaries WHERE clinic_id = $1 AND staff_id = $2 AND period = $3 LIMIT 1")).
		WithArgs("c1", "s1", "2026-09").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForPeriod(context.Background(), "c1", "s1", "2026-09", "")
	require.NoError(t, err)
	assert.True(t, exists)
}
