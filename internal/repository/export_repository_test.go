package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-admin-api/internal/models"
)

var exportRowColumns = []string{"id", "clinic_id", "type", "params", "status", "progress", "file_path", "result_url", "expires_at", "created_by", "created_at", "finished_at", "error_message"}

func TestExportCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec("INSERT INTO export_jobs").WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{ClinicID: "c1", Type: models.ExportInvoices, Params: models.ExportParams{Format: models.ExportCSV}, CreatedBy: "u1"}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportQueued, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportGetByIDScopesClinic(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(exportRowColumns).
		AddRow("e1", "c1", "salaries", []byte(`{"format":"pdf","date_from":"2026-01-01"}`), "QUEUED", 0, nil, nil, nil, "u1", now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE id = $1 AND clinic_id = $2")).
		WithArgs("e1", "c1").
		WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "c1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportPDF, job.Params.Format)
	assert.Equal(t, "2026-01-01", job.Params.DateFrom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportUpdateSetsOnlyProvidedColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	status := models.ExportFinished
	progress := 100
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, progress = $2 WHERE id = $3")).
		WithArgs(status, progress, "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), models.ExportJobUpdate{ID: "e1", Status: &status, Progress: &progress}))
	require.NoError(t, repo.Update(context.Background(), models.ExportJobUpdate{ID: "e1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportListQueuedIncludesInterrupted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(exportRowColumns))

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
