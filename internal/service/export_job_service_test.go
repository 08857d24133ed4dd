package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/jobs"
)

type exportJobStoreStub struct {
	jobs    map[string]*models.ExportJob
	updates []models.ExportJobUpdate
	seq     int
}

func newExportJobStore() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	s.seq++
	job.ID = fmt.Sprintf("job-%d", s.seq)
	job.CreatedAt = fixedNow
	copy := *job
	s.jobs[job.ID] = &copy
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, clinicID, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok || (clinicID != "" && job.ClinicID != clinicID) {
		return nil, errNoRows
	}
	copy := *job
	return &copy, nil
}

func (s *exportJobStoreStub) Update(ctx context.Context, params models.ExportJobUpdate) error {
	s.updates = append(s.updates, params)
	job, ok := s.jobs[params.ID]
	if !ok {
		return errNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.FilePath != nil {
		job.FilePath = params.FilePath
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ExpiresAt != nil {
		job.ExpiresAt = params.ExpiresAt
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportQueued && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

type dispatcherStub struct {
	enqueued []jobs.Job
	err      error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	return nil, g.err
}

func newExportFixture(t *testing.T) (*ExportJobService, *ExportService, *exportJobStoreStub, *dispatcherStub, *MetricsService) {
	t.Helper()
	store := newExportJobStore()
	queue := &dispatcherStub{}
	repo := &appointmentRepoStub{items: []models.Appointment{appt("a1", "p1", "2026-10-05", "09:00", "09:30")}}
	generator, _ := newTestExportService(t, ExportSources{Appointments: repo})
	metrics := NewMetricsService()
	svc := NewExportJobService(store, queue, generator, metrics, nil, nil, ExportJobServiceConfig{ResultTTL: time.Hour})
	svc.now = func() time.Time { return fixedNow }
	return svc, generator, store, queue, metrics
}

func TestExportJobCreateEnqueues(t *testing.T) {
	svc, _, store, queue, _ := newExportFixture(t)

	job, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "appointments", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportQueued, job.Status)
	assert.Equal(t, "u1", job.CreatedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, jobs.Job{ID: job.ID, Kind: JobKindExport}, queue.enqueued[0])
	assert.Contains(t, store.jobs, job.ID)
}

func TestExportJobCreateValidation(t *testing.T) {
	svc, _, _, _, _ := newExportFixture(t)

	_, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "payroll", Format: "csv"})
	assert.Contains(t, appErrors.FromError(err).Details, "type")

	_, err = svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "invoices", Format: "csv", DateFrom: "2026-10-10", DateTo: "2026-10-01"})
	assert.Equal(t, "must not be before date_from", appErrors.FromError(err).Details["date_to"])
}

func TestExportJobCreateEnqueueFailureMarksFailed(t *testing.T) {
	svc, _, store, queue, _ := newExportFixture(t)
	queue.err = errors.New("queue full")

	_, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "appointments", Format: "csv"})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.ExportFailed, store.jobs["job-1"].Status)
}

func TestExportJobStatusScopesStaffToOwnJobs(t *testing.T) {
	svc, _, _, _, _ := newExportFixture(t)
	job, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "appointments", Format: "csv"})
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), Actor{UserID: "u2", ClinicID: "c1", Role: models.RoleStaff}, job.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	got, err := svc.Status(context.Background(), Actor{UserID: "u-admin", ClinicID: "c1", Role: models.RoleAdmin}, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = svc.Status(context.Background(), Actor{UserID: "u1", ClinicID: "c2", Role: models.RoleStaff}, job.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerGeneratesAndDownloads(t *testing.T) {
	svc, generator, store, _, metrics := newExportFixture(t)
	job, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "appointments", Format: "csv"})
	require.NoError(t, err)

	worker := NewExportWorker(svc, generator, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Kind: JobKindExport}))

	done := store.jobs[job.ID]
	assert.Equal(t, models.ExportFinished, done.Status)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.ResultURL)
	require.NotNil(t, done.FilePath)

	token := (*done.ResultURL)[len("/api/v1/exports/download/"):]
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "appointments_20261015T103000Z.csv", download.Filename)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "2026-10-05")

	// A finished job is not processed twice.
	updates := len(store.updates)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))
	assert.Len(t, store.updates, updates)

	_, err = svc.ResolveDownload(context.Background(), token+"x")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.exportJobs.WithLabelValues("appointments", "FINISHED")))
}

func TestExportDownloadRequiresFinishedJob(t *testing.T) {
	svc, generator, store, _, _ := newExportFixture(t)
	job, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "appointments", Format: "csv"})
	require.NoError(t, err)

	result, err := generator.Generate(context.Background(), store.jobs[job.ID])
	require.NoError(t, err)

	_, err = svc.ResolveDownload(context.Background(), result.Token)
	assert.Equal(t, "export not ready", appErrors.FromError(err).Message)
}

func TestExportWorkerRetryThenDeadLetter(t *testing.T) {
	svc, _, store, _, _ := newExportFixture(t)
	job, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "invoices", Format: "pdf"})
	require.NoError(t, err)

	worker := NewExportWorker(svc, failingGenerator{err: errors.New("db timeout")}, nil)
	err = worker.Handle(context.Background(), jobs.Job{ID: job.ID})
	require.Error(t, err)
	stored := store.jobs[job.ID]
	assert.Equal(t, models.ExportQueued, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "db timeout", *stored.ErrorMessage)

	worker.DeadLetter(context.Background(), jobs.Job{ID: job.ID}, err)
	assert.Equal(t, models.ExportFailed, stored.Status)
	assert.NotNil(t, stored.FinishedAt)

	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "missing"}))
}

func TestRecoverPendingJobs(t *testing.T) {
	svc, _, store, queue, _ := newExportFixture(t)
	store.jobs["q1"] = &models.ExportJob{ID: "q1", Status: models.ExportQueued}
	store.jobs["q2"] = &models.ExportJob{ID: "q2", Status: models.ExportQueued}
	store.jobs["f1"] = &models.ExportJob{ID: "f1", Status: models.ExportFinished}

	assert.Equal(t, 2, svc.RecoverPendingJobs(context.Background()))
	assert.Len(t, queue.enqueued, 2)
}

func TestCleanupExpiredRemovesFiles(t *testing.T) {
	svc, generator, store, _, _ := newExportFixture(t)
	job, err := svc.Create(context.Background(), staffActor, models.CreateExportRequest{Type: "appointments", Format: "csv"})
	require.NoError(t, err)
	worker := NewExportWorker(svc, generator, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))

	path := *store.jobs[job.ID].FilePath
	svc.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	old := fixedNow.Add(-2 * time.Hour)
	store.jobs[job.ID].FinishedAt = &old

	svc.CleanupExpired(context.Background())
	assert.Equal(t, "", *store.jobs[job.ID].FilePath)
	_, err = generator.Open(path)
	assert.Error(t, err)
}
