package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/jobs"
	"github.com/noah-isme/clinic-admin-api/pkg/storage"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

// JobKindExport tags export work on the job queue.
const JobKindExport = "export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, clinicID, id string) (*models.ExportJob, error)
	Update(ctx context.Context, params models.ExportJobUpdate) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFiles interface {
	ParseToken(token string, allowExpired bool) (storage.Grant, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup() ([]string, error)
	ContentType(format models.ExportFormat) string
}

// ExportJobServiceConfig governs queue recovery and cleanup.
type ExportJobServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved, opened export file.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService manages the export job lifecycle.
type ExportJobService struct {
	repo      exportJobStore
	queue     jobDispatcher
	files     exportFiles
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobServiceConfig
	now       func() time.Time
}

// NewExportJobService constructs the service.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, files exportFiles, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportJobServiceConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{repo: repo, queue: queue, files: files, metrics: metrics, validator: validate, logger: logger, cfg: cfg, now: time.Now}
}

// Create persists a job for the actor's clinic and hands it to the queue.
func (s *ExportJobService) Create(ctx context.Context, actor Actor, req models.CreateExportRequest) (*models.ExportJob, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validator, req, "invalid export payload"); err != nil {
		return nil, err
	}
	params := models.ExportParams{Format: models.ExportFormat(req.Format), DateFrom: req.DateFrom, DateTo: req.DateTo}
	if _, _, err := exportRange(params, s.now()); err != nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid export payload"), map[string]string{"date_to": "must not be before date_from"})
	}

	job := &models.ExportJob{
		ClinicID:  actor.ClinicID,
		Type:      models.ExportType(req.Type),
		Params:    params,
		Status:    models.ExportQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	s.metrics.RecordExportJob(job.Type, job.Status)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: JobKindExport}); err != nil {
		msg := "failed to enqueue job"
		s.finish(ctx, job.ID, job.Type, models.ExportFailed, &msg, nil)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Status returns a job of the actor's clinic. Staff only see jobs they created.
func (s *ExportJobService) Status(ctx context.Context, actor Actor, id string) (*models.ExportJob, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, actor.ClinicID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if actor.Role == models.RoleStaff && job.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// ResolveDownload verifies token and opens the file it grants.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	grant, err := s.files.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, "", grant.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.files.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not available")
	}
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(grant.Path),
		ContentType: s.files.ContentType(job.Params.Format),
		ExpiresAt:   grant.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left behind by a previous process.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: JobKindExport}); err != nil {
			s.logger.Warn("failed to requeue pending export job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("recovered export jobs", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup purges expired exports every CleanupInterval until ctx ends.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes files of jobs finished before the result TTL.
func (s *ExportJobService) CleanupExpired(ctx context.Context) {
	const batch = 100
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
	if err != nil {
		s.logger.Warn("export cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.FilePath == nil || *job.FilePath == "" {
			continue
		}
		if err := s.files.Delete(*job.FilePath); err != nil {
			s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		empty := ""
		if err := s.repo.Update(ctx, models.ExportJobUpdate{ID: job.ID, FilePath: &empty}); err != nil {
			s.logger.Warn("export cleanup update failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if removed, err := s.files.Cleanup(); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("removed expired export files", zap.Int("count", len(removed)))
	}
}

func (s *ExportJobService) finish(ctx context.Context, id string, kind models.ExportType, status models.ExportStatus, msg *string, result *ExportResult) {
	progress := 100
	now := s.now().UTC()
	update := models.ExportJobUpdate{ID: id, Status: &status, Progress: &progress, FinishedAt: &now, ErrorMessage: msg}
	if result != nil {
		update.FilePath = &result.RelativePath
		update.ResultURL = &result.URL
		update.ExpiresAt = &result.ExpiresAt
	}
	if err := s.repo.Update(ctx, update); err != nil {
		s.logger.Warn("failed to finalize export job", zap.String("job_id", id), zap.String("status", string(status)), zap.Error(err))
	}
	s.metrics.RecordExportJob(kind, status)
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// ExportWorker runs queued export jobs. Failed attempts return the error so the queue retries them.
type ExportWorker struct {
	jobs      *ExportJobService
	generator exportGenerator
	logger    *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(jobs *ExportJobService, generator exportGenerator, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{jobs: jobs, generator: generator, logger: logger}
}

// Handle processes one queue job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	repo := w.jobs.repo
	record, err := repo.GetByID(ctx, "", job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ExportFinished || record.Status == models.ExportFailed {
		return nil
	}

	processing := models.ExportProcessing
	progress := 10
	if err := repo.Update(ctx, models.ExportJobUpdate{ID: job.ID, Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	result, err := w.generator.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		queued := models.ExportQueued
		reset := 0
		if updateErr := repo.Update(ctx, models.ExportJobUpdate{ID: job.ID, Status: &queued, Progress: &reset, ErrorMessage: &msg}); updateErr != nil {
			w.logger.Warn("failed to mark export job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	clear := ""
	w.jobs.finish(ctx, job.ID, record.Type, models.ExportFinished, &clear, result)
	w.logger.Info("export job finished", zap.String("job_id", job.ID), zap.String("type", string(record.Type)), zap.String("path", result.RelativePath))
	return nil
}

// DeadLetter marks a job that exhausted its retries as failed.
func (w *ExportWorker) DeadLetter(ctx context.Context, job jobs.Job, cause error) {
	msg := "export failed"
	if cause != nil {
		msg = cause.Error()
	}
	kind := models.ExportType("")
	if record, err := w.jobs.repo.GetByID(ctx, "", job.ID); err == nil {
		kind = record.Type
	}
	w.jobs.finish(ctx, job.ID, kind, models.ExportFailed, &msg, nil)
}
