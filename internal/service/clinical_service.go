package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

type prescriptionRepository interface {
	List(ctx context.Context, filter models.ClinicalFilter) ([]models.Prescription, int, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.Prescription, error)
	Create(ctx context.Context, p *models.Prescription) error
	Update(ctx context.Context, p *models.Prescription) error
	Delete(ctx context.Context, clinicID, id string) error
}

type labResultRepository interface {
	List(ctx context.Context, filter models.ClinicalFilter) ([]models.LabResult, int, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.LabResult, error)
	Create(ctx context.Context, l *models.LabResult) error
	Update(ctx context.Context, l *models.LabResult) error
	Delete(ctx context.Context, clinicID, id string) error
}

// scopeClinical pins patients to their own records.
func scopeClinical(actor Actor, filter *models.ClinicalFilter) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	filter.ClinicID = actor.ClinicID
	if actor.IsPatient() {
		subject, err := actor.ownSubject()
		if err != nil {
			return err
		}
		filter.PatientID = subject
	}
	return nil
}

// PrescriptionService manages prescriptions. Doctors write their own; patients read their own.
type PrescriptionService struct {
	repo      prescriptionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPrescriptionService constructs the service.
func NewPrescriptionService(repo prescriptionRepository, validate *validator.Validate, logger *zap.Logger) *PrescriptionService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrescriptionService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of prescriptions visible to actor.
func (s *PrescriptionService) List(ctx context.Context, actor Actor, filter models.ClinicalFilter) (models.PagedResult[models.Prescription], error) {
	if err := scopeClinical(actor, &filter); err != nil {
		return models.PagedResult[models.Prescription]{}, err
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.PagedResult[models.Prescription]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prescriptions")
	}
	return models.NewPagedResult(items, total, filter.PageQuery), nil
}

// Get returns one prescription visible to actor.
func (s *PrescriptionService) Get(ctx context.Context, actor Actor, id string) (*models.Prescription, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "prescription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prescription")
	}
	if actor.IsPatient() && p.PatientID != actor.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "prescription not found")
	}
	return p, nil
}

// Create issues a prescription. A doctor always issues it under their own id.
func (s *PrescriptionService) Create(ctx context.Context, actor Actor, req models.PrescriptionRequest) (*models.Prescription, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	p := &models.Prescription{ClinicID: actor.ClinicID}
	if err := s.apply(actor, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create prescription")
	}
	return p, nil
}

// Update replaces a prescription. Doctors may only edit their own.
func (s *PrescriptionService) Update(ctx context.Context, actor Actor, id string, req models.PrescriptionRequest) (*models.Prescription, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.IsDoctor() && p.DoctorID != actor.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "prescription was issued by another doctor")
	}
	if err := s.apply(actor, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "prescription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update prescription")
	}
	return p, nil
}

// Delete removes a prescription. Doctors may only delete their own.
func (s *PrescriptionService) Delete(ctx context.Context, actor Actor, id string) error {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if actor.IsDoctor() && p.DoctorID != actor.SubjectID {
		return appErrors.Clone(appErrors.ErrForbidden, "prescription was issued by another doctor")
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "prescription not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prescription")
	}
	return nil
}

func (s *PrescriptionService) apply(actor Actor, p *models.Prescription, req models.PrescriptionRequest) error {
	if actor.IsDoctor() {
		subject, err := actor.ownSubject()
		if err != nil {
			return err
		}
		req.DoctorID = subject
	}
	if err := validation.Struct(s.validator, req, "invalid prescription payload"); err != nil {
		return err
	}
	if req.DoctorID == "" {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid prescription payload"), map[string]string{"doctor_id": "is required"})
	}
	p.PatientID = req.PatientID
	p.PatientName = req.PatientName
	p.DoctorID = req.DoctorID
	p.DoctorName = req.DoctorName
	p.AppointmentID = req.AppointmentID
	p.Medications = models.Medications(req.Medications)
	p.Notes = req.Notes
	if req.IssuedAt != nil {
		p.IssuedAt = req.IssuedAt.UTC()
	} else if p.IssuedAt.IsZero() {
		p.IssuedAt = time.Now().UTC()
	}
	return nil
}

// LabResultService manages laboratory results. Staff write; patients read their own.
type LabResultService struct {
	repo      labResultRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLabResultService constructs the service.
func NewLabResultService(repo labResultRepository, validate *validator.Validate, logger *zap.Logger) *LabResultService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabResultService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of lab results visible to actor.
func (s *LabResultService) List(ctx context.Context, actor Actor, filter models.ClinicalFilter) (models.PagedResult[models.LabResult], error) {
	if err := scopeClinical(actor, &filter); err != nil {
		return models.PagedResult[models.LabResult]{}, err
	}
	filter.DoctorID = ""
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.PagedResult[models.LabResult]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lab results")
	}
	return models.NewPagedResult(items, total, filter.PageQuery), nil
}

// Get returns one lab result visible to actor.
func (s *LabResultService) Get(ctx context.Context, actor Actor, id string) (*models.LabResult, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	l, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab result")
	}
	if actor.IsPatient() && l.PatientID != actor.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lab result not found")
	}
	return l, nil
}

// Create records a lab result.
func (s *LabResultService) Create(ctx context.Context, actor Actor, req models.LabResultRequest) (*models.LabResult, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	l := &models.LabResult{ClinicID: actor.ClinicID}
	if err := s.apply(l, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lab result")
	}
	return l, nil
}

// Update replaces a lab result.
func (s *LabResultService) Update(ctx context.Context, actor Actor, id string, req models.LabResultRequest) (*models.LabResult, error) {
	l, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(l, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lab result")
	}
	return l, nil
}

// Delete removes a lab result.
func (s *LabResultService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "lab result not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lab result")
	}
	return nil
}

func (s *LabResultService) apply(l *models.LabResult, req models.LabResultRequest) error {
	if err := validation.Struct(s.validator, req, "invalid lab result payload"); err != nil {
		return err
	}
	if req.ReportedAt != nil && req.ReportedAt.Before(req.CollectedAt) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid lab result payload"), map[string]string{"reported_at": "must not be before collected_at"})
	}
	l.PatientID = req.PatientID
	l.PatientName = req.PatientName
	l.TestName = req.TestName
	l.ResultValue = req.ResultValue
	l.Unit = req.Unit
	l.ReferenceRange = req.ReferenceRange
	l.Status = models.LabResultStatus(req.Status)
	l.CollectedAt = req.CollectedAt.UTC()
	l.ReportedAt = req.ReportedAt
	return nil
}
