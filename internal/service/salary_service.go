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

type salaryRepository interface {
	List(ctx context.Context, filter models.SalaryFilter) ([]models.Salary, int, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.Salary, error)
	ExistsForPeriod(ctx context.Context, clinicID, staffID, period, excludeID string) (bool, error)
	Create(ctx context.Context, s *models.Salary) error
	Update(ctx context.Context, s *models.Salary) error
	Delete(ctx context.Context, clinicID, id string) error
}

// SalaryService manages staff payroll rows.
type SalaryService struct {
	repo      salaryRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSalaryService constructs the salary service.
func NewSalaryService(repo salaryRepository, validate *validator.Validate, logger *zap.Logger) *SalaryService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalaryService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns a page of salaries.
func (s *SalaryService) List(ctx context.Context, actor Actor, filter models.SalaryFilter) (models.PagedResult[models.Salary], error) {
	if err := actor.requireClinic(); err != nil {
		return models.PagedResult[models.Salary]{}, err
	}
	filter.ClinicID = actor.ClinicID
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.PagedResult[models.Salary]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salaries")
	}
	return models.NewPagedResult(items, total, filter.PageQuery), nil
}

// Get returns one salary.
func (s *SalaryService) Get(ctx context.Context, actor Actor, id string) (*models.Salary, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	row, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "salary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary")
	}
	return row, nil
}

// Create records a salary. One row per staff member and period.
func (s *SalaryService) Create(ctx context.Context, actor Actor, req models.SalaryRequest) (*models.Salary, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	row := &models.Salary{ClinicID: actor.ClinicID, Status: models.SalaryDraft}
	if err := s.apply(ctx, row, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create salary")
	}
	return row, nil
}

// Update replaces a salary.
func (s *SalaryService) Update(ctx context.Context, actor Actor, id string, req models.SalaryRequest) (*models.Salary, error) {
	row, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, row, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, row); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "salary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update salary")
	}
	return row, nil
}

// Delete removes a salary.
func (s *SalaryService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "salary not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete salary")
	}
	return nil
}

func (s *SalaryService) apply(ctx context.Context, row *models.Salary, req models.SalaryRequest) error {
	if err := validation.Struct(s.validator, req, "invalid salary payload"); err != nil {
		return err
	}
	exists, err := s.repo.ExistsForPeriod(ctx, row.ClinicID, req.StaffID, req.Period, row.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate salary period")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "salary already recorded for this period")
	}

	row.StaffID = req.StaffID
	row.StaffName = req.StaffName
	row.Period = req.Period
	row.BaseAmount = models.RoundMoney(req.BaseAmount)
	row.Allowances = models.RoundMoney(req.Allowances)
	row.Deductions = models.RoundMoney(req.Deductions)
	row.CurrencyID = req.CurrencyID
	row.ComputeNet()
	if row.NetAmount < 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid salary payload"), map[string]string{"deductions": "must not exceed base_amount plus allowances"})
	}

	if req.Status != "" {
		row.Status = models.SalaryStatus(req.Status)
	}
	if row.Status == models.SalaryPaid && row.PaidAt == nil {
		paid := s.now().UTC()
		row.PaidAt = &paid
	} else if row.Status != models.SalaryPaid {
		row.PaidAt = nil
	}
	return nil
}
