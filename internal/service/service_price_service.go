package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

type servicePriceRepository interface {
	List(ctx context.Context, clinicID string, activeOnly bool, q models.PageQuery) ([]models.ServicePrice, int, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.ServicePrice, error)
	Create(ctx context.Context, p *models.ServicePrice) error
	Update(ctx context.Context, p *models.ServicePrice) error
	Delete(ctx context.Context, clinicID, id string) error
}

// ServicePriceService manages the clinic price list.
type ServicePriceService struct {
	repo      servicePriceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewServicePriceService constructs the service.
func NewServicePriceService(repo servicePriceRepository, validate *validator.Validate, logger *zap.Logger) *ServicePriceService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServicePriceService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of prices, optionally active ones only.
func (s *ServicePriceService) List(ctx context.Context, actor Actor, activeOnly bool, q models.PageQuery) (models.PagedResult[models.ServicePrice], error) {
	if err := actor.requireClinic(); err != nil {
		return models.PagedResult[models.ServicePrice]{}, err
	}
	items, total, err := s.repo.List(ctx, actor.ClinicID, activeOnly, q)
	if err != nil {
		return models.PagedResult[models.ServicePrice]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list service prices")
	}
	return models.NewPagedResult(items, total, q), nil
}

// Get returns one price.
func (s *ServicePriceService) Get(ctx context.Context, actor Actor, id string) (*models.ServicePrice, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service price not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service price")
	}
	return p, nil
}

// Create adds a price. Prices are active unless the payload says otherwise.
func (s *ServicePriceService) Create(ctx context.Context, actor Actor, req models.ServicePriceRequest) (*models.ServicePrice, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validator, req, "invalid service price payload"); err != nil {
		return nil, err
	}
	p := &models.ServicePrice{ClinicID: actor.ClinicID, Active: true}
	applyServicePrice(p, req)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create service price")
	}
	return p, nil
}

// Update replaces a price. A missing active flag keeps the stored value.
func (s *ServicePriceService) Update(ctx context.Context, actor Actor, id string, req models.ServicePriceRequest) (*models.ServicePrice, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validator, req, "invalid service price payload"); err != nil {
		return nil, err
	}
	applyServicePrice(existing, req)
	if err := s.repo.Update(ctx, existing); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service price not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update service price")
	}
	return existing, nil
}

// Delete removes a price.
func (s *ServicePriceService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "service price not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete service price")
	}
	return nil
}

func applyServicePrice(p *models.ServicePrice, req models.ServicePriceRequest) {
	p.ServiceName = req.ServiceName
	p.Description = req.Description
	p.Price = models.RoundMoney(req.Price)
	p.CurrencyID = req.CurrencyID
	p.DurationMinutes = req.DurationMinutes
	if req.Active != nil {
		p.Active = *req.Active
	}
}
