package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

type currencyRepository interface {
	List(ctx context.Context, clinicID string, q models.PageQuery) ([]models.Currency, int, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.Currency, error)
	ExistsByCode(ctx context.Context, clinicID, code, excludeID string) (bool, error)
	Create(ctx context.Context, c *models.Currency) error
	Update(ctx context.Context, c *models.Currency) error
	Delete(ctx context.Context, clinicID, id string) error
}

// CurrencyService manages the currencies a clinic bills in.
type CurrencyService struct {
	repo      currencyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCurrencyService constructs the currency service.
func NewCurrencyService(repo currencyRepository, validate *validator.Validate, logger *zap.Logger) *CurrencyService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurrencyService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of currencies.
func (s *CurrencyService) List(ctx context.Context, actor Actor, q models.PageQuery) (models.PagedResult[models.Currency], error) {
	if err := actor.requireClinic(); err != nil {
		return models.PagedResult[models.Currency]{}, err
	}
	items, total, err := s.repo.List(ctx, actor.ClinicID, q)
	if err != nil {
		return models.PagedResult[models.Currency]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list currencies")
	}
	return models.NewPagedResult(items, total, q), nil
}

// Get returns one currency.
func (s *CurrencyService) Get(ctx context.Context, actor Actor, id string) (*models.Currency, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "currency not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load currency")
	}
	return c, nil
}

// Create adds a currency. Codes are unique per clinic.
func (s *CurrencyService) Create(ctx context.Context, actor Actor, req models.CurrencyRequest) (*models.Currency, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := validation.Struct(s.validator, req, "invalid currency payload"); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, actor.ClinicID, req.Code, ""); err != nil {
		return nil, err
	}
	c := &models.Currency{
		ClinicID:     actor.ClinicID,
		Code:         req.Code,
		Name:         req.Name,
		Symbol:       req.Symbol,
		ExchangeRate: req.ExchangeRate,
		IsDefault:    req.IsDefault,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create currency")
	}
	return c, nil
}

// Update replaces a currency.
func (s *CurrencyService) Update(ctx context.Context, actor Actor, id string, req models.CurrencyRequest) (*models.Currency, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := validation.Struct(s.validator, req, "invalid currency payload"); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, actor.ClinicID, req.Code, id); err != nil {
		return nil, err
	}
	existing.Code = req.Code
	existing.Name = req.Name
	existing.Symbol = req.Symbol
	existing.ExchangeRate = req.ExchangeRate
	existing.IsDefault = req.IsDefault
	if err := s.repo.Update(ctx, existing); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "currency not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update currency")
	}
	return existing, nil
}

// Delete removes a currency.
func (s *CurrencyService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "currency not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete currency")
	}
	return nil
}

func (s *CurrencyService) ensureUniqueCode(ctx context.Context, clinicID, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, clinicID, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate currency code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "currency code already exists")
	}
	return nil
}
