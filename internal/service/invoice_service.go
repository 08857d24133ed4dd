package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

type invoiceRepository interface {
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.Invoice, error)
	Create(ctx context.Context, inv *models.Invoice) error
	Update(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, clinicID, id string) error
}

// InvoiceService bills patients.
type InvoiceService struct {
	repo      invoiceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInvoiceService constructs the invoice service.
func NewInvoiceService(repo invoiceRepository, validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of invoice headers. Patients only see their own.
func (s *InvoiceService) List(ctx context.Context, actor Actor, filter models.InvoiceFilter) (models.PagedResult[models.Invoice], error) {
	if err := actor.requireClinic(); err != nil {
		return models.PagedResult[models.Invoice]{}, err
	}
	filter.ClinicID = actor.ClinicID
	if actor.IsPatient() {
		subject, err := actor.ownSubject()
		if err != nil {
			return models.PagedResult[models.Invoice]{}, err
		}
		filter.PatientID = subject
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.PagedResult[models.Invoice]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	return models.NewPagedResult(items, total, filter.PageQuery), nil
}

// Get returns one invoice with its items.
func (s *InvoiceService) Get(ctx context.Context, actor Actor, id string) (*models.Invoice, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	inv, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if actor.IsPatient() && inv.PatientID != actor.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}
	return inv, nil
}

// Create issues a new invoice; the repository assigns its number.
func (s *InvoiceService) Create(ctx context.Context, actor Actor, req models.InvoiceRequest) (*models.Invoice, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	inv := &models.Invoice{ClinicID: actor.ClinicID, Status: models.InvoiceDraft}
	if err := s.apply(inv, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return inv, nil
}

// Update replaces an invoice and its items. Paid and cancelled invoices are frozen.
func (s *InvoiceService) Update(ctx context.Context, actor Actor, id string, req models.InvoiceRequest) (*models.Invoice, error) {
	inv, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if inv.Status.Finalized() {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "invoice is "+string(inv.Status)+" and cannot be edited")
	}
	if err := s.apply(inv, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	return inv, nil
}

// Delete removes an invoice that is not finalized.
func (s *InvoiceService) Delete(ctx context.Context, actor Actor, id string) error {
	inv, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if inv.Status.Finalized() {
		return appErrors.Clone(appErrors.ErrFinalized, "invoice is "+string(inv.Status)+" and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice")
	}
	return nil
}

func (s *InvoiceService) apply(inv *models.Invoice, req models.InvoiceRequest) error {
	if err := validation.Struct(s.validator, req, "invalid invoice payload"); err != nil {
		return err
	}
	issue, err := calendar.ParseDate(req.IssueDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue date")
	}
	due, err := calendar.ParseDate(req.DueDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
	}
	if due.Before(issue) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid invoice payload"), map[string]string{"due_date": "must not be before issue_date"})
	}

	inv.PatientID = req.PatientID
	inv.PatientName = req.PatientName
	inv.AppointmentID = req.AppointmentID
	inv.IssueDate = issue
	inv.DueDate = due
	inv.CurrencyID = req.CurrencyID
	inv.Notes = req.Notes
	if req.Status != "" {
		inv.Status = models.InvoiceStatus(req.Status)
	}
	inv.Items = make([]models.InvoiceItem, len(req.Items))
	for i, item := range req.Items {
		inv.Items[i] = models.InvoiceItem{Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	inv.ComputeTotal()
	return nil
}
