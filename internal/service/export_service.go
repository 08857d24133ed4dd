package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/pkg/export"
	"github.com/noah-isme/clinic-admin-api/pkg/storage"
)

type exportAppointmentSource interface {
	ListRange(ctx context.Context, clinicID string, from, to calendar.Date) ([]models.Appointment, error)
}

type exportInvoiceSource interface {
	ListRange(ctx context.Context, clinicID string, from, to calendar.Date) ([]models.Invoice, error)
}

type exportSalarySource interface {
	ListPeriods(ctx context.Context, clinicID string, periods []string) ([]models.Salary, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportSources groups the repositories datasets are read from.
type ExportSources struct {
	Appointments exportAppointmentSource
	Invoices     exportInvoiceSource
	Salaries     exportSalarySource
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds datasets for export jobs and persists the rendered files.
type ExportService struct {
	sources   ExportSources
	storage   fileStorage
	renderers map[models.ExportFormat]export.Renderer
	signer    *storage.Signer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(sources ExportSources, files fileStorage, signer *storage.Signer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		sources: sources,
		storage: files,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportCSV: export.NewCSVRenderer(),
			models.ExportPDF: export.NewPDFRenderer(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate builds the job's dataset, renders it and stores the file behind a signed token.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("export job is nil")
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
	table, err := s.buildTable(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(table)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Type, err)
	}

	name := job.ClinicID + "/" + export.FileName(string(job.Type), renderer.Extension(), s.now())
	relPath, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, err
	}

	token, grant, err := s.signer.Issue(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    grant.ExpiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than the result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// ContentType returns the MIME type of a format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if r, ok := s.renderers[format]; ok {
		return r.ContentType()
	}
	return "application/octet-stream"
}

func (s *ExportService) buildTable(ctx context.Context, job *models.ExportJob) (export.Table, error) {
	from, to, err := exportRange(job.Params, s.now())
	if err != nil {
		return export.Table{}, err
	}
	period := fmt.Sprintf("%s to %s", from, to)

	switch job.Type {
	case models.ExportAppointments:
		if s.sources.Appointments == nil {
			return export.Table{}, fmt.Errorf("appointment source not configured")
		}
		appts, err := s.sources.Appointments.ListRange(ctx, job.ClinicID, from, to)
		if err != nil {
			return export.Table{}, fmt.Errorf("load appointments: %w", err)
		}
		return appointmentTable(appts, period), nil
	case models.ExportInvoices:
		if s.sources.Invoices == nil {
			return export.Table{}, fmt.Errorf("invoice source not configured")
		}
		invoices, err := s.sources.Invoices.ListRange(ctx, job.ClinicID, from, to)
		if err != nil {
			return export.Table{}, fmt.Errorf("load invoices: %w", err)
		}
		return invoiceTable(invoices, period), nil
	case models.ExportSalaries:
		if s.sources.Salaries == nil {
			return export.Table{}, fmt.Errorf("salary source not configured")
		}
		salaries, err := s.sources.Salaries.ListPeriods(ctx, job.ClinicID, periodsBetween(from, to))
		if err != nil {
			return export.Table{}, fmt.Errorf("load salaries: %w", err)
		}
		return salaryTable(salaries, period), nil
	default:
		return export.Table{}, fmt.Errorf("unsupported export type %q", job.Type)
	}
}

// exportRange defaults to the month containing now.
func exportRange(p models.ExportParams, now time.Time) (calendar.Date, calendar.Date, error) {
	today := calendar.DateOf(now)
	from := today.AddDays(1 - now.Day())
	to := today
	if p.DateFrom != "" {
		d, err := calendar.ParseDate(p.DateFrom)
		if err != nil {
			return from, to, fmt.Errorf("invalid date_from: %w", err)
		}
		from = d
	}
	if p.DateTo != "" {
		d, err := calendar.ParseDate(p.DateTo)
		if err != nil {
			return from, to, fmt.Errorf("invalid date_to: %w", err)
		}
		to = d
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("date_to %s is before date_from %s", to, from)
	}
	return from, to, nil
}

// periodsBetween lists the yyyy-MM salary periods touched by [from, to].
func periodsBetween(from, to calendar.Date) []string {
	start := from.In(time.UTC)
	end := to.In(time.UTC)
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	var periods []string
	for !cursor.After(end) {
		periods = append(periods, cursor.Format("2006-01"))
		cursor = cursor.AddDate(0, 1, 0)
	}
	return periods
}

func appointmentTable(appts []models.Appointment, period string) export.Table {
	t := export.Table{
		Title: "Appointments " + period,
		Columns: []export.Column{
			{Key: "date", Label: "Date"},
			{Key: "start", Label: "Start"},
			{Key: "end", Label: "End"},
			{Key: "patient", Label: "Patient"},
			{Key: "staff", Label: "Staff"},
			{Key: "type", Label: "Type"},
			{Key: "status", Label: "Status"},
		},
	}
	for _, a := range appts {
		t.Rows = append(t.Rows, map[string]string{
			"date":    a.Date.Key(),
			"start":   a.StartTime.String(),
			"end":     a.EndTime.String(),
			"patient": a.PatientName,
			"staff":   a.StaffName,
			"type":    string(a.Type),
			"status":  string(a.Status),
		})
	}
	return t
}

func invoiceTable(invoices []models.Invoice, period string) export.Table {
	t := export.Table{
		Title: "Invoices " + period,
		Columns: []export.Column{
			{Key: "number", Label: "Number"},
			{Key: "patient", Label: "Patient"},
			{Key: "issue_date", Label: "Issued"},
			{Key: "due_date", Label: "Due"},
			{Key: "items", Label: "Items"},
			{Key: "total", Label: "Total"},
			{Key: "status", Label: "Status"},
		},
	}
	for _, inv := range invoices {
		t.Rows = append(t.Rows, map[string]string{
			"number":     inv.Number,
			"patient":    inv.PatientName,
			"issue_date": inv.IssueDate.Key(),
			"due_date":   inv.DueDate.Key(),
			"items":      fmt.Sprintf("%d", len(inv.Items)),
			"total":      fmt.Sprintf("%.2f", inv.Total),
			"status":     string(inv.Status),
		})
	}
	return t
}

func salaryTable(salaries []models.Salary, period string) export.Table {
	t := export.Table{
		Title: "Salaries " + period,
		Columns: []export.Column{
			{Key: "period", Label: "Period"},
			{Key: "staff", Label: "Staff"},
			{Key: "base", Label: "Base"},
			{Key: "allowances", Label: "Allowances"},
			{Key: "deductions", Label: "Deductions"},
			{Key: "net", Label: "Net"},
			{Key: "status", Label: "Status"},
		},
	}
	for _, s := range salaries {
		t.Rows = append(t.Rows, map[string]string{
			"period":     s.Period,
			"staff":      s.StaffName,
			"base":       fmt.Sprintf("%.2f", s.BaseAmount),
			"allowances": fmt.Sprintf("%.2f", s.Allowances),
			"deductions": fmt.Sprintf("%.2f", s.Deductions),
			"net":        fmt.Sprintf("%.2f", s.NetAmount),
			"status":     string(s.Status),
		})
	}
	return t
}
