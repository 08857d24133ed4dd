package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportType enumerates exportable datasets.
type ExportType string

const (
	ExportInvoices     ExportType = "invoices"
	ExportSalaries     ExportType = "salaries"
	ExportAppointments ExportType = "appointments"
)

// ExportFormat enumerates output formats.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportStatus captures the job lifecycle.
type ExportStatus string

const (
	ExportQueued     ExportStatus = "QUEUED"
	ExportProcessing ExportStatus = "PROCESSING"
	ExportFinished   ExportStatus = "FINISHED"
	ExportFailed     ExportStatus = "FAILED"
)

// ExportJob is a persisted export request.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	ClinicID     string       `db:"clinic_id" json:"clinic_id"`
	Type         ExportType   `db:"type" json:"type"`
	Params       ExportParams `db:"params" json:"params"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	FilePath     *string      `db:"file_path" json:"-"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	ExpiresAt    *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
}

// ExportParams is persisted as JSONB.
type ExportParams struct {
	Format   ExportFormat `json:"format"`
	DateFrom string       `json:"date_from,omitempty"`
	DateTo   string       `json:"date_to,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ExportParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportParams) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = ExportParams{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportParams", value)
	}
	if len(data) == 0 {
		*p = ExportParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export params: %w", err)
	}
	return nil
}

// CreateExportRequest is the POST /exports payload.
type CreateExportRequest struct {
	Type     string `json:"type" validate:"required,oneof=invoices salaries appointments"`
	Format   string `json:"format" validate:"required,oneof=csv pdf"`
	DateFrom string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// ExportJobUpdate carries the mutable columns of an export job.
type ExportJobUpdate struct {
	ID           string
	Status       *ExportStatus
	Progress     *int
	FilePath     *string
	ResultURL    *string
	ExpiresAt    *time.Time
	FinishedAt   *time.Time
	ErrorMessage *string
}
