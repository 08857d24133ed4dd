package models

import (
	"math"
	"time"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
)

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// Currency is a clinic-level currency definition.
type Currency struct {
	ID           string    `db:"id" json:"id"`
	ClinicID     string    `db:"clinic_id" json:"clinic_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Symbol       string    `db:"symbol" json:"symbol"`
	ExchangeRate float64   `db:"exchange_rate" json:"exchange_rate"`
	IsDefault    bool      `db:"is_default" json:"is_default"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CurrencyRequest creates or replaces a currency.
type CurrencyRequest struct {
	Code         string  `json:"code" validate:"required,currency_code"`
	Name         string  `json:"name" validate:"required,max=80"`
	Symbol       string  `json:"symbol" validate:"required,max=8"`
	ExchangeRate float64 `json:"exchange_rate" validate:"gt=0"`
	IsDefault    bool    `json:"is_default"`
}

// ServicePrice is the list price of a billable service.
type ServicePrice struct {
	ID              string    `db:"id" json:"id"`
	ClinicID        string    `db:"clinic_id" json:"clinic_id"`
	ServiceName     string    `db:"service_name" json:"service_name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Price           float64   `db:"price" json:"price"`
	CurrencyID      string    `db:"currency_id" json:"currency_id"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ServicePriceRequest creates or replaces a service price.
type ServicePriceRequest struct {
	ServiceName     string  `json:"service_name" validate:"required,max=120"`
	Description     *string `json:"description" validate:"omitempty,max=1000"`
	Price           float64 `json:"price" validate:"gte=0"`
	CurrencyID      string  `json:"currency_id" validate:"required,uuid"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Active          *bool   `json:"active"`
}

// SalaryStatus tracks payroll approval.
type SalaryStatus string

const (
	SalaryDraft    SalaryStatus = "DRAFT"
	SalaryApproved SalaryStatus = "APPROVED"
	SalaryPaid     SalaryStatus = "PAID"
)

// Salary is one staff member's pay for a month.
type Salary struct {
	ID         string       `db:"id" json:"id"`
	ClinicID   string       `db:"clinic_id" json:"clinic_id"`
	StaffID    string       `db:"staff_id" json:"staff_id"`
	StaffName  string       `db:"staff_name" json:"staff_name"`
	Period     string       `db:"period" json:"period"`
	BaseAmount float64      `db:"base_amount" json:"base_amount"`
	Allowances float64      `db:"allowances" json:"allowances"`
	Deductions float64      `db:"deductions" json:"deductions"`
	NetAmount  float64      `db:"net_amount" json:"net_amount"`
	CurrencyID string       `db:"currency_id" json:"currency_id"`
	Status     SalaryStatus `db:"status" json:"status"`
	PaidAt     *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// ComputeNet sets NetAmount from its parts.
func (s *Salary) ComputeNet() {
	s.NetAmount = RoundMoney(s.BaseAmount + s.Allowances - s.Deductions)
}

// SalaryRequest creates or replaces a salary row.
type SalaryRequest struct {
	StaffID    string  `json:"staff_id" validate:"required,uuid"`
	StaffName  string  `json:"staff_name" validate:"required,max=120"`
	Period     string  `json:"period" validate:"required,yearmonth"`
	BaseAmount float64 `json:"base_amount" validate:"gte=0"`
	Allowances float64 `json:"allowances" validate:"gte=0"`
	Deductions float64 `json:"deductions" validate:"gte=0"`
	CurrencyID string  `json:"currency_id" validate:"required,uuid"`
	Status     string  `json:"status" validate:"omitempty,oneof=DRAFT APPROVED PAID"`
}

// SalaryFilter narrows salary listings.
type SalaryFilter struct {
	ClinicID string
	StaffID  string
	Period   string
	Status   string
	PageQuery
}

// InvoiceStatus tracks billing.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceIssued    InvoiceStatus = "ISSUED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// Finalized reports whether the invoice can no longer change.
func (s InvoiceStatus) Finalized() bool {
	return s == InvoicePaid || s == InvoiceCancelled
}

// Invoice bills a patient.
type Invoice struct {
	ID            string        `db:"id" json:"id"`
	ClinicID      string        `db:"clinic_id" json:"clinic_id"`
	Number        string        `db:"number" json:"number"`
	PatientID     string        `db:"patient_id" json:"patient_id"`
	PatientName   string        `db:"patient_name" json:"patient_name"`
	AppointmentID *string       `db:"appointment_id" json:"appointment_id,omitempty"`
	IssueDate     calendar.Date `db:"issue_date" json:"issue_date"`
	DueDate       calendar.Date `db:"due_date" json:"due_date"`
	CurrencyID    string        `db:"currency_id" json:"currency_id"`
	Status        InvoiceStatus `db:"status" json:"status"`
	Total         float64       `db:"total" json:"total"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	Items         []InvoiceItem `db:"-" json:"items"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	ID          string  `db:"id" json:"id"`
	InvoiceID   string  `db:"invoice_id" json:"-"`
	Position    int     `db:"position" json:"position"`
	Description string  `db:"description" json:"description"`
	Quantity    int     `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	Amount      float64 `db:"amount" json:"amount"`
}

// ComputeTotal sets every line amount and the invoice total.
func (inv *Invoice) ComputeTotal() {
	var total float64
	for i := range inv.Items {
		inv.Items[i].Position = i + 1
		inv.Items[i].Amount = RoundMoney(float64(inv.Items[i].Quantity) * inv.Items[i].UnitPrice)
		total += inv.Items[i].Amount
	}
	inv.Total = RoundMoney(total)
}

// InvoiceItemRequest is one line in an invoice payload.
type InvoiceItemRequest struct {
	Description string  `json:"description" validate:"required,max=255"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// InvoiceRequest creates or replaces an invoice.
type InvoiceRequest struct {
	PatientID     string               `json:"patient_id" validate:"required,uuid"`
	PatientName   string               `json:"patient_name" validate:"required,max=120"`
	AppointmentID *string              `json:"appointment_id" validate:"omitempty,uuid"`
	IssueDate     string               `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate       string               `json:"due_date" validate:"required,datetime=2006-01-02"`
	CurrencyID    string               `json:"currency_id" validate:"required,uuid"`
	Status        string               `json:"status" validate:"omitempty,oneof=DRAFT ISSUED PAID CANCELLED"`
	Notes         *string              `json:"notes" validate:"omitempty,max=2000"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	ClinicID  string
	PatientID string
	Status    string
	DateFrom  *calendar.Date
	DateTo    *calendar.Date
	PageQuery
}
