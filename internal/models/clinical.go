package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Medication is one prescribed drug.
type Medication struct {
	Name         string `json:"name" validate:"required,max=120"`
	Dosage       string `json:"dosage" validate:"required,max=60"`
	Frequency    string `json:"frequency" validate:"required,max=60"`
	DurationDays int    `json:"duration_days" validate:"gt=0,lte=365"`
}

// Medications is stored as a JSONB array.
type Medications []Medication

// Value marshals the list for persistence.
func (m Medications) Value() (driver.Value, error) {
	if m == nil {
		m = Medications{}
	}
	data, err := json.Marshal([]Medication(m))
	if err != nil {
		return nil, fmt.Errorf("marshal medications: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB array.
func (m *Medications) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = Medications{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Medications", value)
	}
	if len(data) == 0 {
		*m = Medications{}
		return nil
	}
	var out []Medication
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal medications: %w", err)
	}
	*m = out
	return nil
}

// Prescription is issued by a doctor to a patient.
type Prescription struct {
	ID            string      `db:"id" json:"id"`
	ClinicID      string      `db:"clinic_id" json:"clinic_id"`
	PatientID     string      `db:"patient_id" json:"patient_id"`
	PatientName   string      `db:"patient_name" json:"patient_name"`
	DoctorID      string      `db:"doctor_id" json:"doctor_id"`
	DoctorName    string      `db:"doctor_name" json:"doctor_name"`
	AppointmentID *string     `db:"appointment_id" json:"appointment_id,omitempty"`
	Medications   Medications `db:"medications" json:"medications"`
	Notes         *string     `db:"notes" json:"notes,omitempty"`
	IssuedAt      time.Time   `db:"issued_at" json:"issued_at"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// PrescriptionRequest creates or replaces a prescription. DoctorID is forced for doctors.
type PrescriptionRequest struct {
	PatientID     string       `json:"patient_id" validate:"required,uuid"`
	PatientName   string       `json:"patient_name" validate:"required,max=120"`
	DoctorID      string       `json:"doctor_id" validate:"omitempty,uuid"`
	DoctorName    string       `json:"doctor_name" validate:"required,max=120"`
	AppointmentID *string      `json:"appointment_id" validate:"omitempty,uuid"`
	Medications   []Medication `json:"medications" validate:"required,min=1,dive"`
	Notes         *string      `json:"notes" validate:"omitempty,max=2000"`
	IssuedAt      *time.Time   `json:"issued_at"`
}

// ClinicalFilter narrows prescription and lab result listings.
type ClinicalFilter struct {
	ClinicID  string
	PatientID string
	DoctorID  string
	Status    string
	PageQuery
}

// LabResultStatus tracks reporting state.
type LabResultStatus string

const (
	LabResultPending LabResultStatus = "PENDING"
	LabResultFinal   LabResultStatus = "FINAL"
	LabResultAmended LabResultStatus = "AMENDED"
)

// LabResult is one reported laboratory test.
type LabResult struct {
	ID             string          `db:"id" json:"id"`
	ClinicID       string          `db:"clinic_id" json:"clinic_id"`
	PatientID      string          `db:"patient_id" json:"patient_id"`
	PatientName    string          `db:"patient_name" json:"patient_name"`
	TestName       string          `db:"test_name" json:"test_name"`
	ResultValue    string          `db:"result_value" json:"result_value"`
	Unit           *string         `db:"unit" json:"unit,omitempty"`
	ReferenceRange *string         `db:"reference_range" json:"reference_range,omitempty"`
	Status         LabResultStatus `db:"status" json:"status"`
	CollectedAt    time.Time       `db:"collected_at" json:"collected_at"`
	ReportedAt     *time.Time      `db:"reported_at" json:"reported_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// LabResultRequest creates or replaces a lab result.
type LabResultRequest struct {
	PatientID      string     `json:"patient_id" validate:"required,uuid"`
	PatientName    string     `json:"patient_name" validate:"required,max=120"`
	TestName       string     `json:"test_name" validate:"required,max=120"`
	ResultValue    string     `json:"result_value" validate:"max=255"`
	Unit           *string    `json:"unit" validate:"omitempty,max=30"`
	ReferenceRange *string    `json:"reference_range" validate:"omitempty,max=60"`
	Status         string     `json:"status" validate:"required,oneof=PENDING FINAL AMENDED"`
	CollectedAt    time.Time  `json:"collected_at" validate:"required"`
	ReportedAt     *time.Time `json:"reported_at"`
}
