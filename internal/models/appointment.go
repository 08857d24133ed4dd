package models

import (
	"time"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
)

// AppointmentType classifies the visit.
type AppointmentType string

const (
	AppointmentNewPatient   AppointmentType = "NEW_PATIENT"
	AppointmentFollowUp     AppointmentType = "FOLLOW_UP"
	AppointmentConsultation AppointmentType = "CONSULTATION"
	AppointmentProcedure    AppointmentType = "PROCEDURE"
	AppointmentEmergency    AppointmentType = "EMERGENCY"
)

// AppointmentStatus tracks the visit lifecycle.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

// Appointment is a booked visit on a single day.
type Appointment struct {
	ID          string             `db:"id" json:"id"`
	ClinicID    string             `db:"clinic_id" json:"clinic_id"`
	PatientID   string             `db:"patient_id" json:"patient_id"`
	PatientName string             `db:"patient_name" json:"patient_name"`
	StaffID     string             `db:"staff_id" json:"staff_id"`
	StaffName   string             `db:"staff_name" json:"staff_name"`
	Date        calendar.Date      `db:"date" json:"date"`
	StartTime   calendar.TimeOfDay `db:"start_time" json:"start_time"`
	EndTime     calendar.TimeOfDay `db:"end_time" json:"end_time"`
	Type        AppointmentType    `db:"type" json:"type"`
	Status      AppointmentStatus  `db:"status" json:"status"`
	Notes       *string            `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// AppointmentCard is the display payload attached to calendar entries.
type AppointmentCard struct {
	PatientName string            `json:"patient_name"`
	StaffName   string            `json:"staff_name"`
	Status      AppointmentStatus `json:"status"`
}

// Entry converts the appointment into a calendar entry.
func (a Appointment) Entry() calendar.Entry {
	return calendar.Entry{
		ID:    a.ID,
		Date:  a.Date,
		Start: a.StartTime,
		End:   a.EndTime,
		Type:  string(a.Type),
		Payload: AppointmentCard{
			PatientName: a.PatientName,
			StaffName:   a.StaffName,
			Status:      a.Status,
		},
	}
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	ClinicID  string
	DateFrom  *calendar.Date
	DateTo    *calendar.Date
	StaffID   string
	PatientID string
	Type      string
	Status    string
	PageQuery
}

// CreateAppointmentRequest is the payload for booking a visit.
type CreateAppointmentRequest struct {
	PatientID   string  `json:"patient_id" validate:"required,uuid"`
	PatientName string  `json:"patient_name" validate:"required,max=120"`
	StaffID     string  `json:"staff_id" validate:"required,uuid"`
	StaffName   string  `json:"staff_name" validate:"required,max=120"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string  `json:"start_time" validate:"required,hhmm"`
	EndTime     string  `json:"end_time" validate:"required,hhmm"`
	Type        string  `json:"type" validate:"required,oneof=NEW_PATIENT FOLLOW_UP CONSULTATION PROCEDURE EMERGENCY"`
	Status      string  `json:"status" validate:"omitempty,oneof=SCHEDULED CONFIRMED COMPLETED CANCELLED NO_SHOW"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAppointmentRequest replaces the mutable fields of an appointment.
type UpdateAppointmentRequest struct {
	CreateAppointmentRequest
}

// WeekQuery drives the week view navigator.
type WeekQuery struct {
	Date                  string
	Nav                   string
	SelectedDate          string
	SelectedAppointmentID string
}

// WeekView is the week render model plus the resulting navigator state.
type WeekView struct {
	calendar.Week
	Navigator calendar.State `json:"navigator"`
	CacheHit  bool           `json:"-"`
}
