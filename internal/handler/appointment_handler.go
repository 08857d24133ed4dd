package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-admin-api/internal/middleware"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	"github.com/noah-isme/clinic-admin-api/pkg/response"
)

type appointmentService interface {
	List(ctx context.Context, actor service.Actor, filter models.AppointmentFilter) (models.PagedResult[models.Appointment], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Appointment, error)
	Create(ctx context.Context, actor service.Actor, req models.CreateAppointmentRequest) (*models.Appointment, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	WeekView(ctx context.Context, actor service.Actor, q models.WeekQuery) (*models.WeekView, error)
	DayView(ctx context.Context, actor service.Actor, date string) ([]models.Appointment, error)
}

// AppointmentHandler exposes appointment CRUD and the calendar views.
type AppointmentHandler struct {
	service         appointmentService
	refreshInterval time.Duration
}

// NewAppointmentHandler constructs the handler. refreshInterval is advertised to clients polling the week view.
func NewAppointmentHandler(svc appointmentService, refreshInterval time.Duration) *AppointmentHandler {
	if refreshInterval <= 0 {
		refreshInterval = time.Minute
	}
	return &AppointmentHandler{service: svc, refreshInterval: refreshInterval}
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param pageNumber query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param sortColumn query string false "date, start_time, patient_name, staff_name, status, created_at"
// @Param sortDirection query string false "asc or desc"
// @Param searchValue query string false "Matches patient or staff name"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param staff_id query string false "Staff filter"
// @Param patient_id query string false "Patient filter"
// @Param type query string false "Appointment type"
// @Param status query string false "Appointment status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	details := map[string]string{}
	filter := models.AppointmentFilter{
		DateFrom:  dateQuery(c, details, "date_from", "dateFrom"),
		DateTo:    dateQuery(c, details, "date_to", "dateTo"),
		StaffID:   pickQuery(c, "staff_id", "staffId"),
		PatientID: pickQuery(c, "patient_id", "patientId"),
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		PageQuery: pageQuery(c),
	}
	if invalidQuery(c, details) {
		return
	}

	page, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// Get godoc
// @Summary Get appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	appt, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// Create godoc
// @Summary Book appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body models.CreateAppointmentRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.CreateAppointmentRequest
	if !bindJSON(c, &req, "invalid appointment payload") {
		return
	}
	appt, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Update godoc
// @Summary Update appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body models.UpdateAppointmentRequest true "Appointment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.UpdateAppointmentRequest
	if !bindJSON(c, &req, "invalid appointment payload") {
		return
	}
	appt, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// Delete godoc
// @Summary Delete appointment
// @Tags Appointments
// @Param id path string true "Appointment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Week godoc
// @Summary Weekly calendar
// @Description Seven Sunday-started day columns with positioned appointment blocks and the current-time indicator.
// @Tags Appointments
// @Produce json
// @Param date query string false "Reference date YYYY-MM-DD, defaults to today"
// @Param nav query string false "prev, next or today"
// @Param selected_date query string false "Selected day YYYY-MM-DD"
// @Param selected_appointment_id query string false "Selected appointment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments/calendar/week [get]
func (h *AppointmentHandler) Week(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	q := models.WeekQuery{
		Date:                  c.Query("date"),
		Nav:                   c.Query("nav"),
		SelectedDate:          pickQuery(c, "selected_date", "selectedDate"),
		SelectedAppointmentID: pickQuery(c, "selected_appointment_id", "selectedAppointmentId"),
	}
	view, err := h.service.WeekView(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, view.CacheHit)
	middleware.SetMeta(c, "refresh_interval_seconds", int(h.refreshInterval.Seconds()))
	response.OK(c, view, middleware.ExtractMeta(c))
}

// Day godoc
// @Summary Appointments of one day
// @Tags Appointments
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments/calendar/day [get]
func (h *AppointmentHandler) Day(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	items, err := h.service.DayView(c.Request.Context(), actor, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
