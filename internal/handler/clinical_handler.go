package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	"github.com/noah-isme/clinic-admin-api/pkg/response"
)

type prescriptionService interface {
	List(ctx context.Context, actor service.Actor, filter models.ClinicalFilter) (models.PagedResult[models.Prescription], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Prescription, error)
	Create(ctx context.Context, actor service.Actor, req models.PrescriptionRequest) (*models.Prescription, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.PrescriptionRequest) (*models.Prescription, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

type labResultService interface {
	List(ctx context.Context, actor service.Actor, filter models.ClinicalFilter) (models.PagedResult[models.LabResult], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.LabResult, error)
	Create(ctx context.Context, actor service.Actor, req models.LabResultRequest) (*models.LabResult, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.LabResultRequest) (*models.LabResult, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// ClinicalHandler serves prescriptions and lab results. Patient callers only ever see their own records.
type ClinicalHandler struct {
	prescriptions prescriptionService
	labResults    labResultService
}

// NewClinicalHandler constructs the handler.
func NewClinicalHandler(prescriptions prescriptionService, labResults labResultService) *ClinicalHandler {
	return &ClinicalHandler{prescriptions: prescriptions, labResults: labResults}
}

func clinicalFilter(c *gin.Context) models.ClinicalFilter {
	return models.ClinicalFilter{
		PatientID: pickQuery(c, "patient_id", "patientId"),
		DoctorID:  pickQuery(c, "doctor_id", "doctorId"),
		Status:    c.Query("status"),
		PageQuery: pageQuery(c),
	}
}

// ListPrescriptions godoc
// @Summary List prescriptions
// @Tags Clinical
// @Param patient_id query string false "Patient filter"
// @Param doctor_id query string false "Doctor filter"
// @Success 200 {object} response.Envelope
// @Router /prescriptions [get]
func (h *ClinicalHandler) ListPrescriptions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	page, err := h.prescriptions.List(c.Request.Context(), actor, clinicalFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetPrescription godoc
// @Summary Get prescription
// @Tags Clinical
// @Param id path string true "Prescription ID"
// @Success 200 {object} response.Envelope
// @Router /prescriptions/{id} [get]
func (h *ClinicalHandler) GetPrescription(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	p, err := h.prescriptions.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// CreatePrescription godoc
// @Summary Issue prescription
// @Tags Clinical
// @Accept json
// @Param payload body models.PrescriptionRequest true "Prescription"
// @Success 201 {object} response.Envelope
// @Router /prescriptions [post]
func (h *ClinicalHandler) CreatePrescription(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.PrescriptionRequest
	if !bindJSON(c, &req, "invalid prescription payload") {
		return
	}
	p, err := h.prescriptions.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// UpdatePrescription godoc
// @Summary Update prescription
// @Tags Clinical
// @Accept json
// @Param id path string true "Prescription ID"
// @Param payload body models.PrescriptionRequest true "Prescription"
// @Success 200 {object} response.Envelope
// @Router /prescriptions/{id} [put]
func (h *ClinicalHandler) UpdatePrescription(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.PrescriptionRequest
	if !bindJSON(c, &req, "invalid prescription payload") {
		return
	}
	p, err := h.prescriptions.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// DeletePrescription godoc
// @Summary Delete prescription
// @Tags Clinical
// @Param id path string true "Prescription ID"
// @Success 204
// @Router /prescriptions/{id} [delete]
func (h *ClinicalHandler) DeletePrescription(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.prescriptions.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListLabResults godoc
// @Summary List lab results
// @Tags Clinical
// @Param patient_id query string false "Patient filter"
// @Param status query string false "PENDING, FINAL or AMENDED"
// @Success 200 {object} response.Envelope
// @Router /lab-results [get]
func (h *ClinicalHandler) ListLabResults(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	page, err := h.labResults.List(c.Request.Context(), actor, clinicalFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetLabResult godoc
// @Summary Get lab result
// @Tags Clinical
// @Param id path string true "Lab result ID"
// @Success 200 {object} response.Envelope
// @Router /lab-results/{id} [get]
func (h *ClinicalHandler) GetLabResult(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	l, err := h.labResults.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l)
}

// CreateLabResult godoc
// @Summary Record lab result
// @Tags Clinical
// @Accept json
// @Param payload body models.LabResultRequest true "Lab result"
// @Success 201 {object} response.Envelope
// @Router /lab-results [post]
func (h *ClinicalHandler) CreateLabResult(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.LabResultRequest
	if !bindJSON(c, &req, "invalid lab result payload") {
		return
	}
	l, err := h.labResults.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, l)
}

// UpdateLabResult godoc
// @Summary Update lab result
// @Tags Clinical
// @Accept json
// @Param id path string true "Lab result ID"
// @Param payload body models.LabResultRequest true "Lab result"
// @Success 200 {object} response.Envelope
// @Router /lab-results/{id} [put]
func (h *ClinicalHandler) UpdateLabResult(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.LabResultRequest
	if !bindJSON(c, &req, "invalid lab result payload") {
		return
	}
	l, err := h.labResults.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l)
}

// DeleteLabResult godoc
// @Summary Delete lab result
// @Tags Clinical
// @Param id path string true "Lab result ID"
// @Success 204
// @Router /lab-results/{id} [delete]
func (h *ClinicalHandler) DeleteLabResult(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.labResults.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
