package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	"github.com/noah-isme/clinic-admin-api/pkg/response"
)

type currencyService interface {
	List(ctx context.Context, actor service.Actor, q models.PageQuery) (models.PagedResult[models.Currency], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Currency, error)
	Create(ctx context.Context, actor service.Actor, req models.CurrencyRequest) (*models.Currency, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.CurrencyRequest) (*models.Currency, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

type servicePriceService interface {
	List(ctx context.Context, actor service.Actor, activeOnly bool, q models.PageQuery) (models.PagedResult[models.ServicePrice], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.ServicePrice, error)
	Create(ctx context.Context, actor service.Actor, req models.ServicePriceRequest) (*models.ServicePrice, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.ServicePriceRequest) (*models.ServicePrice, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

type salaryService interface {
	List(ctx context.Context, actor service.Actor, filter models.SalaryFilter) (models.PagedResult[models.Salary], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Salary, error)
	Create(ctx context.Context, actor service.Actor, req models.SalaryRequest) (*models.Salary, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.SalaryRequest) (*models.Salary, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

type invoiceService interface {
	List(ctx context.Context, actor service.Actor, filter models.InvoiceFilter) (models.PagedResult[models.Invoice], error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Invoice, error)
	Create(ctx context.Context, actor service.Actor, req models.InvoiceRequest) (*models.Invoice, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.InvoiceRequest) (*models.Invoice, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// FinanceHandler exposes currencies, service prices, salaries and invoices.
type FinanceHandler struct {
	currencies    currencyService
	servicePrices servicePriceService
	salaries      salaryService
	invoices      invoiceService
}

// NewFinanceHandler constructs the handler.
func NewFinanceHandler(currencies currencyService, prices servicePriceService, salaries salaryService, invoices invoiceService) *FinanceHandler {
	return &FinanceHandler{currencies: currencies, servicePrices: prices, salaries: salaries, invoices: invoices}
}

// ListCurrencies godoc
// @Summary List currencies
// @Tags Finance
// @Produce json
// @Param pageNumber query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /currencies [get]
func (h *FinanceHandler) ListCurrencies(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	page, err := h.currencies.List(c.Request.Context(), actor, pageQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetCurrency godoc
// @Summary Get currency
// @Tags Finance
// @Param id path string true "Currency ID"
// @Success 200 {object} response.Envelope
// @Router /currencies/{id} [get]
func (h *FinanceHandler) GetCurrency(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	cur, err := h.currencies.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cur)
}

// CreateCurrency godoc
// @Summary Create currency
// @Tags Finance
// @Accept json
// @Param payload body models.CurrencyRequest true "Currency"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /currencies [post]
func (h *FinanceHandler) CreateCurrency(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.CurrencyRequest
	if !bindJSON(c, &req, "invalid currency payload") {
		return
	}
	cur, err := h.currencies.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cur)
}

// UpdateCurrency godoc
// @Summary Update currency
// @Tags Finance
// @Accept json
// @Param id path string true "Currency ID"
// @Param payload body models.CurrencyRequest true "Currency"
// @Success 200 {object} response.Envelope
// @Router /currencies/{id} [put]
func (h *FinanceHandler) UpdateCurrency(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.CurrencyRequest
	if !bindJSON(c, &req, "invalid currency payload") {
		return
	}
	cur, err := h.currencies.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cur)
}

// DeleteCurrency godoc
// @Summary Delete currency
// @Tags Finance
// @Param id path string true "Currency ID"
// @Success 204
// @Router /currencies/{id} [delete]
func (h *FinanceHandler) DeleteCurrency(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.currencies.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListServicePrices godoc
// @Summary List service prices
// @Tags Finance
// @Param active query bool false "Only active prices"
// @Success 200 {object} response.Envelope
// @Router /service-prices [get]
func (h *FinanceHandler) ListServicePrices(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	page, err := h.servicePrices.List(c.Request.Context(), actor, activeOnly, pageQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetServicePrice godoc
// @Summary Get service price
// @Tags Finance
// @Param id path string true "Service price ID"
// @Success 200 {object} response.Envelope
// @Router /service-prices/{id} [get]
func (h *FinanceHandler) GetServicePrice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	price, err := h.servicePrices.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, price)
}

// CreateServicePrice godoc
// @Summary Create service price
// @Tags Finance
// @Accept json
// @Param payload body models.ServicePriceRequest true "Service price"
// @Success 201 {object} response.Envelope
// @Router /service-prices [post]
func (h *FinanceHandler) CreateServicePrice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.ServicePriceRequest
	if !bindJSON(c, &req, "invalid service price payload") {
		return
	}
	price, err := h.servicePrices.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, price)
}

// UpdateServicePrice godoc
// @Summary Update service price
// @Tags Finance
// @Accept json
// @Param id path string true "Service price ID"
// @Param payload body models.ServicePriceRequest true "Service price"
// @Success 200 {object} response.Envelope
// @Router /service-prices/{id} [put]
func (h *FinanceHandler) UpdateServicePrice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.ServicePriceRequest
	if !bindJSON(c, &req, "invalid service price payload") {
		return
	}
	price, err := h.servicePrices.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, price)
}

// DeleteServicePrice godoc
// @Summary Delete service price
// @Tags Finance
// @Param id path string true "Service price ID"
// @Success 204
// @Router /service-prices/{id} [delete]
func (h *FinanceHandler) DeleteServicePrice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.servicePrices.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSalaries godoc
// @Summary List salaries
// @Tags Finance
// @Param staff_id query string false "Staff filter"
// @Param period query string false "YYYY-MM"
// @Param status query string false "DRAFT, APPROVED or PAID"
// @Success 200 {object} response.Envelope
// @Router /salaries [get]
func (h *FinanceHandler) ListSalaries(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	filter := models.SalaryFilter{
		StaffID:   pickQuery(c, "staff_id", "staffId"),
		Period:    c.Query("period"),
		Status:    c.Query("status"),
		PageQuery: pageQuery(c),
	}
	page, err := h.salaries.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetSalary godoc
// @Summary Get salary
// @Tags Finance
// @Param id path string true "Salary ID"
// @Success 200 {object} response.Envelope
// @Router /salaries/{id} [get]
func (h *FinanceHandler) GetSalary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	salary, err := h.salaries.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, salary)
}

// CreateSalary godoc
// @Summary Create salary
// @Tags Finance
// @Accept json
// @Param payload body models.SalaryRequest true "Salary"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /salaries [post]
func (h *FinanceHandler) CreateSalary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.SalaryRequest
	if !bindJSON(c, &req, "invalid salary payload") {
		return
	}
	salary, err := h.salaries.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, salary)
}

// UpdateSalary godoc
// @Summary Update salary
// @Tags Finance
// @Accept json
// @Param id path string true "Salary ID"
// @Param payload body models.SalaryRequest true "Salary"
// @Success 200 {object} response.Envelope
// @Router /salaries/{id} [put]
func (h *FinanceHandler) UpdateSalary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.SalaryRequest
	if !bindJSON(c, &req, "invalid salary payload") {
		return
	}
	salary, err := h.salaries.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, salary)
}

// DeleteSalary godoc
// @Summary Delete salary
// @Tags Finance
// @Param id path string true "Salary ID"
// @Success 204
// @Router /salaries/{id} [delete]
func (h *FinanceHandler) DeleteSalary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.salaries.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListInvoices godoc
// @Summary List invoices
// @Tags Finance
// @Param patient_id query string false "Patient filter"
// @Param status query string false "Invoice status"
// @Param date_from query string false "Issued on or after YYYY-MM-DD"
// @Param date_to query string false "Issued on or before YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	details := map[string]string{}
	filter := models.InvoiceFilter{
		PatientID: pickQuery(c, "patient_id", "patientId"),
		Status:    c.Query("status"),
		DateFrom:  dateQuery(c, details, "date_from", "dateFrom"),
		DateTo:    dateQuery(c, details, "date_to", "dateTo"),
		PageQuery: pageQuery(c),
	}
	if invalidQuery(c, details) {
		return
	}
	page, err := h.invoices.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetInvoice godoc
// @Summary Get invoice with items
// @Tags Finance
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	inv, err := h.invoices.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, inv)
}

// CreateInvoice godoc
// @Summary Create invoice
// @Tags Finance
// @Accept json
// @Param payload body models.InvoiceRequest true "Invoice"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /invoices [post]
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.InvoiceRequest
	if !bindJSON(c, &req, "invalid invoice payload") {
		return
	}
	inv, err := h.invoices.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inv)
}

// UpdateInvoice godoc
// @Summary Replace invoice
// @Description Paid or cancelled invoices are final and return 409.
// @Tags Finance
// @Accept json
// @Param id path string true "Invoice ID"
// @Param payload body models.InvoiceRequest true "Invoice"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /invoices/{id} [put]
func (h *FinanceHandler) UpdateInvoice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.InvoiceRequest
	if !bindJSON(c, &req, "invalid invoice payload") {
		return
	}
	inv, err := h.invoices.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, inv)
}

// DeleteInvoice godoc
// @Summary Delete invoice
// @Tags Finance
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /invoices/{id} [delete]
func (h *FinanceHandler) DeleteInvoice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
