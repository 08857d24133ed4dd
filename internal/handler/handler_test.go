package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/middleware"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/navigation"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/logger"
)

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func authenticate(c *gin.Context, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", ClinicID: "c1", Role: role, Permissions: models.PermissionsFor(role)})
	c.Set(logger.ClinicKey, "c1")
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *appErrors.Error       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type appointmentServiceStub struct {
	lastActor  service.Actor
	lastFilter models.AppointmentFilter
	lastWeek   models.WeekQuery
	week       *models.WeekView
	err        error
}

func (s *appointmentServiceStub) List(ctx context.Context, actor service.Actor, filter models.AppointmentFilter) (models.PagedResult[models.Appointment], error) {
	s.lastActor = actor
	s.lastFilter = filter
	return models.NewPagedResult([]models.Appointment{}, 0, filter.PageQuery), s.err
}

func (s *appointmentServiceStub) Get(ctx context.Context, actor service.Actor, id string) (*models.Appointment, error) {
	return nil, s.err
}

func (s *appointmentServiceStub) Create(ctx context.Context, actor service.Actor, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Appointment{ID: "a1", PatientName: req.PatientName}, nil
}

func (s *appointmentServiceStub) Update(ctx context.Context, actor service.Actor, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error) {
	return nil, s.err
}

func (s *appointmentServiceStub) Delete(ctx context.Context, actor service.Actor, id string) error {
	return s.err
}

func (s *appointmentServiceStub) WeekView(ctx context.Context, actor service.Actor, q models.WeekQuery) (*models.WeekView, error) {
	s.lastWeek = q
	return s.week, s.err
}

func (s *appointmentServiceStub) DayView(ctx context.Context, actor service.Actor, date string) ([]models.Appointment, error) {
	return []models.Appointment{}, s.err
}

func TestPageQueryAcceptsAliases(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/x?page=3&limit=500&sort=date&order=DESC&search=%20ann%20", nil)
	q := pageQuery(c)
	assert.Equal(t, models.PageQuery{PageNumber: 3, PageSize: models.MaxPageSize, SortColumn: "date", SortDirection: "desc", SearchValue: "ann"}, q)

	c, _ = newTestContext(http.MethodGet, "/x?pageNumber=2&page=9&pageSize=5", nil)
	q = pageQuery(c)
	assert.Equal(t, 2, q.PageNumber)
	assert.Equal(t, 5, q.PageSize)
}

func TestAppointmentListParsesFilters(t *testing.T) {
	stub := &appointmentServiceStub{}
	h := NewAppointmentHandler(stub, time.Minute)

	c, w := newTestContext(http.MethodGet, "/appointments?date_from=2026-10-01&staffId=s1&status=CONFIRMED", nil)
	authenticate(c, models.RoleStaff)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", stub.lastActor.ClinicID)
	require.NotNil(t, stub.lastFilter.DateFrom)
	assert.Equal(t, "2026-10-01", stub.lastFilter.DateFrom.Key())
	assert.Equal(t, "s1", stub.lastFilter.StaffID)
	assert.Equal(t, "CONFIRMED", stub.lastFilter.Status)

	var page models.PagedResult[models.Appointment]
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, models.DefaultPageSize, page.PageSize)
}

func TestAppointmentListRejectsBadDate(t *testing.T) {
	h := NewAppointmentHandler(&appointmentServiceStub{}, time.Minute)
	c, w := newTestContext(http.MethodGet, "/appointments?date_to=10/01/2026", nil)
	authenticate(c, models.RoleStaff)
	h.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error.Details, "date_to")
}

func TestAppointmentHandlerRequiresClaims(t *testing.T) {
	h := NewAppointmentHandler(&appointmentServiceStub{}, time.Minute)
	c, w := newTestContext(http.MethodGet, "/appointments", nil)
	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWeekEndpointAddsMeta(t *testing.T) {
	now := time.Date(2026, time.October, 15, 10, 30, 0, 0, time.UTC)
	week := calendar.BuildWeek(now, nil, calendar.DefaultLayout(), now)
	stub := &appointmentServiceStub{week: &models.WeekView{Week: week, CacheHit: true}}
	h := NewAppointmentHandler(stub, 30*time.Second)

	c, w := newTestContext(http.MethodGet, "/appointments/calendar/week?date=2026-10-15&nav=next&selectedDate=2026-10-20", nil)
	authenticate(c, models.RoleStaff)
	h.Week(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.WeekQuery{Date: "2026-10-15", Nav: "next", SelectedDate: "2026-10-20"}, stub.lastWeek)
	env := decode(t, w)
	assert.Equal(t, float64(30), env.Meta["refresh_interval_seconds"])
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.NotContains(t, string(env.Data), "CacheHit")
}

func TestAppointmentCreateMalformedJSON(t *testing.T) {
	h := NewAppointmentHandler(&appointmentServiceStub{}, time.Minute)
	c, w := newTestContext(http.MethodPost, "/appointments", []byte(`{"patient_name":`))
	authenticate(c, models.RoleStaff)
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPost, "/appointments", []byte(`{"patient_name":"Ann"}`))
	authenticate(c, models.RoleStaff)
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

type navigationServiceStub struct {
	perms []models.Permission
}

func (s *navigationServiceStub) Tree(perms []models.Permission) []navigation.Node {
	s.perms = perms
	return []navigation.Node{navigation.Leaf{Name: "Dashboard", Href: "/dashboard"}}
}

func (s *navigationServiceStub) Quick(perms []models.Permission, path string) (*service.QuickMenu, error) {
	if path == "Nope" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "navigation path not found")
	}
	return &service.QuickMenu{Breadcrumb: []string{path}, Items: []navigation.Node{}}, nil
}

func TestNavigationHandler(t *testing.T) {
	stub := &navigationServiceStub{}
	h := NewNavigationHandler(stub)

	c, w := newTestContext(http.MethodGet, "/navigation", nil)
	authenticate(c, models.RolePatient)
	h.Tree(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PermissionsFor(models.RolePatient), stub.perms)
	assert.JSONEq(t, `[{"type":"leaf","name":"Dashboard","href":"/dashboard"}]`, string(decode(t, w).Data))

	c, w = newTestContext(http.MethodGet, "/navigation/quick?path=Nope", nil)
	authenticate(c, models.RolePatient)
	h.Quick(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type exportJobServiceStub struct {
	created  models.CreateExportRequest
	download *service.ExportDownload
	err      error
}

func (s *exportJobServiceStub) Create(ctx context.Context, actor service.Actor, req models.CreateExportRequest) (*models.ExportJob, error) {
	s.created = req
	return &models.ExportJob{ID: "job-1", Status: models.ExportQueued}, s.err
}

func (s *exportJobServiceStub) Status(ctx context.Context, actor service.Actor, id string) (*models.ExportJob, error) {
	return &models.ExportJob{ID: id, Status: models.ExportFinished, Progress: 100}, s.err
}

func (s *exportJobServiceStub) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return s.download, s.err
}

func TestExportCreateReturnsAccepted(t *testing.T) {
	stub := &exportJobServiceStub{}
	h := NewExportHandler(stub)

	c, w := newTestContext(http.MethodPost, "/exports", []byte(`{"type":"invoices","format":"pdf"}`))
	authenticate(c, models.RoleAdmin)
	h.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "invoices", stub.created.Type)
	assert.Contains(t, string(decode(t, w).Data), `"status":"QUEUED"`)
}

func TestExportDownloadStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.csv")
	require.NoError(t, os.WriteFile(path, []byte("Number,Total\nINV-1,10.00\n"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)

	h := NewExportHandler(&exportJobServiceStub{download: &service.ExportDownload{File: f, Filename: "invoices.csv", ContentType: "text/csv"}})
	c, w := newTestContext(http.MethodGet, "/exports/download/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoices.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Number,Total\nINV-1,10.00\n", w.Body.String())
}

func TestExportDownloadRejectsBadToken(t *testing.T) {
	h := NewExportHandler(&exportJobServiceStub{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})
	c, w := newTestContext(http.MethodGet, "/exports/download/x", nil)
	c.Params = gin.Params{{Key: "token", Value: "x"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type metricsStub struct{}

func (metricsStub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("calendar_week_builds_total 1\n"))
	})
}

func (metricsStub) Snapshot() models.SystemMetrics {
	return models.SystemMetrics{WeekBuilds: 1}
}

func TestMetricsHandler(t *testing.T) {
	h := NewMetricsHandler(metricsStub{})

	c, w := newTestContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Contains(t, w.Body.String(), "calendar_week_builds_total")

	c, w = newTestContext(http.MethodGet, "/system/metrics", nil)
	h.Snapshot(c)
	assert.Contains(t, string(decode(t, w).Data), `"calendar_week_builds":1`)
}
