package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/pkg/storage"
)

type salarySourceStub struct {
	periods []string
	items   []models.Salary
}

func (s *salarySourceStub) ListPeriods(ctx context.Context, clinicID string, periods []string) ([]models.Salary, error) {
	s.periods = periods
	return s.items, nil
}

func newTestExportService(t *testing.T, sources ExportSources) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(sources, files, storage.NewSigner("export-secret", time.Hour), ExportConfig{APIPrefix: "/api/v1/"}, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, files
}

func TestExportGenerateAppointmentsCSV(t *testing.T) {
	repo := &appointmentRepoStub{items: []models.Appointment{
		appt("a1", "p1", "2026-10-02", "09:00", "09:30"),
		appt("a2", "p2", "2026-09-30", "09:00", "09:30"),
	}}
	svc, files := newTestExportService(t, ExportSources{Appointments: repo})

	job := &models.ExportJob{ID: "job-1", ClinicID: "c1", Type: models.ExportAppointments, Params: models.ExportParams{Format: models.ExportCSV}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"2026-10-01", "2026-10-15"}}, repo.rangeCalls)
	assert.Equal(t, "c1/appointments/appointments_20261015T103000Z.csv", result.RelativePath)
	assert.Equal(t, "/api/v1/exports/download/"+result.Token, result.URL)

	grant, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", grant.JobID)

	f, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Start,End,Patient,Staff,Type,Status", lines[0])
	assert.Equal(t, "2026-10-02,09:00,09:30,Pat p1,Dr. Who,CONSULTATION,SCHEDULED", lines[1])
}

func TestExportGenerateSalariesUsesPeriods(t *testing.T) {
	salaries := &salarySourceStub{items: []models.Salary{{Period: "2026-09", StaffName: "Nurse", BaseAmount: 1000, NetAmount: 1000, Status: models.SalaryPaid}}}
	svc, _ := newTestExportService(t, ExportSources{Salaries: salaries})

	job := &models.ExportJob{ID: "job-2", ClinicID: "c1", Type: models.ExportSalaries, Params: models.ExportParams{Format: models.ExportPDF, DateFrom: "2026-08-20", DateTo: "2026-10-01"}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08", "2026-09", "2026-10"}, salaries.periods)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))
	assert.Equal(t, "application/pdf", svc.ContentType(models.ExportPDF))
}

func TestExportGenerateErrors(t *testing.T) {
	svc, _ := newTestExportService(t, ExportSources{})

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "j", ClinicID: "c1", Type: models.ExportInvoices, Params: models.ExportParams{Format: models.ExportCSV}})
	assert.Error(t, err)

	_, err = svc.Generate(context.Background(), &models.ExportJob{ID: "j", ClinicID: "c1", Type: models.ExportInvoices, Params: models.ExportParams{Format: "xlsx"}})
	assert.Error(t, err)
}

func TestExportRange(t *testing.T) {
	from, to, err := exportRange(models.ExportParams{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01", from.Key())
	assert.Equal(t, "2026-10-15", to.Key())

	from, to, err = exportRange(models.ExportParams{DateFrom: "2026-01-05", DateTo: "2026-01-05"}, fixedNow)
	require.NoError(t, err)
	assert.True(t, from.Equal(to))

	_, _, err = exportRange(models.ExportParams{DateFrom: "2026-02-01", DateTo: "2026-01-31"}, fixedNow)
	assert.Error(t, err)

	_, _, err = exportRange(models.ExportParams{DateFrom: "01/02/2026"}, fixedNow)
	assert.Error(t, err)
}

func TestPeriodsBetweenCrossesYear(t *testing.T) {
	assert.Equal(t, []string{"2025-12", "2026-01"}, periodsBetween(calendar.NewDate(2025, time.December, 31), calendar.NewDate(2026, time.January, 1)))
	assert.Equal(t, []string{"2026-03"}, periodsBetween(calendar.NewDate(2026, time.March, 3), calendar.NewDate(2026, time.March, 9)))
}
