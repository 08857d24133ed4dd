package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
)

var appointmentRowColumns = []string{"id", "clinic_id", "patient_id", "patient_name", "staff_id", "staff_name", "date", "start_time", "end_time", "type", "status", "notes", "created_at", "updated_at"}

func TestAppointmentListRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(appointmentRowColumns).
		AddRow("a1", "c1", "p1", "Pat", "s1", "Dr. A", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), "09:00:00", "09:30:00", "FOLLOW_UP", "SCHEDULED", nil, now, now).
		AddRow("a2", "c1", "p2", "Sam", "s1", "Dr. A", "2026-10-14", []byte("14:00:00"), []byte("15:30:00"), "CONSULTATION", "CONFIRMED", "bring x-ray", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE clinic_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, start_time, created_at")).
		WithArgs("c1", "2026-10-11", "2026-10-17").
		WillReturnRows(rows)

	items, err := repo.ListRange(context.Background(), "c1", calendar.NewDate(2026, time.October, 11), calendar.NewDate(2026, time.October, 17))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-10-12", items[0].Date.Key())
	assert.Equal(t, 540, items[0].StartTime.Minutes())
	assert.Equal(t, "15:30", items[1].EndTime.String())
	require.NotNil(t, items[1].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentListFiltersAndSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	from := calendar.NewDate(2026, time.October, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE clinic_id = $1 AND date >= $2 AND staff_id = $3 AND status = $4 ORDER BY patient_name DESC LIMIT 10 OFFSET 10")).
		WithArgs("c1", "2026-10-01", "s1", "CONFIRMED").
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND date >= $2 AND staff_id = $3 AND status = $4")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.AppointmentFilter{
		ClinicID: "c1",
		DateFrom: &from,
		StaffID:  "s1",
		Status:   "CONFIRMED",
		PageQuery: models.PageQuery{
			PageNumber:    2,
			PageSize:      10,
			SortColumn:    "patient_name",
			SortDirection: "desc",
		},
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentUnknownSortFallsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY date, start_time ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.AppointmentFilter{ClinicID: "c1", PageQuery: models.PageQuery{SortColumn: "1; DROP TABLE appointments"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").WillReturnResult(sqlmock.NewResult(1, 1))

	appt := &models.Appointment{ClinicID: "c1", Date: calendar.NewDate(2026, time.October, 12), StartTime: calendar.MustTimeOfDay(9, 0), EndTime: calendar.MustTimeOfDay(9, 30)}
	require.NoError(t, repo.Create(context.Background(), appt))
	assert.NotEmpty(t, appt.ID)
	assert.False(t, appt.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Appointment{ID: "a1", ClinicID: "c2"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAppointmentDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments WHERE clinic_id = $1 AND id = $2")).
		WithArgs("c1", "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "c1", "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
