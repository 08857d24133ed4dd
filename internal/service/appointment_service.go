package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/pkg/events"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

// Appointment event types.
const (
	EventAppointmentCreated = "appointment.created"
	EventAppointmentUpdated = "appointment.updated"
	EventAppointmentDeleted = "appointment.deleted"
)

// Week navigation commands.
const (
	NavPrev  = "prev"
	NavNext  = "next"
	NavToday = "today"
)

type appointmentRepository interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	ListRange(ctx context.Context, clinicID string, from, to calendar.Date) ([]models.Appointment, error)
	FindByID(ctx context.Context, clinicID, id string) (*models.Appointment, error)
	Create(ctx context.Context, appt *models.Appointment) error
	Update(ctx context.Context, appt *models.Appointment) error
	Delete(ctx context.Context, clinicID, id string) error
}

// AppointmentServiceConfig tunes the week view.
type AppointmentServiceConfig struct {
	Layout   calendar.Layout
	CacheTTL time.Duration
	Clock    calendar.Clock
}

// AppointmentService handles appointment CRUD and the weekly calendar.
type AppointmentService struct {
	repo      appointmentRepository
	cache     *CacheService
	publisher events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	layout    calendar.Layout
	cacheTTL  time.Duration
	clock     calendar.Clock
}

// NewAppointmentService constructs the service. cache, publisher and metrics may be nil.
func NewAppointmentService(repo appointmentRepository, cache *CacheService, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AppointmentServiceConfig) *AppointmentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.Layout == (calendar.Layout{}) {
		cfg.Layout = calendar.DefaultLayout()
	}
	if cfg.Clock == nil {
		cfg.Clock = calendar.SystemClock
	}
	return &AppointmentService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		layout:    cfg.Layout,
		cacheTTL:  cfg.CacheTTL,
		clock:     cfg.Clock,
	}
}

// List returns a page of appointments. Patients only see their own.
func (s *AppointmentService) List(ctx context.Context, actor Actor, filter models.AppointmentFilter) (models.PagedResult[models.Appointment], error) {
	if err := actor.requireClinic(); err != nil {
		return models.PagedResult[models.Appointment]{}, err
	}
	filter.ClinicID = actor.ClinicID
	if actor.IsPatient() {
		subject, err := actor.ownSubject()
		if err != nil {
			return models.PagedResult[models.Appointment]{}, err
		}
		filter.PatientID = subject
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.PagedResult[models.Appointment]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return models.NewPagedResult(items, total, filter.PageQuery), nil
}

// Get returns one appointment.
func (s *AppointmentService) Get(ctx context.Context, actor Actor, id string) (*models.Appointment, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	appt, err := s.repo.FindByID(ctx, actor.ClinicID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	if actor.IsPatient() && appt.PatientID != actor.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}
	return appt, nil
}

// Create books an appointment.
func (s *AppointmentService) Create(ctx context.Context, actor Actor, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	appt, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	appt.ClinicID = actor.ClinicID
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	s.afterWrite(ctx, EventAppointmentCreated, appt.ClinicID, appt.ID, appt)
	return appt, nil
}

// Update replaces an appointment.
func (s *AppointmentService) Update(ctx context.Context, actor Actor, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	appt, err := s.fromRequest(req.CreateAppointmentRequest)
	if err != nil {
		return nil, err
	}
	appt.ID = existing.ID
	appt.ClinicID = existing.ClinicID
	appt.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, appt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	s.afterWrite(ctx, EventAppointmentUpdated, appt.ClinicID, appt.ID, appt)
	return appt, nil
}

// Delete removes an appointment.
func (s *AppointmentService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete appointment")
	}
	s.afterWrite(ctx, EventAppointmentDeleted, actor.ClinicID, id, map[string]string{"id": id})
	return nil
}

// WeekView builds the calendar week for q after applying its navigation command.
func (s *AppointmentService) WeekView(ctx context.Context, actor Actor, q models.WeekQuery) (*models.WeekView, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	state, err := s.navigate(q)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	window := state.Window()
	var days []calendar.Day
	cached := false
	// patient views are filtered per subject and never shared through the clinic cache
	cacheable := !actor.IsPatient()
	var key string
	if cacheable {
		// the generation is read before the rows so a layout built across a concurrent write lands under a dead key
		var gen int64
		gen, cacheable = s.cache.Generation(ctx, weekGenerationKey(actor.ClinicID))
		key = weekCacheKey(actor.ClinicID, gen, window)
	}
	if cacheable {
		cached = s.cache.Get(ctx, key, &days) && len(days) == calendar.DaysPerWeek
	}

	var week calendar.Week
	if cached {
		week = calendar.Week{
			Window:    window,
			Days:      days,
			Hours:     s.layout.Hours(),
			Indicator: s.layout.Indicator(now, window),
			Layout:    s.layout,
		}
	} else {
		entries, err := s.loadEntries(ctx, actor, window)
		if err != nil {
			return nil, err
		}
		week = calendar.BuildWeek(state.Reference, entries, s.layout, now)
		for _, p := range week.Degenerate() {
			s.logger.Warn("appointment ends before it starts",
				zap.String("clinic_id", actor.ClinicID),
				zap.String("appointment_id", p.ID),
				zap.String("start_time", p.Start.String()),
				zap.String("end_time", p.End.String()),
			)
		}
		if cacheable {
			s.cache.Set(ctx, key, week.Days, s.cacheTTL)
		}
	}
	s.metrics.RecordWeekBuild(cached)

	return &models.WeekView{Week: week, Navigator: state, CacheHit: cached}, nil
}

// DayView lists the appointments of one day in start order.
func (s *AppointmentService) DayView(ctx context.Context, actor Actor, date string) ([]models.Appointment, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	day, err := calendar.ParseDate(date)
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid date"), map[string]string{"date": "must be a date in YYYY-MM-DD format"})
	}
	items, err := s.rangeFor(ctx, actor, day, day)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Appointment{}
	}
	return items, nil
}

func (s *AppointmentService) navigate(q models.WeekQuery) (calendar.State, error) {
	ref := s.clock.Now()
	if q.Date != "" {
		d, err := calendar.ParseDate(q.Date)
		if err != nil {
			return calendar.State{}, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid week query"), map[string]string{"date": "must be a date in YYYY-MM-DD format"})
		}
		ref = d.In(ref.Location())
	}
	state := calendar.NewState(ref)

	switch strings.ToLower(q.Nav) {
	case "":
	case NavNext:
		state = calendar.NextWeek(state)
	case NavPrev:
		state = calendar.PreviousWeek(state)
	case NavToday:
		state = calendar.Today(state, s.clock)
	default:
		return calendar.State{}, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid week query"), map[string]string{"nav": "must be one of [prev next today]"})
	}

	if q.SelectedDate != "" {
		d, err := calendar.ParseDate(q.SelectedDate)
		if err != nil {
			return calendar.State{}, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid week query"), map[string]string{"selected_date": "must be a date in YYYY-MM-DD format"})
		}
		state = calendar.SelectDay(state, d)
	}
	if q.SelectedAppointmentID != "" {
		state = calendar.SelectAppointment(state, q.SelectedAppointmentID)
	}
	return state, nil
}

func (s *AppointmentService) loadEntries(ctx context.Context, actor Actor, w calendar.Window) ([]calendar.Entry, error) {
	items, err := s.rangeFor(ctx, actor, w.StartDate(), w.EndDate())
	if err != nil {
		return nil, err
	}
	entries := make([]calendar.Entry, len(items))
	for i, a := range items {
		entries[i] = a.Entry()
	}
	return entries, nil
}

func (s *AppointmentService) rangeFor(ctx context.Context, actor Actor, from, to calendar.Date) ([]models.Appointment, error) {
	var subject string
	if actor.IsPatient() {
		var err error
		if subject, err = actor.ownSubject(); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	items, err := s.repo.ListRange(ctx, actor.ClinicID, from, to)
	s.metrics.ObserveDBQuery("appointments.list_range", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	if subject == "" {
		return items, nil
	}
	own := items[:0]
	for _, a := range items {
		if a.PatientID == subject {
			own = append(own, a)
		}
	}
	return own, nil
}

func (s *AppointmentService) fromRequest(req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := validation.Struct(s.validator, req, "invalid appointment payload"); err != nil {
		return nil, err
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment date")
	}
	start, err := calendar.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := calendar.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if end.Before(start) {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid appointment payload"), map[string]string{"end_time": "must not be before start_time"})
	}
	status := models.AppointmentStatus(req.Status)
	if status == "" {
		status = models.AppointmentScheduled
	}
	return &models.Appointment{
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		StaffID:     req.StaffID,
		StaffName:   req.StaffName,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Type:        models.AppointmentType(req.Type),
		Status:      status,
		Notes:       req.Notes,
	}, nil
}

// afterWrite retires the clinic's cached weeks and publishes the change. Neither failure fails the request.
func (s *AppointmentService) afterWrite(ctx context.Context, eventType, clinicID, id string, payload interface{}) {
	s.cache.BumpGeneration(ctx, weekGenerationKey(clinicID))
	s.cache.Invalidate(ctx, fmt.Sprintf("calendar:%s:*", clinicID))

	event, err := events.NewEvent(eventType, clinicID, id, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	s.metrics.RecordEventPublished(eventType, err)
	if err != nil {
		s.logger.Error("publish appointment event", zap.String("event_type", eventType), zap.String("appointment_id", id), zap.Error(err))
	}
}

func weekCacheKey(clinicID string, gen int64, w calendar.Window) string {
	return fmt.Sprintf("calendar:%s:g%d:%s", clinicID, gen, w.StartDate().Key())
}

// weekGenerationKey sits outside the calendar:<clinic>:* pattern so invalidation never resets it.
func weekGenerationKey(clinicID string) string {
	return "calendar-gen:" + clinicID
}
