package calendar

import "time"

// DaysPerWeek is the number of columns in the grid.
const DaysPerWeek = 7

// Window is the Sunday-to-Saturday span containing a reference time.
// Start and End are both midnight, in the reference's location, and both are inclusive days.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeekOf returns the week window containing ref. Weeks start on Sunday regardless of locale.
func WeekOf(ref time.Time) Window {
	y, m, d := ref.Date()
	start := time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, ref.Location())
	return Window{Start: start, End: start.AddDate(0, 0, DaysPerWeek-1)}
}

// Days lists the seven dates of the window in order.
func (w Window) Days() []Date {
	first := DateOf(w.Start)
	days := make([]Date, DaysPerWeek)
	for i := range days {
		days[i] = first.AddDays(i)
	}
	return days
}

// StartDate is the Sunday of the window.
func (w Window) StartDate() Date { return DateOf(w.Start) }

// EndDate is the Saturday of the window.
func (w Window) EndDate() Date { return DateOf(w.End) }

// Contains reports whether t falls on one of the window's days, judged in the window's location.
func (w Window) Contains(t time.Time) bool {
	day := DateOf(t.In(w.Start.Location()))
	return !day.Before(w.StartDate()) && !day.After(w.EndDate())
}

// ContainsDate reports whether d is one of the window's days.
func (w Window) ContainsDate(d Date) bool {
	return !d.Before(w.StartDate()) && !d.After(w.EndDate())
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// State is the navigator position of a calendar view. Reducers never mutate their input.
type State struct {
	Reference             time.Time `json:"reference"`
	SelectedDate          *Date     `json:"selected_date,omitempty"`
	SelectedAppointmentID string    `json:"selected_appointment_id,omitempty"`
}

// NewState starts at ref with nothing selected.
func NewState(ref time.Time) State {
	return State{Reference: ref}
}

// Window of the current reference.
func (s State) Window() Window { return WeekOf(s.Reference) }

// NextWeek moves the reference forward seven calendar days.
func NextWeek(s State) State {
	s.Reference = s.Reference.AddDate(0, 0, DaysPerWeek)
	return s
}

// PreviousWeek moves the reference back seven calendar days.
func PreviousWeek(s State) State {
	s.Reference = s.Reference.AddDate(0, 0, -DaysPerWeek)
	return s
}

// Today jumps the reference to the clock's current time.
func Today(s State, clock Clock) State {
	s.Reference = clock.Now()
	return s
}

// SelectDay marks d as the focused day.
func SelectDay(s State, d Date) State {
	s.SelectedDate = &d
	return s
}

// SelectAppointment marks the appointment with id as focused. An empty id clears it.
func SelectAppointment(s State, id string) State {
	s.SelectedAppointmentID = id
	return s
}
