package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tod(t *testing.T, s string) TimeOfDay {
	t.Helper()
	v, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func TestWeekOfStartsSundayAndContainsRef(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	refs := []time.Time{
		time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 12, 0, 0, 0, jakarta),
		time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC),
	}
	for _, ref := range refs {
		w := WeekOf(ref)
		assert.Equal(t, time.Sunday, w.Start.Weekday(), ref)
		assert.Equal(t, time.Saturday, w.End.Weekday(), ref)
		assert.Equal(t, 0, w.Start.Hour())
		assert.True(t, w.Contains(ref), ref)
		assert.Len(t, w.Days(), 7)
	}

	w := WeekOf(refs[0])
	assert.Equal(t, "2026-10-11", w.StartDate().Key())
	assert.Equal(t, "2026-10-17", w.EndDate().Key())
}

func TestGroupByDayKeepsOrderAndDropsNothing(t *testing.T) {
	d1 := NewDate(2026, 10, 12)
	d2 := NewDate(2026, 10, 13)
	entries := []Entry{
		{ID: "c", Date: d1, Start: MustTimeOfDay(15, 0)},
		{ID: "a", Date: d2, Start: MustTimeOfDay(9, 0)},
		{ID: "b", Date: d1, Start: MustTimeOfDay(8, 0)},
	}

	groups := GroupByDay(entries)

	ids := map[string][]string{}
	total := 0
	for key, bucket := range groups {
		for _, e := range bucket {
			assert.Equal(t, key, e.Date.Key())
			ids[key] = append(ids[key], e.ID)
			total++
		}
	}
	assert.Equal(t, len(entries), total)
	want := map[string][]string{"2026-10-12": {"c", "b"}, "2026-10-13": {"a"}}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("GroupByDay mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceGeometry(t *testing.T) {
	l := DefaultLayout()
	cases := []struct {
		name       string
		start, end string
		want       Rect
	}{
		{"half hour clamps to minimum", "09:00", "09:30", Rect{TopPx: 432, HeightPx: 48}},
		{"ninety minutes", "14:00", "15:30", Rect{TopPx: 672, HeightPx: 68}},
		{"midnight start", "00:00", "01:00", Rect{TopPx: 0, HeightPx: 48}},
		{"two hours", "10:00", "12:00", Rect{TopPx: 480, HeightPx: 92}},
		{"zero length", "11:00", "11:00", Rect{TopPx: 528, HeightPx: 48}},
		{"until end of day", "23:00", "24:00", Rect{TopPx: 1104, HeightPx: 48}},
		{"reversed", "10:00", "09:00", Rect{TopPx: 480, HeightPx: 48, Degenerate: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := l.Place(tod(t, tc.start), tod(t, tc.end))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Place(%s, %s) mismatch (-want +got):\n%s", tc.start, tc.end, diff)
			}
		})
	}
}

func TestPlaceOrderingAndMinimumHeight(t *testing.T) {
	l := DefaultLayout()
	for a := 0; a < minutesPerDay; a += 17 {
		for b := a + 1; b < minutesPerDay; b += 89 {
			ra := l.Place(TimeOfDay{minutes: a}, TimeOfDay{minutes: a + 5})
			rb := l.Place(TimeOfDay{minutes: b}, TimeOfDay{minutes: b})
			require.Less(t, ra.TopPx, rb.TopPx)
			require.GreaterOrEqual(t, ra.HeightPx, l.MinHeightPx)
			require.GreaterOrEqual(t, rb.HeightPx, l.MinHeightPx)
		}
	}
}

func TestNavigationRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// crosses the November DST change
	ref := time.Date(2026, 10, 30, 9, 15, 0, 0, loc)
	s := NewState(ref)

	assert.True(t, PreviousWeek(NextWeek(s)).Reference.Equal(ref))
	assert.True(t, NextWeek(PreviousWeek(s)).Reference.Equal(ref))

	next := NextWeek(s)
	assert.Equal(t, 9, next.Reference.Hour())
	assert.Equal(t, "2026-11-01", next.Window().StartDate().Key())
}

func TestTodayContainsNow(t *testing.T) {
	now := time.Date(2026, 10, 15, 13, 45, 0, 0, time.UTC)
	clock := ClockFunc(func() time.Time { return now })

	s := NewState(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	s = SelectDay(s, NewDate(2020, 1, 2))
	s = SelectAppointment(s, "appt-1")
	s = Today(s, clock)

	assert.True(t, WeekOf(s.Reference).Contains(clock.Now()))
	require.NotNil(t, s.SelectedDate)
	assert.Equal(t, "appt-1", s.SelectedAppointmentID)
}

func TestReducersDoNotMutateInput(t *testing.T) {
	s := NewState(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
	_ = NextWeek(s)
	_ = SelectDay(s, NewDate(2026, 10, 16))
	assert.Nil(t, s.SelectedDate)
	assert.Equal(t, 15, s.Reference.Day())
}

func TestIndicator(t *testing.T) {
	l := DefaultLayout()
	w := WeekOf(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))

	in := l.Indicator(time.Date(2026, 10, 15, 13, 30, 0, 0, time.UTC), w)
	assert.Equal(t, Indicator{Visible: true, DayIndex: 4, TopPx: 648}, in)

	out := l.Indicator(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), w)
	assert.False(t, out.Visible)
}

func TestBuildWeek(t *testing.T) {
	ref := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "1", Date: NewDate(2026, 10, 12), Start: MustTimeOfDay(9, 0), End: MustTimeOfDay(9, 30), Type: "CONSULTATION"},
		{ID: "2", Date: NewDate(2026, 10, 12), Start: MustTimeOfDay(14, 0), End: MustTimeOfDay(15, 30), Type: "CHECKUP"},
		{ID: "3", Date: NewDate(2026, 10, 20), Start: MustTimeOfDay(8, 0), End: MustTimeOfDay(9, 0)},
		{ID: "4", Date: NewDate(2026, 10, 17), Start: MustTimeOfDay(10, 0), End: MustTimeOfDay(9, 0)},
	}

	week := BuildWeek(ref, entries, DefaultLayout(), now)

	require.Len(t, week.Days, 7)
	assert.Len(t, week.Hours, 24)
	keys := make([]string, len(week.Days))
	for i, d := range week.Days {
		keys[i] = d.Key
		assert.Equal(t, time.Weekday(i), d.Weekday)
	}
	wantKeys := []string{"2026-10-11", "2026-10-12", "2026-10-13", "2026-10-14", "2026-10-15", "2026-10-16", "2026-10-17"}
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Errorf("day keys mismatch (-want +got):\n%s", diff)
	}

	monday := week.Days[1].Entries
	require.Len(t, monday, 2)
	assert.Equal(t, Rect{TopPx: 432, HeightPx: 48}, monday[0].Rect)
	assert.Equal(t, Rect{TopPx: 672, HeightPx: 68}, monday[1].Rect)

	assert.Empty(t, week.Days[0].Entries)
	assert.NotNil(t, week.Days[0].Entries)

	degenerate := week.Degenerate()
	require.Len(t, degenerate, 1)
	assert.Equal(t, "4", degenerate[0].ID)

	assert.Equal(t, Indicator{Visible: true, DayIndex: 3, TopPx: 576}, week.Indicator)
}

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]int{"00:00": 0, "09:05": 545, "23:59": 1439, "24:00": 1440, "14:30:00": 870}
	for in, want := range valid {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Minutes(), in)
	}
	for _, in := range []string{"", "9:00", "24:01", "12:60", "ab:cd", "-1:00", "12:00:61", "12", "+9:00", "09:+5", "09:-5", " 9:00", "0x:10", "12:00:+1"} {
		_, err := ParseTimeOfDay(in)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, in)
	}
}

func TestTimeOfDayCodecs(t *testing.T) {
	var v TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"08:15"`), &v))
	assert.Equal(t, "08:15", v.String())
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"08:15"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &v))
	assert.ErrorIs(t, json.Unmarshal([]byte(`"+9:00"`), &v), ErrInvalidTimeOfDay)
	assert.Equal(t, "08:15", v.String())

	require.NoError(t, v.Scan([]byte("17:45:00.000000")))
	assert.Equal(t, 17*60+45, v.Minutes())
	dv, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "17:45:00", dv)
}

func TestDateCodecs(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 10, 15, 0, 0, 0, 0, time.FixedZone("WIB", 7*3600))))
	assert.Equal(t, "2026-10-15", d.Key())

	require.NoError(t, json.Unmarshal([]byte(`"2026-02-28"`), &d))
	assert.Equal(t, "2026-03-01", d.AddDays(1).Key())

	_, err := ParseDate("15/10/2026")
	assert.Error(t, err)
}
