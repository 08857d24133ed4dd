package calendar

import "time"

// Entry is the calendar's read-only view of one appointment.
type Entry struct {
	ID      string      `json:"id"`
	Date    Date        `json:"date"`
	Start   TimeOfDay   `json:"start_time"`
	End     TimeOfDay   `json:"end_time"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Placed is an entry together with its block geometry.
type Placed struct {
	Entry
	Rect Rect `json:"rect"`
}

// Day is one column of the week grid.
type Day struct {
	Date    Date         `json:"date"`
	Key     string       `json:"key"`
	Weekday time.Weekday `json:"weekday"`
	Entries []Placed     `json:"entries"`
}

// Week is the full render model for a week view.
type Week struct {
	Window    Window    `json:"window"`
	Days      []Day     `json:"days"`
	Hours     []int     `json:"hours"`
	Indicator Indicator `json:"indicator"`
	Layout    Layout    `json:"layout"`
}

// GroupByDay buckets entries by date key, keeping input order within each bucket.
func GroupByDay(entries []Entry) map[string][]Entry {
	groups := make(map[string][]Entry)
	for _, e := range entries {
		key := e.Date.Key()
		groups[key] = append(groups[key], e)
	}
	return groups
}

// BuildWeek lays out entries for the week containing ref.
// Entries dated outside the window are ignored.
func BuildWeek(ref time.Time, entries []Entry, layout Layout, now time.Time) Week {
	w := WeekOf(ref)
	groups := GroupByDay(entries)

	days := make([]Day, 0, DaysPerWeek)
	for _, d := range w.Days() {
		key := d.Key()
		bucket := groups[key]
		placed := make([]Placed, len(bucket))
		for i, e := range bucket {
			placed[i] = Placed{Entry: e, Rect: layout.Place(e.Start, e.End)}
		}
		days = append(days, Day{Date: d, Key: key, Weekday: d.Weekday(), Entries: placed})
	}

	return Week{
		Window:    w,
		Days:      days,
		Hours:     layout.Hours(),
		Indicator: layout.Indicator(now, w),
		Layout:    layout,
	}
}

// Degenerate returns the placed entries whose end precedes their start.
func (w Week) Degenerate() []Placed {
	var out []Placed
	for _, d := range w.Days {
		for _, p := range d.Entries {
			if p.Rect.Degenerate {
				out = append(out, p)
			}
		}
	}
	return out
}
