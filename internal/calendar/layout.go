package calendar

import (
	"math"
	"time"
)

// Layout holds the pixel geometry of the hour grid.
type Layout struct {
	RowHeightPx float64 `json:"row_height_px"`
	GapPx       float64 `json:"gap_px"`
	MinHeightPx float64 `json:"min_height_px"`
	HoursPerDay int     `json:"hours_per_day"`
}

// DefaultLayout is one 48px row per hour with a 4px gap between blocks.
func DefaultLayout() Layout {
	return Layout{RowHeightPx: 48, GapPx: 4, MinHeightPx: 48, HoursPerDay: 24}
}

// Rect positions an appointment block inside its day column.
type Rect struct {
	TopPx      float64 `json:"top_px"`
	HeightPx   float64 `json:"height_px"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// Place computes the block for an appointment running from start to end.
// An end before start yields a degenerate block of minimum height.
func (l Layout) Place(start, end TimeOfDay) Rect {
	r := Rect{TopPx: start.Hours() * l.RowHeightPx}
	if end.Before(start) {
		r.HeightPx = l.MinHeightPx
		r.Degenerate = true
		return r
	}
	duration := end.Hours() - start.Hours()
	r.HeightPx = math.Max(duration*l.RowHeightPx-l.GapPx, l.MinHeightPx)
	return r
}

// Indicator is the current-time line.
type Indicator struct {
	Visible  bool    `json:"visible"`
	DayIndex int     `json:"day_index"`
	TopPx    float64 `json:"top_px"`
}

// Indicator places the current-time line for now. It is hidden when now is outside w.
func (l Layout) Indicator(now time.Time, w Window) Indicator {
	local := now.In(w.Start.Location())
	if !w.Contains(local) {
		return Indicator{}
	}
	hours := float64(local.Hour()) + float64(local.Minute())/60 + float64(local.Second())/3600
	return Indicator{
		Visible:  true,
		DayIndex: int(local.Weekday()),
		TopPx:    hours * l.RowHeightPx,
	}
}

// Hours returns the row labels 0..HoursPerDay-1.
func (l Layout) Hours() []int {
	hours := make([]int, l.HoursPerDay)
	for i := range hours {
		hours[i] = i
	}
	return hours
}
