package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ErrInvalidTimeOfDay reports a malformed or out-of-range clock time.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// TimeOfDay is a wall-clock time with minute precision. 24:00 is allowed as an end of day marker.
type TimeOfDay struct {
	minutes int
}

// NewTimeOfDay validates h and m.
func NewTimeOfDay(h, m int) (TimeOfDay, error) {
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, h, m)
	}
	return TimeOfDay{minutes: h*60 + m}, nil
}

// MustTimeOfDay is NewTimeOfDay for constants. It panics on invalid input.
func MustTimeOfDay(h, m int) TimeOfDay {
	t, err := NewTimeOfDay(h, m)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay accepts "HH:MM" and the "HH:MM:SS" form Postgres returns for TIME columns.
// Seconds are truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, ok := twoDigits(p)
		if !ok {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		nums[i] = n
	}
	if len(nums) == 3 && (nums[2] < 0 || nums[2] > 59 || (nums[0] == 24 && nums[2] != 0)) {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return NewTimeOfDay(nums[0], nums[1])
}

// twoDigits parses exactly two ASCII digits. Signs and spaces are rejected.
func twoDigits(p string) (int, bool) {
	if len(p) != 2 || p[0] < '0' || p[0] > '9' || p[1] < '0' || p[1] > '9' {
		return 0, false
	}
	return int(p[0]-'0')*10 + int(p[1]-'0'), true
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{minutes: t.Hour()*60 + t.Minute()}
}

// Minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.minutes }

// Hours returns the fractional hour, e.g. 14:30 is 14.5.
func (t TimeOfDay) Hours() float64 { return float64(t.minutes) / 60 }

// Before reports whether t is strictly earlier than o.
func (t TimeOfDay) Before(o TimeOfDay) bool { return t.minutes < o.minutes }

// Sub returns the duration from o to t. It is negative when t is before o.
func (t TimeOfDay) Sub(o TimeOfDay) time.Duration {
	return time.Duration(t.minutes-o.minutes) * time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

// On combines t with the date d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	y, m, day := d.t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc).Add(time.Duration(t.minutes) * time.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: expected \"HH:MM\" string", ErrInvalidTimeOfDay)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan reads a Postgres TIME value.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return t.scanString(v)
	case []byte:
		return t.scanString(string(v))
	case time.Time:
		*t = ClockOf(v)
		return nil
	case nil:
		return fmt.Errorf("%w: NULL", ErrInvalidTimeOfDay)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeOfDay, src)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	// drop fractional seconds
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value writes the HH:MM:SS form.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}
