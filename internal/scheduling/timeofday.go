package scheduling

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ErrInvalidTime is returned for strings that are not a valid "HH:MM" wall-clock time.
var ErrInvalidTime = errors.New("time must be in HH:MM 24-hour format")

// ErrInvalidDate is returned for strings that are not a valid "YYYY-MM-DD" date.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// ErrEmptyRange is returned when a range does not end after it starts.
var ErrEmptyRange = errors.New("end time must be after start time")

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// TimeOfDay is a wall-clock time without date or timezone, stored as minutes after midnight.
// "24:00" is accepted so a window can run to the end of the day.
type TimeOfDay struct {
	minutes int
}

// NewTimeOfDay builds a TimeOfDay from hour and minute components.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return TimeOfDay{}, ErrInvalidTime
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// MustTimeOfDay is NewTimeOfDay for constants; it panics on invalid input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(fmt.Sprintf("scheduling: invalid time %q: %v", s, err))
	}
	return t
}

// ParseTimeOfDay parses "HH:MM". A trailing ":00" seconds component is tolerated so values read
// back from SQL TIME columns round-trip.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && strings.HasSuffix(s, ":00") {
		s = s[:5]
	}
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return TimeOfDay{}, ErrInvalidTime
	}
	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return TimeOfDay{}, ErrInvalidTime
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil {
		return TimeOfDay{}, ErrInvalidTime
	}
	return NewTimeOfDay(hour, minute)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Hour returns the whole-hour component, truncating any minutes.
func (t TimeOfDay) Hour() int { return t.minutes / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return t.minutes % 60 }

// Minutes returns the number of minutes after midnight.
func (t TimeOfDay) Minutes() int { return t.minutes }

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Scan implements sql.Scanner for VARCHAR and TIME columns.
func (t *TimeOfDay) Scan(v any) error {
	switch x := v.(type) {
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	case time.Time:
		t.minutes = x.Hour()*60 + x.Minute()
		return nil
	case nil:
		return fmt.Errorf("scheduling: cannot scan NULL into TimeOfDay")
	default:
		return fmt.Errorf("scheduling: unsupported Scan type %T for TimeOfDay", v)
	}
}

func (t *TimeOfDay) parse(s string) error {
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer, storing the canonical "HH:MM" form.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}

// TimeRange is a half-open interval [Start, End) within one day.
type TimeRange struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// NewTimeRange validates that end is after start.
func NewTimeRange(start, end TimeOfDay) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, ErrEmptyRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseTimeRange parses two "HH:MM" strings into a validated range.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, fmt.Errorf("start time: %w", err)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, fmt.Errorf("end time: %w", err)
	}
	return NewTimeRange(s, e)
}

// MustTimeRange is ParseTimeRange for tests and constants.
func MustTimeRange(start, end string) TimeRange {
	r, err := ParseTimeRange(start, end)
	if err != nil {
		panic(fmt.Sprintf("scheduling: invalid range %s-%s: %v", start, end, err))
	}
	return r
}

// Overlaps reports whether two half-open ranges share at least one minute.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.minutes < other.End.minutes && other.Start.minutes < r.End.minutes
}

// Contains reports whether other lies entirely inside r.
func (r TimeRange) Contains(other TimeRange) bool {
	return r.Start.minutes <= other.Start.minutes && other.End.minutes <= r.End.minutes
}

// ContainsHour applies the whole-hour containment rule used by the slot grid:
// hour h is inside [start, end) when h >= start hour and h < end hour. Minutes are truncated,
// so 14:00-16:30 contains 14 and 15 but not 16.
func (r TimeRange) ContainsHour(h int) bool {
	return h >= r.Start.Hour() && h < r.End.Hour()
}

// HourRange is the one-hour range [h:00, h+1:00).
func HourRange(h int) TimeRange {
	return TimeRange{Start: TimeOfDay{minutes: h * 60}, End: TimeOfDay{minutes: (h + 1) * 60}}
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// ParseDate parses a "YYYY-MM-DD" calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// FormatDate renders a date in the storage layout.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}
