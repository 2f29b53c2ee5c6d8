package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek names a weekday the way availability rules store it.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// Week lists the weekdays in display order.
var Week = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDayOfWeek accepts any casing of the English weekday name.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	d := DayOfWeek(strings.ToLower(strings.TrimSpace(s)))
	if d.Index() < 0 {
		return "", fmt.Errorf("invalid day of week %q", s)
	}
	return d, nil
}

// Index returns the position of d in Week, or -1 when d is not a weekday.
func (d DayOfWeek) Index() int {
	for i, w := range Week {
		if w == d {
			return i
		}
	}
	return -1
}

// FromWeekday converts a time.Weekday.
func FromWeekday(w time.Weekday) DayOfWeek {
	if w == time.Sunday {
		return Sunday
	}
	return Week[int(w)-1]
}

// WeekdayOf returns the weekday of a calendar date.
func WeekdayOf(date time.Time) DayOfWeek {
	return FromWeekday(date.Weekday())
}
