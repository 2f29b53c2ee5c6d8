package scheduling

import (
	"errors"
	"fmt"
)

// Slot grid bounds: whole-hour slots 08:00 through 22:00 inclusive.
const (
	FirstSlotHour = 8
	LastSlotHour  = 22
)

// ErrConflict is the sentinel wrapped by every *ConflictError.
var ErrConflict = errors.New("requested time is not available")

// Block is a date-scoped closure.
type Block struct {
	ID     string
	Range  TimeRange
	Reason string
}

// Booking is a reservation as seen by the resolver.
type Booking struct {
	ID           string
	Range        TimeRange
	CustomerName string
	Purpose      string
	Cancelled    bool
}

// DayState is everything the resolver needs for one room on one date.
// Rule is nil when the room has no opening window on that weekday.
type DayState struct {
	Day      DayOfWeek
	Rule     *TimeRange
	Blocks   []Block
	Bookings []Booking
}

// Options tunes resolution.
type Options struct {
	// EnforceRules makes the weekly opening window a hard constraint. When false the rule is
	// informational and only blocks and reservations close a slot.
	EnforceRules bool
}

// SlotReason explains a slot's state.
type SlotReason string

const (
	SlotOpen     SlotReason = "open"
	SlotClosed   SlotReason = "closed"
	SlotBlocked  SlotReason = "blocked"
	SlotReserved SlotReason = "reserved"
)

// SlotReservation is the public summary of the reservation occupying a slot.
type SlotReservation struct {
	CustomerName string `json:"customer_name"`
	Purpose      string `json:"purpose,omitempty"`
}

// Slot is one whole hour of the availability grid.
type Slot struct {
	Hour        int              `json:"hour"`
	Time        string           `json:"time"`
	Available   bool             `json:"available"`
	Reason      SlotReason       `json:"reason"`
	Reservation *SlotReservation `json:"reservation,omitempty"`
}

// ResolveAvailability computes the slot grid for a day. It is a pure function of its inputs.
// Precedence for unavailable slots: reserved, then blocked, then closed.
// A slot is inside the opening window only when the whole hour is, matching CheckBooking.
func ResolveAvailability(state DayState, opts Options) []Slot {
	slots := make([]Slot, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		slot := Slot{Hour: h, Time: fmt.Sprintf("%02d:00", h), Available: true, Reason: SlotOpen}

		if b := bookingAt(state.Bookings, h); b != nil {
			slot.Available = false
			slot.Reason = SlotReserved
			slot.Reservation = &SlotReservation{CustomerName: b.CustomerName, Purpose: b.Purpose}
		} else if blockAt(state.Blocks, h) {
			slot.Available = false
			slot.Reason = SlotBlocked
		} else if opts.EnforceRules && (state.Rule == nil || !state.Rule.Contains(HourRange(h))) {
			slot.Available = false
			slot.Reason = SlotClosed
		}

		slots = append(slots, slot)
	}
	return slots
}

func bookingAt(bookings []Booking, h int) *Booking {
	for i := range bookings {
		if bookings[i].Cancelled {
			continue
		}
		if bookings[i].Range.ContainsHour(h) {
			return &bookings[i]
		}
	}
	return nil
}

func blockAt(blocks []Block, h int) bool {
	for _, b := range blocks {
		if b.Range.ContainsHour(h) {
			return true
		}
	}
	return false
}

// ConflictReason classifies a rejected booking.
type ConflictReason string

const (
	ConflictClosed       ConflictReason = "closed"
	ConflictOutsideHours ConflictReason = "outside_hours"
	ConflictBlocked      ConflictReason = "blocked"
	ConflictReserved     ConflictReason = "reserved"
)

// ConflictError explains why a requested range cannot be booked.
type ConflictError struct {
	Reason    ConflictReason
	Requested TimeRange
	// Against is the window, block or reservation range that caused the conflict.
	Against TimeRange
	// With is the id of the conflicting block or reservation, if any.
	With string
	Day  DayOfWeek
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ConflictClosed:
		return fmt.Sprintf("room is closed on %s", e.Day)
	case ConflictOutsideHours:
		return fmt.Sprintf("%s is outside opening hours %s", e.Requested, e.Against)
	case ConflictBlocked:
		return fmt.Sprintf("%s overlaps an unavailability block %s", e.Requested, e.Against)
	default:
		return fmt.Sprintf("%s overlaps an existing reservation %s", e.Requested, e.Against)
	}
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// CheckBooking validates a requested range against the day's state at minute precision.
// It is the write-side twin of ResolveAvailability and must run inside the booking transaction.
func CheckBooking(state DayState, requested TimeRange, opts Options) error {
	if opts.EnforceRules {
		if state.Rule == nil {
			return &ConflictError{Reason: ConflictClosed, Requested: requested, Day: state.Day}
		}
		if !state.Rule.Contains(requested) {
			return &ConflictError{Reason: ConflictOutsideHours, Requested: requested, Against: *state.Rule, Day: state.Day}
		}
	}

	for _, b := range state.Blocks {
		if b.Range.Overlaps(requested) {
			return &ConflictError{Reason: ConflictBlocked, Requested: requested, Against: b.Range, With: b.ID, Day: state.Day}
		}
	}

	for _, b := range state.Bookings {
		if b.Cancelled {
			continue
		}
		if b.Range.Overlaps(requested) {
			return &ConflictError{Reason: ConflictReserved, Requested: requested, Against: b.Range, With: b.ID, Day: state.Day}
		}
	}

	return nil
}
