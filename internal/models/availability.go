package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

// ============================================================================
// AVAILABILITY RULES (room_availability table)
// ============================================================================

// AvailabilityRule is a recurring weekly opening window for one room.
// At most one rule exists per (room, day_of_week).
type AvailabilityRule struct {
	ID        uuid.UUID            `db:"id" json:"id"`
	RoomID    uuid.UUID            `db:"room_id" json:"room_id"`
	DayOfWeek scheduling.DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime scheduling.TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   scheduling.TimeOfDay `db:"end_time" json:"end_time"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// Window returns the rule as a time range
func (r AvailabilityRule) Window() scheduling.TimeRange {
	return scheduling.TimeRange{Start: r.StartTime, End: r.EndTime}
}

// ============================================================================
// UNAVAILABILITY BLOCKS (room_unavailability table)
// ============================================================================

// UnavailabilityBlock closes a room for part of a specific date
type UnavailabilityBlock struct {
	ID        uuid.UUID            `db:"id" json:"id"`
	RoomID    uuid.UUID            `db:"room_id" json:"room_id"`
	Date      string               `db:"date" json:"date"`
	StartTime scheduling.TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   scheduling.TimeOfDay `db:"end_time" json:"end_time"`
	Reason    *string              `db:"reason" json:"reason,omitempty"`
	CreatedBy *uuid.UUID           `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`

	// Active reservations the block overlapped when it was created. They are not cancelled.
	OverlappingReservations []uuid.UUID `db:"-" json:"overlapping_reservations,omitempty"`
}

// Range returns the blocked time range
func (b UnavailabilityBlock) Range() scheduling.TimeRange {
	return scheduling.TimeRange{Start: b.StartTime, End: b.EndTime}
}

// BlockFilter narrows block listings for a room. Date takes precedence over From/To.
type BlockFilter struct {
	Date string
	From string
	To   string
}
