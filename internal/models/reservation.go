package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a reservation may move from s to next.
// Cancelled is terminal; pending and confirmed move freely between each other.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if !next.IsValid() || s == ReservationStatusCancelled {
		return false
	}
	return true
}

// Reservation is one entry of the booking ledger (room_reservations table)
type Reservation struct {
	ID            uuid.UUID            `db:"id" json:"id"`
	RoomID        uuid.UUID            `db:"room_id" json:"room_id"`
	RoomName      string               `db:"room_name" json:"room_name,omitempty"`
	Date          string               `db:"date" json:"date"`
	StartTime     scheduling.TimeOfDay `db:"start_time" json:"start_time"`
	EndTime       scheduling.TimeOfDay `db:"end_time" json:"end_time"`
	CustomerName  string               `db:"customer_name" json:"customer_name"`
	CustomerEmail *string              `db:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone *string              `db:"customer_phone" json:"customer_phone,omitempty"`
	Purpose       *string              `db:"purpose" json:"purpose,omitempty"`
	Notes         *string              `db:"notes" json:"notes,omitempty"`
	Status        ReservationStatus    `db:"status" json:"status"`
	CreatedBy     *uuid.UUID           `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// Range returns the reserved time range
func (r Reservation) Range() scheduling.TimeRange {
	return scheduling.TimeRange{Start: r.StartTime, End: r.EndTime}
}

// IsActive reports whether the reservation still occupies its time range
func (r Reservation) IsActive() bool {
	return r.Status != ReservationStatusCancelled
}

// ReservationFilter narrows ledger queries; zero values mean "any"
type ReservationFilter struct {
	RoomID *uuid.UUID
	Date   string
	Status ReservationStatus
	Limit  int
	Offset int
}

// ReservationConflict is the public view of a reservation occupying a room,
// returned by GET /room-availability
type ReservationConflict struct {
	StartTime    scheduling.TimeOfDay `json:"startTime"`
	EndTime      scheduling.TimeOfDay `json:"endTime"`
	CustomerName string               `json:"customerName"`
	Purpose      string               `json:"purpose"`
}

// ToConflict converts a reservation to its public conflict summary
func (r Reservation) ToConflict() ReservationConflict {
	c := ReservationConflict{
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		CustomerName: r.CustomerName,
	}
	if r.Purpose != nil {
		c.Purpose = *r.Purpose
	}
	return c
}
