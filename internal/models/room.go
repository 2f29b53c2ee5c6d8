package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DefaultRoomColor is used when a room is created without a display color
const DefaultRoomColor = "#3b82f6"

// Room represents a bookable physical room (rooms table).
// Rooms are never hard-deleted; IsActive=false hides them from booking surfaces
// while their rules, blocks and reservations are retained.
type Room struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description *string        `db:"description" json:"description,omitempty"`
	Capacity    *int           `db:"capacity" json:"capacity,omitempty"`
	Equipment   pq.StringArray `db:"equipment" json:"equipment"`
	Color       string         `db:"color" json:"color"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedBy   *uuid.UUID     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// RoomFilter narrows room listings
type RoomFilter struct {
	Active *bool
}
