package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
)

const roomColumns = `id, name, description, capacity, equipment, color, is_active, created_by, created_at, updated_at`

// RoomRepository handles rooms database operations
type RoomRepository struct {
	db DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room and fills in its generated fields
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (name, description, capacity, equipment, color, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		room.Name,
		room.Description,
		room.Capacity,
		room.Equipment,
		room.Color,
		room.IsActive,
		room.CreatedBy,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", translateError(err))
	}
	return nil
}

// GetByID returns a room regardless of its active flag
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", id, translateError(err))
	}
	return &room, nil
}

// List returns rooms ordered by name
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	args := []interface{}{}
	if filter.Active != nil {
		query += ` WHERE is_active = $1`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY name ASC, created_at ASC`

	rooms := []models.Room{}
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// Update writes every mutable column of the room
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $2, description = $3, capacity = $4, equipment = $5, color = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		room.ID,
		room.Name,
		room.Description,
		room.Capacity,
		room.Equipment,
		room.Color,
		room.IsActive,
	).Scan(&room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", room.ID, translateError(err))
	}
	return nil
}

// SetActive flips the soft-delete flag. Rules, blocks and reservations are left untouched.
func (r *RoomRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE rooms SET is_active = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set room %s active=%t: %w", id, active, err)
	}
	return expectOneRow(result, "room", id)
}
