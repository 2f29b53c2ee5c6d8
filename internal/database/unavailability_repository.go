package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/orgdesk/room-scheduler/internal/models"
)

const blockColumns = `id, room_id, date::text AS date, start_time, end_time, reason, created_by, created_at`

// UnavailabilityRepository handles room_unavailability database operations
type UnavailabilityRepository struct {
	db DB
}

// NewUnavailabilityRepository creates a new UnavailabilityRepository
func NewUnavailabilityRepository(db DB) *UnavailabilityRepository {
	return &UnavailabilityRepository{db: db}
}

// Create inserts a block and records the active reservations it overlaps.
// The room row is locked FOR UPDATE first, so the overlap list cannot miss a
// booking committed concurrently for the same room.
func (r *UnavailabilityRepository) Create(ctx context.Context, block *models.UnavailabilityBlock) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRoom(ctx, tx, block.RoomID); err != nil {
		return err
	}

	query := `
		INSERT INTO room_unavailability (room_id, date, start_time, end_time, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err = tx.QueryRowxContext(ctx, query,
		block.RoomID,
		block.Date,
		block.StartTime,
		block.EndTime,
		block.Reason,
		block.CreatedBy,
	).Scan(&block.ID, &block.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create unavailability block: %w", translateError(err))
	}

	reservations, err := listActiveReservations(ctx, tx, block.RoomID, block.Date)
	if err != nil {
		return err
	}
	block.OverlappingReservations = nil
	for _, res := range reservations {
		if res.Range().Overlaps(block.Range()) {
			block.OverlappingReservations = append(block.OverlappingReservations, res.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unavailability block: %w", err)
	}
	return nil
}

// GetByID returns one block
func (r *UnavailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UnavailabilityBlock, error) {
	var block models.UnavailabilityBlock
	query := `SELECT ` + blockColumns + ` FROM room_unavailability WHERE id = $1`
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, fmt.Errorf("failed to get unavailability block %s: %w", id, translateError(err))
	}
	return &block, nil
}

// ListByRoom returns the room's blocks ordered by date and start time
func (r *UnavailabilityRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, filter models.BlockFilter) ([]models.UnavailabilityBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM room_unavailability WHERE room_id = $1`
	args := []interface{}{roomID}

	switch {
	case filter.Date != "":
		args = append(args, filter.Date)
		query += fmt.Sprintf(` AND date = $%d`, len(args))
	default:
		if filter.From != "" {
			args = append(args, filter.From)
			query += fmt.Sprintf(` AND date >= $%d`, len(args))
		}
		if filter.To != "" {
			args = append(args, filter.To)
			query += fmt.Sprintf(` AND date <= $%d`, len(args))
		}
	}
	query += ` ORDER BY date ASC, start_time ASC`

	blocks := []models.UnavailabilityBlock{}
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list unavailability blocks: %w", err)
	}
	return blocks, nil
}

// Delete removes a block
func (r *UnavailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM room_unavailability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete unavailability block %s: %w", id, err)
	}
	return expectOneRow(result, "unavailability block", id)
}

func listBlocksForDate(ctx context.Context, q sqlx.QueryerContext, roomID uuid.UUID, date string) ([]models.UnavailabilityBlock, error) {
	blocks := []models.UnavailabilityBlock{}
	query := `SELECT ` + blockColumns + ` FROM room_unavailability WHERE room_id = $1 AND date = $2 ORDER BY start_time ASC`
	if err := sqlx.SelectContext(ctx, q, &blocks, query, roomID, date); err != nil {
		return nil, fmt.Errorf("failed to list blocks for %s: %w", date, err)
	}
	return blocks, nil
}

// lockRoom takes the room row lock that serialises every write to a room's calendar
func lockRoom(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID) error {
	var id uuid.UUID
	if err := tx.GetContext(ctx, &id, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID); err != nil {
		return fmt.Errorf("failed to lock room %s: %w", roomID, translateError(err))
	}
	return nil
}
