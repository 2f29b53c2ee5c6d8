package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

const reservationColumns = `
	rr.id, rr.room_id, rm.name AS room_name, rr.date::text AS date, rr.start_time, rr.end_time,
	rr.customer_name, rr.customer_email, rr.customer_phone, rr.purpose, rr.notes,
	rr.status, rr.created_by, rr.created_at, rr.updated_at`

const reservationFrom = ` FROM room_reservations rr JOIN rooms rm ON rm.id = rr.room_id`

// ReservationRepository handles room_reservations database operations
type ReservationRepository struct {
	db DB
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// BookingCheck decides whether a reservation may be inserted given the current
// state of its room and date. A non-nil error aborts the booking.
type BookingCheck func(state scheduling.DayState) error

// Book runs the check-and-insert for one reservation in a single transaction.
//
// The room row is locked FOR UPDATE first, so concurrent bookings for the same
// room queue behind each other and each sees the reservations committed before it.
func (r *ReservationRepository) Book(ctx context.Context, res *models.Reservation, check BookingCheck) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var room struct {
		Name     string `db:"name"`
		IsActive bool   `db:"is_active"`
	}
	err = tx.GetContext(ctx, &room, `SELECT name, is_active FROM rooms WHERE id = $1 FOR UPDATE`, res.RoomID)
	if err != nil {
		return fmt.Errorf("failed to lock room %s: %w", res.RoomID, translateError(err))
	}
	if !room.IsActive {
		return fmt.Errorf("room %s: %w", res.RoomID, ErrRoomInactive)
	}

	state, err := loadDayState(ctx, tx, res.RoomID, res.Date)
	if err != nil {
		return wrapDayStateErr(err, res.RoomID, res.Date)
	}
	if err := check(state); err != nil {
		return err
	}

	insert := `
		INSERT INTO room_reservations (
			room_id, date, start_time, end_time, customer_name, customer_email,
			customer_phone, purpose, notes, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, insert,
		res.RoomID,
		res.Date,
		res.StartTime,
		res.EndTime,
		res.CustomerName,
		res.CustomerEmail,
		res.CustomerPhone,
		res.Purpose,
		res.Notes,
		res.Status,
		res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	res.RoomName = room.Name
	return nil
}

// LoadDayState reads everything the resolver needs for a room and date
func (r *ReservationRepository) LoadDayState(ctx context.Context, roomID uuid.UUID, date string) (scheduling.DayState, error) {
	state, err := loadDayState(ctx, r.db, roomID, date)
	if err != nil {
		return scheduling.DayState{}, wrapDayStateErr(err, roomID, date)
	}
	return state, nil
}

// ListActiveForDate returns non-cancelled reservations of a room on a date, by start time
func (r *ReservationRepository) ListActiveForDate(ctx context.Context, roomID uuid.UUID, date string) ([]models.Reservation, error) {
	return listActiveReservations(ctx, r.db, roomID, date)
}

// List returns reservations matching filter, newest date first.
// Reservations of inactive rooms are included.
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	var conditions []string
	args := []interface{}{}

	if filter.RoomID != nil {
		args = append(args, *filter.RoomID)
		conditions = append(conditions, fmt.Sprintf("rr.room_id = $%d", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("rr.date = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("rr.status = $%d", len(args)))
	}

	query := `SELECT ` + reservationColumns + reservationFrom
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY rr.date DESC, rr.start_time ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	reservations := []models.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// GetByID returns one reservation
func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	query := `SELECT ` + reservationColumns + reservationFrom + ` WHERE rr.id = $1`
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, fmt.Errorf("failed to get reservation %s: %w", id, translateError(err))
	}
	return &res, nil
}

// UpdateStatus moves a reservation to status. The transition itself is validated by the caller.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error {
	query := `UPDATE room_reservations SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	return expectOneRow(result, "reservation", id)
}

// UpdateDetails writes the contact and free-text fields. Time range and room are immutable.
func (r *ReservationRepository) UpdateDetails(ctx context.Context, res *models.Reservation) error {
	query := `
		UPDATE room_reservations
		SET customer_name = $2, customer_email = $3, customer_phone = $4, purpose = $5, notes = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		res.ID,
		res.CustomerName,
		res.CustomerEmail,
		res.CustomerPhone,
		res.Purpose,
		res.Notes,
	).Scan(&res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update reservation %s: %w", res.ID, translateError(err))
	}
	return nil
}

// Delete hard-deletes a reservation
func (r *ReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM room_reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return expectOneRow(result, "reservation", id)
}

func listActiveReservations(ctx context.Context, q sqlx.QueryerContext, roomID uuid.UUID, date string) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	query := `SELECT ` + reservationColumns + reservationFrom + `
		WHERE rr.room_id = $1 AND rr.date = $2 AND rr.status <> 'cancelled'
		ORDER BY rr.start_time ASC`
	if err := sqlx.SelectContext(ctx, q, &reservations, query, roomID, date); err != nil {
		return nil, fmt.Errorf("failed to list reservations for %s: %w", date, err)
	}
	return reservations, nil
}
