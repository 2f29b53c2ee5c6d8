package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservation(roomID uuid.UUID, start, end string) *models.Reservation {
	return &models.Reservation{
		RoomID:       roomID,
		Date:         "2024-06-10",
		StartTime:    scheduling.MustTimeOfDay(start),
		EndTime:      scheduling.MustTimeOfDay(end),
		CustomerName: "Ana",
		Status:       models.ReservationStatusPending,
	}
}

// expectDayState queues the three reads loadDayState performs for a Monday
func expectDayState(mock sqlmock.Sqlmock, roomID uuid.UUID, reservations *sqlmock.Rows) {
	now := time.Now()
	mock.ExpectQuery(`FROM room_availability WHERE room_id = \$1 AND day_of_week = \$2`).
		WithArgs(roomID, "monday").
		WillReturnRows(sqlmock.NewRows(ruleRowColumns).
			AddRow(uuid.NewString(), roomID.String(), "monday", "08:00", "22:00", now, now))
	mock.ExpectQuery(`FROM room_unavailability WHERE room_id = \$1 AND date = \$2`).
		WithArgs(roomID, "2024-06-10").
		WillReturnRows(sqlmock.NewRows(blockRowColumns))
	mock.ExpectQuery(`FROM room_reservations rr JOIN rooms rm (.+) rr.status <> 'cancelled'`).
		WithArgs(roomID, "2024-06-10").
		WillReturnRows(reservations)
}

func TestReservationRepository_Book(t *testing.T) {
	ctx := context.Background()
	opts := scheduling.Options{EnforceRules: true}

	check := func(res *models.Reservation) BookingCheck {
		return func(state scheduling.DayState) error {
			return scheduling.CheckBooking(state, res.Range(), opts)
		}
	}

	t.Run("Inserts when the slot is free", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReservationRepository(db)
		roomID := uuid.New()
		res := newTestReservation(roomID, "10:00", "11:00")
		id := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT name, is_active FROM rooms WHERE id = \$1 FOR UPDATE`).
			WithArgs(roomID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "is_active"}).AddRow("Meeting A", true))
		expectDayState(mock, roomID, sqlmock.NewRows(resRowColumns))
		mock.ExpectQuery(`INSERT INTO room_reservations`).
			WithArgs(roomID, "2024-06-10", "10:00", "11:00", "Ana", nil, nil, nil, nil, "pending", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), now, now))
		mock.ExpectCommit()

		require.NoError(t, repo.Book(ctx, res, check(res)))
		assert.Equal(t, id, res.ID)
		assert.Equal(t, "Meeting A", res.RoomName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects an overlapping reservation without inserting", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReservationRepository(db)
		roomID := uuid.New()
		res := newTestReservation(roomID, "10:00", "11:00")
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(roomID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "is_active"}).AddRow("Meeting A", true))
		expectDayState(mock, roomID, sqlmock.NewRows(resRowColumns).
			AddRow(uuid.NewString(), roomID.String(), "Meeting A", "2024-06-10", "10:30", "11:30",
				"Ben", nil, nil, "Rehearsal", nil, "confirmed", nil, now, now))
		mock.ExpectRollback()

		err := repo.Book(ctx, res, check(res))
		require.Error(t, err)
		assert.True(t, errors.Is(err, scheduling.ErrConflict))
		assert.Equal(t, uuid.Nil, res.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inactive room", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReservationRepository(db)
		roomID := uuid.New()
		res := newTestReservation(roomID, "10:00", "11:00")

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(roomID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "is_active"}).AddRow("Meeting A", false))
		mock.ExpectRollback()

		err := repo.Book(ctx, res, check(res))
		assert.True(t, errors.Is(err, ErrRoomInactive))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing room", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReservationRepository(db)
		roomID := uuid.New()
		res := newTestReservation(roomID, "10:00", "11:00")

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(roomID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "is_active"}))
		mock.ExpectRollback()

		err := repo.Book(ctx, res, check(res))
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reads the day only after the room lock is granted", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.MatchExpectationsInOrder(true)
		repo := NewReservationRepository(db)
		roomID := uuid.New()
		res := newTestReservation(roomID, "10:00", "11:00")
		now := time.Now()

		// The lock is contended. The rival booking commits before it is granted,
		// so the day state read afterwards must already contain it.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT name, is_active FROM rooms WHERE id = \$1 FOR UPDATE`).
			WithArgs(roomID).
			WillDelayFor(20 * time.Millisecond).
			WillReturnRows(sqlmock.NewRows([]string{"name", "is_active"}).AddRow("Meeting A", true))
		expectDayState(mock, roomID, sqlmock.NewRows(resRowColumns).
			AddRow(uuid.NewString(), roomID.String(), "Meeting A", "2024-06-10", "10:00", "11:00",
				"Rival", nil, nil, nil, nil, "pending", nil, now, now))
		mock.ExpectRollback()

		var seen int
		err := repo.Book(ctx, res, func(state scheduling.DayState) error {
			seen = len(state.Bookings)
			return check(res)(state)
		})
		assert.True(t, errors.Is(err, scheduling.ErrConflict))
		assert.Equal(t, 1, seen)
		assert.Equal(t, uuid.Nil, res.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Commit failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReservationRepository(db)
		roomID := uuid.New()
		res := newTestReservation(roomID, "10:00", "11:00")
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"name", "is_active"}).AddRow("Meeting A", true))
		expectDayState(mock, roomID, sqlmock.NewRows(resRowColumns))
		mock.ExpectQuery(`INSERT INTO room_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.NewString(), now, now))
		mock.ExpectCommit().WillReturnError(fmt.Errorf("serialization failure"))

		err := repo.Book(ctx, res, check(res))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit reservation")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReservationRepository_LoadDayState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)
	roomID := uuid.New()
	now := time.Now()

	expectDayState(mock, roomID, sqlmock.NewRows(resRowColumns).
		AddRow(uuid.NewString(), roomID.String(), "Meeting A", "2024-06-10", "14:00", "16:30",
			"Ana", nil, nil, "Rehearsal", nil, "pending", nil, now, now))

	state, err := repo.LoadDayState(context.Background(), roomID, "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, scheduling.Monday, state.Day)
	require.NotNil(t, state.Rule)
	assert.Equal(t, "08:00-22:00", state.Rule.String())
	require.Len(t, state.Bookings, 1)
	assert.Equal(t, "Rehearsal", state.Bookings[0].Purpose)
	assert.False(t, state.Bookings[0].Cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_LoadDayState_InvalidDate(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewReservationRepository(db)

	_, err := repo.LoadDayState(context.Background(), uuid.New(), "2024-02-30")
	assert.True(t, errors.Is(err, scheduling.ErrInvalidDate))
}

func TestReservationRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()
	roomID := uuid.New()

	t.Run("No filter", func(t *testing.T) {
		mock.ExpectQuery(`FROM room_reservations rr JOIN rooms rm ON rm.id = rr.room_id ORDER BY rr.date DESC`).
			WillReturnRows(sqlmock.NewRows(resRowColumns))

		list, err := repo.List(ctx, models.ReservationFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("All filters", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`WHERE rr.room_id = \$1 AND rr.date = \$2 AND rr.status = \$3 ORDER BY (.+) LIMIT \$4 OFFSET \$5`).
			WithArgs(roomID, "2024-06-10", "cancelled", 20, 40).
			WillReturnRows(sqlmock.NewRows(resRowColumns).
				AddRow(uuid.NewString(), roomID.String(), "Meeting A", "2024-06-10", "10:00", "11:00",
					"Ana", "ana@example.com", nil, nil, nil, "cancelled", nil, now, now))

		list, err := repo.List(ctx, models.ReservationFilter{
			RoomID: &roomID,
			Date:   "2024-06-10",
			Status: models.ReservationStatusCancelled,
			Limit:  20,
			Offset: 40,
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "ana@example.com", *list[0].CustomerEmail)
		assert.False(t, list[0].IsActive())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReservationRepository_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE room_reservations SET status = \$2`).
		WithArgs(id, "cancelled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(context.Background(), id, models.ReservationStatusCancelled))

	mock.ExpectExec(`UPDATE room_reservations SET status = \$2`).
		WithArgs(id, "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), id, models.ReservationStatusConfirmed)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM room_reservations WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
