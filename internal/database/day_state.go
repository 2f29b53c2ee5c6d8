package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

// loadDayState reads the rule, blocks and live reservations of one room on one date.
// q is either the pool or an open transaction.
func loadDayState(ctx context.Context, q sqlx.QueryerContext, roomID uuid.UUID, date string) (scheduling.DayState, error) {
	d, err := scheduling.ParseDate(date)
	if err != nil {
		return scheduling.DayState{}, err
	}
	day := scheduling.WeekdayOf(d)

	rule, err := getRuleForDay(ctx, q, roomID, day)
	if err != nil {
		return scheduling.DayState{}, err
	}
	blocks, err := listBlocksForDate(ctx, q, roomID, date)
	if err != nil {
		return scheduling.DayState{}, err
	}
	reservations, err := listActiveReservations(ctx, q, roomID, date)
	if err != nil {
		return scheduling.DayState{}, err
	}

	return BuildDayState(day, rule, blocks, reservations), nil
}

// BuildDayState converts stored rows into resolver input
func BuildDayState(day scheduling.DayOfWeek, rule *models.AvailabilityRule, blocks []models.UnavailabilityBlock, reservations []models.Reservation) scheduling.DayState {
	state := scheduling.DayState{Day: day}
	if rule != nil {
		window := rule.Window()
		state.Rule = &window
	}
	for _, b := range blocks {
		block := scheduling.Block{ID: b.ID.String(), Range: b.Range()}
		if b.Reason != nil {
			block.Reason = *b.Reason
		}
		state.Blocks = append(state.Blocks, block)
	}
	for _, r := range reservations {
		booking := scheduling.Booking{
			ID:           r.ID.String(),
			Range:        r.Range(),
			CustomerName: r.CustomerName,
			Cancelled:    !r.IsActive(),
		}
		if r.Purpose != nil {
			booking.Purpose = *r.Purpose
		}
		state.Bookings = append(state.Bookings, booking)
	}
	return state
}

func wrapDayStateErr(err error, roomID uuid.UUID, date string) error {
	return fmt.Errorf("failed to load day state for room %s on %s: %w", roomID, date, err)
}
