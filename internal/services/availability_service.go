package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

// DayAvailability is the resolved slot grid of one room on one date
type DayAvailability struct {
	RoomID   uuid.UUID             `json:"room_id"`
	RoomName string                `json:"room_name"`
	Date     string                `json:"date"`
	Day      scheduling.DayOfWeek  `json:"day"`
	Rule     *scheduling.TimeRange `json:"rule,omitempty"`
	Slots    []scheduling.Slot     `json:"slots"`
}

// AvailabilityService is the read side of the scheduler
type AvailabilityService struct {
	rooms        RoomStore
	reservations ReservationStore
	opts         scheduling.Options
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(rooms RoomStore, reservations ReservationStore, enforceRules bool) *AvailabilityService {
	return &AvailabilityService{
		rooms:        rooms,
		reservations: reservations,
		opts:         scheduling.Options{EnforceRules: enforceRules},
	}
}

// GetSlots resolves the hourly grid for roomID on date. When activeOnly is set an
// inactive room is reported as not found.
func (s *AvailabilityService) GetSlots(ctx context.Context, roomID uuid.UUID, date string, activeOnly bool) (*DayAvailability, error) {
	if _, err := scheduling.ParseDate(date); err != nil {
		return nil, newValidationError("date", "date must be YYYY-MM-DD")
	}
	room, err := s.room(ctx, roomID, activeOnly)
	if err != nil {
		return nil, err
	}

	state, err := s.reservations.LoadDayState(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	return &DayAvailability{
		RoomID:   room.ID,
		RoomName: room.Name,
		Date:     date,
		Day:      state.Day,
		Rule:     state.Rule,
		Slots:    scheduling.ResolveAvailability(state, s.opts),
	}, nil
}

// GetConflicts lists the non-cancelled reservations of roomID on date
func (s *AvailabilityService) GetConflicts(ctx context.Context, roomID uuid.UUID, date string, activeOnly bool) ([]models.ReservationConflict, error) {
	if _, err := scheduling.ParseDate(date); err != nil {
		return nil, newValidationError("date", "date must be YYYY-MM-DD")
	}
	if _, err := s.room(ctx, roomID, activeOnly); err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListActiveForDate(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	conflicts := make([]models.ReservationConflict, 0, len(reservations))
	for _, r := range reservations {
		if !r.IsActive() {
			continue
		}
		conflicts = append(conflicts, r.ToConflict())
	}
	return conflicts, nil
}

func (s *AvailabilityService) room(ctx context.Context, roomID uuid.UUID, activeOnly bool) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, notFound("room", err)
	}
	if activeOnly && !room.IsActive {
		return nil, entityNotFound("room")
	}
	return room, nil
}
