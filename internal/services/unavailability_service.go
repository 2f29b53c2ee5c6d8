package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/sirupsen/logrus"
)

// BlockInput is a request to close a room for part of a date
type BlockInput struct {
	Date      string
	StartTime string
	EndTime   string
	Reason    string
}

// UnavailabilityService is the unavailability block store
type UnavailabilityService struct {
	rooms   RoomStore
	blocks  BlockStore
	auditor Auditor
	logger  *logrus.Logger
}

// NewUnavailabilityService creates a new UnavailabilityService
func NewUnavailabilityService(rooms RoomStore, blocks BlockStore, auditor Auditor, logger *logrus.Logger) *UnavailabilityService {
	return &UnavailabilityService{rooms: rooms, blocks: blocks, auditor: auditor, logger: logger}
}

// CreateBlock closes roomID for the given range. A block on a day without a rule is allowed.
// Reservations it overlaps stay in place and are listed on the returned block.
func (s *UnavailabilityService) CreateBlock(ctx context.Context, actor Actor, roomID uuid.UUID, input BlockInput) (*models.UnavailabilityBlock, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, notFound("room", err)
	}

	verr := &ValidationError{}
	date, err := scheduling.ParseDate(input.Date)
	if err != nil {
		verr.Add("date", "date must be YYYY-MM-DD")
	}
	window, err := scheduling.ParseTimeRange(input.StartTime, input.EndTime)
	if err != nil {
		verr.Add("time", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	block := &models.UnavailabilityBlock{
		RoomID:    roomID,
		Date:      scheduling.FormatDate(date),
		StartTime: window.Start,
		EndTime:   window.End,
		Reason:    trimmedOrNil(input.Reason),
		CreatedBy: actor.UserID,
	}
	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, err
	}

	details := map[string]interface{}{"room_id": roomID.String(), "date": block.Date, "range": window.String()}
	fields := logrus.Fields{"room_id": roomID, "date": block.Date, "range": window.String()}
	if len(block.OverlappingReservations) > 0 {
		ids := make([]string, 0, len(block.OverlappingReservations))
		for _, id := range block.OverlappingReservations {
			ids = append(ids, id.String())
		}
		details["overlapping_reservations"] = ids
		fields["overlapping_reservations"] = len(ids)
		s.logger.WithFields(fields).Warn("Unavailability block overlaps existing reservations")
	} else {
		s.logger.WithFields(fields).Info("Unavailability block created")
	}
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionBlockCreate,
		EntityType: EntityBlock,
		EntityID:   &block.ID,
		Details:    details,
	})
	return block, nil
}

// ListBlocks returns a room's blocks, optionally narrowed to a date or date range
func (s *UnavailabilityService) ListBlocks(ctx context.Context, roomID uuid.UUID, filter models.BlockFilter) ([]models.UnavailabilityBlock, error) {
	verr := &ValidationError{}
	for field, value := range map[string]string{"date": filter.Date, "from": filter.From, "to": filter.To} {
		if value == "" {
			continue
		}
		if _, err := scheduling.ParseDate(value); err != nil {
			verr.Add(field, "must be YYYY-MM-DD")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, notFound("room", err)
	}
	return s.blocks.ListByRoom(ctx, roomID, filter)
}

// DeleteBlock removes a block
func (s *UnavailabilityService) DeleteBlock(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	block, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return notFound("unavailability block", err)
	}
	if err := s.blocks.Delete(ctx, id); err != nil {
		return notFound("unavailability block", err)
	}

	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionBlockDelete,
		EntityType: EntityBlock,
		EntityID:   &id,
		Details:    map[string]interface{}{"room_id": block.RoomID.String(), "date": block.Date, "range": block.Range().String()},
	})
	return nil
}
