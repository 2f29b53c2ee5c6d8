package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/sirupsen/logrus"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RoomInput carries the writable fields of a room. Nil pointers leave a field unchanged on update.
type RoomInput struct {
	Name        *string
	Description *string
	Capacity    *int
	Equipment   []string
	Color       *string
	IsActive    *bool
}

// RoomService is the room registry
type RoomService struct {
	rooms   RoomStore
	auditor Auditor
	logger  *logrus.Logger
}

// NewRoomService creates a new RoomService
func NewRoomService(rooms RoomStore, auditor Auditor, logger *logrus.Logger) *RoomService {
	return &RoomService{rooms: rooms, auditor: auditor, logger: logger}
}

// CreateRoom registers a new active room
func (s *RoomService) CreateRoom(ctx context.Context, actor Actor, input RoomInput) (*models.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	room := &models.Room{
		Color:     models.DefaultRoomColor,
		IsActive:  true,
		Equipment: pq.StringArray{},
		CreatedBy: actor.UserID,
	}
	if input.Name == nil {
		return nil, newValidationError("name", "name is required")
	}
	if err := applyRoomInput(room, input); err != nil {
		return nil, err
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"room_id": room.ID, "name": room.Name}).Info("Room created")
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionRoomCreate,
		EntityType: EntityRoom,
		EntityID:   &room.ID,
		Details:    map[string]interface{}{"name": room.Name},
	})
	return room, nil
}

// GetRoom returns any room, active or not
func (s *RoomService) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("room", err)
	}
	return room, nil
}

// GetActiveRoom returns a room only if it can be booked
func (s *RoomService) GetActiveRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, entityNotFound("room")
	}
	return room, nil
}

// ListRooms returns rooms for the admin surface
func (s *RoomService) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	return s.rooms.List(ctx, filter)
}

// ListActiveRooms returns the rooms offered on public booking surfaces, by name
func (s *RoomService) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	active := true
	return s.rooms.List(ctx, models.RoomFilter{Active: &active})
}

// UpdateRoom applies a partial update. Setting IsActive reactivates or deactivates the room.
func (s *RoomService) UpdateRoom(ctx context.Context, actor Actor, id uuid.UUID, input RoomInput) (*models.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("room", err)
	}
	if err := applyRoomInput(room, input); err != nil {
		return nil, err
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, notFound("room", err)
	}

	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionRoomUpdate,
		EntityType: EntityRoom,
		EntityID:   &room.ID,
		Details:    map[string]interface{}{"name": room.Name, "is_active": room.IsActive},
	})
	return room, nil
}

// DeactivateRoom soft-deletes a room. Its rules, blocks and reservations are retained.
func (s *RoomService) DeactivateRoom(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.rooms.SetActive(ctx, id, false); err != nil {
		return notFound("room", err)
	}

	s.logger.WithField("room_id", id).Info("Room deactivated")
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionRoomDeactivate,
		EntityType: EntityRoom,
		EntityID:   &id,
	})
	return nil
}

func applyRoomInput(room *models.Room, input RoomInput) error {
	verr := &ValidationError{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			verr.Add("name", "name is required")
		}
		room.Name = name
	}
	if input.Description != nil {
		room.Description = trimmedOrNil(*input.Description)
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			verr.Add("capacity", "capacity must be a positive integer")
		}
		capacity := *input.Capacity
		room.Capacity = &capacity
	}
	if input.Equipment != nil {
		equipment := pq.StringArray{}
		for _, item := range input.Equipment {
			if item = strings.TrimSpace(item); item != "" {
				equipment = append(equipment, item)
			}
		}
		room.Equipment = equipment
	}
	if input.Color != nil {
		color := strings.TrimSpace(*input.Color)
		if color == "" {
			color = models.DefaultRoomColor
		}
		if !colorPattern.MatchString(color) {
			verr.Add("color", "color must be a hex value like #3b82f6")
		}
		room.Color = color
	}
	if input.IsActive != nil {
		room.IsActive = *input.IsActive
	}

	return verr.OrNil()
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
