package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/sirupsen/logrus"
)

// DaySchedule is one weekday of a submitted weekly schedule
type DaySchedule struct {
	Day       string
	Enabled   bool
	StartTime string
	EndTime   string
}

// ScheduleService is the availability rule store
type ScheduleService struct {
	rooms   RoomStore
	rules   RuleStore
	auditor Auditor
	logger  *logrus.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(rooms RoomStore, rules RuleStore, auditor Auditor, logger *logrus.Logger) *ScheduleService {
	return &ScheduleService{rooms: rooms, rules: rules, auditor: auditor, logger: logger}
}

// GetWeeklySchedule returns the room's rules ordered Monday through Sunday
func (s *ScheduleService) GetWeeklySchedule(ctx context.Context, roomID uuid.UUID) ([]models.AvailabilityRule, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, notFound("room", err)
	}
	return s.rules.ListByRoom(ctx, roomID)
}

// GetRule returns the rule for one weekday, or nil when the room is closed that day
func (s *ScheduleService) GetRule(ctx context.Context, roomID uuid.UUID, day scheduling.DayOfWeek) (*models.AvailabilityRule, error) {
	return s.rules.GetForDay(ctx, roomID, day)
}

// SetWeeklySchedule replaces the room's whole weekly schedule with the enabled days of schedule.
// Days that are missing or disabled end up closed.
func (s *ScheduleService) SetWeeklySchedule(ctx context.Context, actor Actor, roomID uuid.UUID, schedule []DaySchedule) ([]models.AvailabilityRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, notFound("room", err)
	}
	if !room.IsActive {
		return nil, newValidationError("room_id", "schedules cannot be edited on an inactive room")
	}

	rules, err := buildRules(schedule)
	if err != nil {
		return nil, err
	}

	saved, err := s.rules.ReplaceForRoom(ctx, roomID, rules)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(saved))
	for _, r := range saved {
		days = append(days, fmt.Sprintf("%s %s", r.DayOfWeek, r.Window()))
	}
	s.logger.WithFields(logrus.Fields{"room_id": roomID, "days": len(saved)}).Info("Weekly schedule replaced")
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionScheduleReplace,
		EntityType: EntitySchedule,
		EntityID:   &roomID,
		Details:    map[string]interface{}{"rules": days},
	})
	return saved, nil
}

func buildRules(schedule []DaySchedule) ([]models.AvailabilityRule, error) {
	verr := &ValidationError{}
	seen := map[scheduling.DayOfWeek]bool{}
	rules := []models.AvailabilityRule{}

	for i, entry := range schedule {
		field := fmt.Sprintf("schedule[%d]", i)
		day, err := scheduling.ParseDayOfWeek(entry.Day)
		if err != nil {
			verr.Add(field+".day", err.Error())
			continue
		}
		if seen[day] {
			verr.Add(field+".day", fmt.Sprintf("%s appears more than once", day))
			continue
		}
		seen[day] = true

		if !entry.Enabled {
			continue
		}
		window, err := scheduling.ParseTimeRange(entry.StartTime, entry.EndTime)
		if err != nil {
			verr.Add(field, err.Error())
			continue
		}
		rules = append(rules, models.AvailabilityRule{
			DayOfWeek: day,
			StartTime: window.Start,
			EndTime:   window.End,
		})
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return rules, nil
}
