package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

const ruleColumns = `id, room_id, day_of_week, start_time, end_time, created_at, updated_at`

// AvailabilityRuleRepository handles room_availability database operations
type AvailabilityRuleRepository struct {
	db DB
}

// NewAvailabilityRuleRepository creates a new AvailabilityRuleRepository
func NewAvailabilityRuleRepository(db DB) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{db: db}
}

// ListByRoom returns the room's weekly rules ordered Monday through Sunday
func (r *AvailabilityRuleRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.AvailabilityRule, error) {
	rules := []models.AvailabilityRule{}
	query := `SELECT ` + ruleColumns + ` FROM room_availability WHERE room_id = $1`
	if err := r.db.SelectContext(ctx, &rules, query, roomID); err != nil {
		return nil, fmt.Errorf("failed to list availability rules: %w", err)
	}
	sortRules(rules)
	return rules, nil
}

// GetForDay returns the rule for one weekday, or nil when the room is closed that day
func (r *AvailabilityRuleRepository) GetForDay(ctx context.Context, roomID uuid.UUID, day scheduling.DayOfWeek) (*models.AvailabilityRule, error) {
	return getRuleForDay(ctx, r.db, roomID, day)
}

// ReplaceForRoom atomically swaps the room's whole weekly schedule for rules.
// It holds the room row lock so it cannot interleave with a booking's rule check.
// After it returns the stored set is exactly rules.
func (r *AvailabilityRuleRepository) ReplaceForRoom(ctx context.Context, roomID uuid.UUID, rules []models.AvailabilityRule) ([]models.AvailabilityRule, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRoom(ctx, tx, roomID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_availability WHERE room_id = $1`, roomID); err != nil {
		return nil, fmt.Errorf("failed to clear availability rules: %w", err)
	}

	insert := `
		INSERT INTO room_availability (room_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	saved := make([]models.AvailabilityRule, 0, len(rules))
	for _, rule := range rules {
		rule.RoomID = roomID
		err := tx.QueryRowxContext(ctx, insert, roomID, rule.DayOfWeek, rule.StartTime, rule.EndTime).
			Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert %s rule: %w", rule.DayOfWeek, translateError(err))
		}
		saved = append(saved, rule)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedule: %w", err)
	}

	sortRules(saved)
	return saved, nil
}

func getRuleForDay(ctx context.Context, q sqlx.QueryerContext, roomID uuid.UUID, day scheduling.DayOfWeek) (*models.AvailabilityRule, error) {
	var rules []models.AvailabilityRule
	query := `SELECT ` + ruleColumns + ` FROM room_availability WHERE room_id = $1 AND day_of_week = $2 LIMIT 1`
	if err := sqlx.SelectContext(ctx, q, &rules, query, roomID, day); err != nil {
		return nil, fmt.Errorf("failed to get %s rule: %w", day, err)
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &rules[0], nil
}

func sortRules(rules []models.AvailabilityRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].DayOfWeek.Index() < rules[j].DayOfWeek.Index()
	})
}
