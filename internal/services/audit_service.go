package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/utils"
	"github.com/sirupsen/logrus"
)

// Audit actions
const (
	ActionRoomCreate           = "room_create"
	ActionRoomUpdate           = "room_update"
	ActionRoomDeactivate       = "room_deactivate"
	ActionScheduleReplace      = "schedule_replace"
	ActionBlockCreate          = "unavailability_create"
	ActionBlockDelete          = "unavailability_delete"
	ActionReservationCreate    = "reservation_create"
	ActionReservationUpdate    = "reservation_update"
	ActionReservationStatus    = "reservation_status_change"
	ActionReservationDelete    = "reservation_delete"
	ActionBookingRateLimited   = "booking_rate_limited"
	ActionAdminLogin           = "admin_login"
	ActionAdminLoginFailed     = "admin_login_failed"
	ActionAdminPasswordChanged = "admin_password_changed"
)

// Audit entity types
const (
	EntityRoom        = "room"
	EntitySchedule    = "room_schedule"
	EntityBlock       = "room_unavailability"
	EntityReservation = "room_reservation"
	EntityAdmin       = "admin_user"
	EntityRateLimit   = "rate_limit"
)

// AuditService handles audit logging for state changes
type AuditService struct {
	db      database.DB
	enabled bool
	logger  *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB, enabled bool, logger *logrus.Logger) *AuditService {
	return &AuditService{
		db:      db,
		enabled: enabled,
		logger:  logger,
	}
}

// AuditEvent represents a state change to be logged
type AuditEvent struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Details    map[string]interface{}
}

// Record appends event to the audit log. Failures are logged and never returned,
// so an audit outage cannot fail the operation being audited.
func (s *AuditService) Record(ctx context.Context, event AuditEvent) {
	if !s.enabled {
		return
	}
	// the caller's request may already be finished
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.logEvent(ctx, event); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":      event.Action,
			"entity_type": event.EntityType,
			"error":       err.Error(),
		}).Error("Failed to write audit event")
	}
}

// logEvent is the internal method that writes to the audit_logs table
func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	details := models.JSONMap{}
	for k, v := range event.Details {
		details[k] = v
	}
	if event.Actor.UserAgent != "" {
		details["device_info"] = utils.ParseUserAgent(event.Actor.UserAgent)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Actor.UserID,
		event.Action,
		event.EntityType,
		event.EntityID,
		nullIfEmpty(event.Actor.IPAddress),
		nullIfEmpty(event.Actor.UserAgent),
		details,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent audit entries, newest first
func (s *AuditService) ListEvents(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE ($1 = '' OR entity_type = $1)
		  AND ($2::uuid IS NULL OR entity_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	events := []models.AuditLog{}
	if err := s.db.SelectContext(ctx, &events, query, filter.EntityType, filter.EntityID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
