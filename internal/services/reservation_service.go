package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/orgdesk/room-scheduler/pkg/validator"
	"github.com/sirupsen/logrus"
)

// BookingPolicy configures the booking transaction
type BookingPolicy struct {
	EnforceRules bool
	PublicStatus models.ReservationStatus
	Location     *time.Location
}

// BookingLimiter throttles anonymous bookings
type BookingLimiter interface {
	CheckBookingRateLimit(ctx context.Context, ip string) error
	RecordBookingRequest(ctx context.Context, ip string) error
}

// BookingInput is a request to reserve a room
type BookingInput struct {
	RoomID        uuid.UUID
	Date          string
	StartTime     string
	EndTime       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Purpose       string
	Notes         string
	// Status is honoured for admin bookings only; empty means confirmed
	Status string
}

// DetailsInput is a partial update of a reservation's contact and free-text fields
type DetailsInput struct {
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	Purpose       *string
	Notes         *string
}

// ReservationService owns the reservation ledger and the booking transaction
type ReservationService struct {
	reservations ReservationStore
	limiter      BookingLimiter
	contacts     *validator.ContactValidator
	auditor      Auditor
	logger       *logrus.Logger
	policy       BookingPolicy
	now          func() time.Time
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	reservations ReservationStore,
	limiter BookingLimiter,
	auditor Auditor,
	logger *logrus.Logger,
	policy BookingPolicy,
) *ReservationService {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if policy.PublicStatus == "" {
		policy.PublicStatus = models.ReservationStatusPending
	}
	return &ReservationService{
		reservations: reservations,
		limiter:      limiter,
		contacts:     validator.NewContactValidator(),
		auditor:      auditor,
		logger:       logger,
		policy:       policy,
		now:          time.Now,
	}
}

// ============================================================================
// BOOKING TRANSACTION
// ============================================================================

// BookPublic creates a reservation from the anonymous booking surface.
// The status comes from policy; past slots are rejected.
func (s *ReservationService) BookPublic(ctx context.Context, actor Actor, input BookingInput) (*models.Reservation, error) {
	if s.limiter != nil {
		if err := s.limiter.CheckBookingRateLimit(ctx, actor.IPAddress); err != nil {
			var rateLimitErr *RateLimitError
			if errors.As(err, &rateLimitErr) {
				s.auditor.Record(ctx, AuditEvent{
					Actor:      actor,
					Action:     ActionBookingRateLimited,
					EntityType: EntityRateLimit,
					Details:    map[string]interface{}{"retry_after": rateLimitErr.RetryAfter},
				})
			}
			return nil, err
		}
	}

	res, window, err := s.prepare(input, s.policy.PublicStatus, true)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.RecordBookingRequest(ctx, actor.IPAddress); err != nil {
			s.logger.WithError(err).Warn("Failed to record booking request for rate limiting")
		}
	}

	return s.book(ctx, actor, res, window)
}

// BookAsAdmin creates a reservation on behalf of an admin. Status defaults to confirmed.
func (s *ReservationService) BookAsAdmin(ctx context.Context, actor Actor, input BookingInput) (*models.Reservation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	status := models.ReservationStatusConfirmed
	if input.Status != "" {
		status = models.ReservationStatus(strings.ToLower(strings.TrimSpace(input.Status)))
		if status != models.ReservationStatusPending && status != models.ReservationStatusConfirmed {
			return nil, newValidationError("status", "status must be pending or confirmed")
		}
	}

	res, window, err := s.prepare(input, status, false)
	if err != nil {
		return nil, err
	}
	res.CreatedBy = actor.UserID

	return s.book(ctx, actor, res, window)
}

// prepare validates input and builds the reservation to insert
func (s *ReservationService) prepare(input BookingInput, status models.ReservationStatus, rejectPast bool) (*models.Reservation, scheduling.TimeRange, error) {
	verr := &ValidationError{}

	if input.RoomID == uuid.Nil {
		verr.Add("room_id", "room is required")
	}

	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		verr.Add("customer_name", "customer name is required")
	}

	date, dateErr := scheduling.ParseDate(input.Date)
	if dateErr != nil {
		verr.Add("date", "date must be YYYY-MM-DD")
	}

	window, rangeErr := scheduling.ParseTimeRange(input.StartTime, input.EndTime)
	if rangeErr != nil {
		verr.Add("time", rangeErr.Error())
	}

	res := &models.Reservation{
		RoomID:       input.RoomID,
		CustomerName: name,
		Purpose:      trimmedOrNil(input.Purpose),
		Notes:        trimmedOrNil(input.Notes),
		Status:       status,
	}

	if strings.TrimSpace(input.CustomerEmail) != "" {
		email, err := s.contacts.Email.Validate(input.CustomerEmail)
		if err != nil {
			verr.Add("customer_email", err.Error())
		}
		res.CustomerEmail = &email
	}
	if strings.TrimSpace(input.CustomerPhone) != "" {
		phone, err := s.contacts.Phone.Validate(input.CustomerPhone)
		if err != nil {
			verr.Add("customer_phone", err.Error())
		}
		res.CustomerPhone = &phone
	}

	if rejectPast && dateErr == nil && rangeErr == nil && s.startsInPast(date, window.Start) {
		verr.Add("date", "reservations cannot start in the past")
	}

	if err := verr.OrNil(); err != nil {
		return nil, scheduling.TimeRange{}, err
	}

	res.Date = scheduling.FormatDate(date)
	res.StartTime = window.Start
	res.EndTime = window.End
	return res, window, nil
}

func (s *ReservationService) startsInPast(date time.Time, start scheduling.TimeOfDay) bool {
	now := s.now().In(s.policy.Location)
	startAt := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.policy.Location).
		Add(time.Duration(start.Minutes()) * time.Minute)
	return startAt.Before(now)
}

// book runs the atomic check-and-insert. The availability check is re-run inside the
// same transaction that inserts, so two concurrent requests for one slot cannot both succeed.
func (s *ReservationService) book(ctx context.Context, actor Actor, res *models.Reservation, window scheduling.TimeRange) (*models.Reservation, error) {
	opts := scheduling.Options{EnforceRules: s.policy.EnforceRules}
	check := func(state scheduling.DayState) error {
		return scheduling.CheckBooking(state, window, opts)
	}

	if err := s.reservations.Book(ctx, res, check); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, entityNotFound("room")
		case errors.Is(err, database.ErrRoomInactive):
			return nil, newValidationError("room_id", "room is not available for booking")
		case errors.Is(err, ErrSlotConflict):
			s.logger.WithFields(logrus.Fields{
				"room_id": res.RoomID,
				"date":    res.Date,
				"range":   window.String(),
				"reason":  err.Error(),
			}).Info("Booking rejected")
			return nil, err
		default:
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"room_id":        res.RoomID,
		"date":           res.Date,
		"range":          window.String(),
		"status":         res.Status,
	}).Info("Reservation created")
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionReservationCreate,
		EntityType: EntityReservation,
		EntityID:   &res.ID,
		Details: map[string]interface{}{
			"room_id":       res.RoomID.String(),
			"date":          res.Date,
			"range":         window.String(),
			"status":        string(res.Status),
			"customer_name": res.CustomerName,
		},
	})
	return res, nil
}

// ============================================================================
// LEDGER
// ============================================================================

// List returns reservations matching filter, including those of inactive rooms
func (s *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	verr := &ValidationError{}
	if filter.Date != "" {
		if _, err := scheduling.ParseDate(filter.Date); err != nil {
			verr.Add("date", "date must be YYYY-MM-DD")
		}
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		verr.Add("status", "status must be pending, confirmed or cancelled")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		verr.Add("limit", "limit and offset must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return s.reservations.List(ctx, filter)
}

// Get returns one reservation
func (s *ReservationService) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("reservation", err)
	}
	return res, nil
}

// UpdateStatus moves a reservation through its lifecycle. Cancelled is terminal.
func (s *ReservationService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*models.Reservation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	next := models.ReservationStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, newValidationError("status", "status must be pending, confirmed or cancelled")
	}

	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := res.Status
	if !previous.CanTransitionTo(next) {
		return nil, newValidationError("status", "cannot change status of a "+string(previous)+" reservation to "+string(next))
	}

	if err := s.reservations.UpdateStatus(ctx, id, next); err != nil {
		return nil, notFound("reservation", err)
	}
	res.Status = next

	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionReservationStatus,
		EntityType: EntityReservation,
		EntityID:   &id,
		Details:    map[string]interface{}{"from": string(previous), "to": string(next)},
	})
	return res, nil
}

// UpdateDetails changes contact and free-text fields. Room, date and time are immutable;
// moving a booking means cancelling it and booking again.
func (s *ReservationService) UpdateDetails(ctx context.Context, actor Actor, id uuid.UUID, input DetailsInput) (*models.Reservation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	changed := []string{}
	if input.CustomerName != nil {
		name := strings.TrimSpace(*input.CustomerName)
		if name == "" {
			verr.Add("customer_name", "customer name is required")
		}
		res.CustomerName = name
		changed = append(changed, "customer_name")
	}
	if input.CustomerEmail != nil {
		res.CustomerEmail = nil
		if strings.TrimSpace(*input.CustomerEmail) != "" {
			email, err := s.contacts.Email.Validate(*input.CustomerEmail)
			if err != nil {
				verr.Add("customer_email", err.Error())
			}
			res.CustomerEmail = &email
		}
		changed = append(changed, "customer_email")
	}
	if input.CustomerPhone != nil {
		res.CustomerPhone = nil
		if strings.TrimSpace(*input.CustomerPhone) != "" {
			phone, err := s.contacts.Phone.Validate(*input.CustomerPhone)
			if err != nil {
				verr.Add("customer_phone", err.Error())
			}
			res.CustomerPhone = &phone
		}
		changed = append(changed, "customer_phone")
	}
	if input.Purpose != nil {
		res.Purpose = trimmedOrNil(*input.Purpose)
		changed = append(changed, "purpose")
	}
	if input.Notes != nil {
		res.Notes = trimmedOrNil(*input.Notes)
		changed = append(changed, "notes")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.reservations.UpdateDetails(ctx, res); err != nil {
		return nil, notFound("reservation", err)
	}

	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionReservationUpdate,
		EntityType: EntityReservation,
		EntityID:   &id,
		Details:    map[string]interface{}{"fields": changed},
	})
	return res, nil
}

// Delete hard-deletes a reservation
func (s *ReservationService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return notFound("reservation", err)
	}

	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionReservationDelete,
		EntityType: EntityReservation,
		EntityID:   &id,
		Details: map[string]interface{}{
			"room_id":       res.RoomID.String(),
			"date":          res.Date,
			"range":         res.Range().String(),
			"status":        string(res.Status),
			"customer_name": res.CustomerName,
		},
	})
	return nil
}
