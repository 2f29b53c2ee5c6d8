package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

// RoomStore is the persistence the room registry needs
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// RuleStore is the persistence for weekly availability rules
type RuleStore interface {
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.AvailabilityRule, error)
	GetForDay(ctx context.Context, roomID uuid.UUID, day scheduling.DayOfWeek) (*models.AvailabilityRule, error)
	ReplaceForRoom(ctx context.Context, roomID uuid.UUID, rules []models.AvailabilityRule) ([]models.AvailabilityRule, error)
}

// BlockStore is the persistence for unavailability blocks
type BlockStore interface {
	Create(ctx context.Context, block *models.UnavailabilityBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UnavailabilityBlock, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID, filter models.BlockFilter) ([]models.UnavailabilityBlock, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReservationStore is the reservation ledger
type ReservationStore interface {
	Book(ctx context.Context, res *models.Reservation, check database.BookingCheck) error
	LoadDayState(ctx context.Context, roomID uuid.UUID, date string) (scheduling.DayState, error)
	ListActiveForDate(ctx context.Context, roomID uuid.UUID, date string) ([]models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error
	UpdateDetails(ctx context.Context, res *models.Reservation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminUserStore is the persistence for admin accounts
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	Create(ctx context.Context, admin *models.AdminUser) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Auditor records state changes
type Auditor interface {
	Record(ctx context.Context, event AuditEvent)
}

// Actor identifies who performed an operation. A nil UserID means an anonymous public caller.
type Actor struct {
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
}

// AdminActor builds an actor for an authenticated admin
func AdminActor(userID uuid.UUID, ip, userAgent string) Actor {
	return Actor{UserID: &userID, IPAddress: ip, UserAgent: userAgent}
}

// PublicActor builds an actor for an anonymous caller
func PublicActor(ip, userAgent string) Actor {
	return Actor{IPAddress: ip, UserAgent: userAgent}
}

// requireAdmin rejects anonymous actors on admin-only operations
func requireAdmin(actor Actor) error {
	if actor.UserID == nil || *actor.UserID == uuid.Nil {
		return ErrNotAuthenticated
	}
	return nil
}

// RefreshTokenStore persists issued admin refresh tokens
type RefreshTokenStore interface {
	Store(ctx context.Context, adminUserID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (*models.AdminRefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForAdmin(ctx context.Context, adminUserID uuid.UUID) error
	UpdateLastUsed(ctx context.Context, token string) error
}
