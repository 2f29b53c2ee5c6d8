package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/services"
)

// The interfaces below are the slices of the services package each handler calls.

// RoomAPI is the room registry
type RoomAPI interface {
	CreateRoom(ctx context.Context, actor services.Actor, input services.RoomInput) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetActiveRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, error)
	ListActiveRooms(ctx context.Context) ([]models.Room, error)
	UpdateRoom(ctx context.Context, actor services.Actor, id uuid.UUID, input services.RoomInput) (*models.Room, error)
	DeactivateRoom(ctx context.Context, actor services.Actor, id uuid.UUID) error
}

// ScheduleAPI is the weekly availability rule store
type ScheduleAPI interface {
	GetWeeklySchedule(ctx context.Context, roomID uuid.UUID) ([]models.AvailabilityRule, error)
	SetWeeklySchedule(ctx context.Context, actor services.Actor, roomID uuid.UUID, schedule []services.DaySchedule) ([]models.AvailabilityRule, error)
}

// BlockAPI is the unavailability block store
type BlockAPI interface {
	CreateBlock(ctx context.Context, actor services.Actor, roomID uuid.UUID, input services.BlockInput) (*models.UnavailabilityBlock, error)
	ListBlocks(ctx context.Context, roomID uuid.UUID, filter models.BlockFilter) ([]models.UnavailabilityBlock, error)
	DeleteBlock(ctx context.Context, actor services.Actor, id uuid.UUID) error
}

// AvailabilityAPI is the resolver read path
type AvailabilityAPI interface {
	GetSlots(ctx context.Context, roomID uuid.UUID, date string, activeOnly bool) (*services.DayAvailability, error)
	GetConflicts(ctx context.Context, roomID uuid.UUID, date string, activeOnly bool) ([]models.ReservationConflict, error)
}

// ReservationAPI is the reservation ledger and booking transaction
type ReservationAPI interface {
	BookPublic(ctx context.Context, actor services.Actor, input services.BookingInput) (*models.Reservation, error)
	BookAsAdmin(ctx context.Context, actor services.Actor, input services.BookingInput) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, actor services.Actor, id uuid.UUID, status string) (*models.Reservation, error)
	UpdateDetails(ctx context.Context, actor services.Actor, id uuid.UUID, input services.DetailsInput) (*models.Reservation, error)
	Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error
}

// AdminAuthAPI is admin authentication
type AdminAuthAPI interface {
	Login(ctx context.Context, actor services.Actor, email, password string) (*models.AdminLoginResponse, error)
	RefreshToken(ctx context.Context, actor services.Actor, refreshToken string) (*models.AdminLoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetAdminProfile(ctx context.Context, actor services.Actor) (*models.AdminUser, error)
	ChangePassword(ctx context.Context, actor services.Actor, oldPassword, newPassword string) error
}

// AuditAPI reads the audit log
type AuditAPI interface {
	ListEvents(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

var (
	_ RoomAPI         = (*services.RoomService)(nil)
	_ ScheduleAPI     = (*services.ScheduleService)(nil)
	_ BlockAPI        = (*services.UnavailabilityService)(nil)
	_ AvailabilityAPI = (*services.AvailabilityService)(nil)
	_ ReservationAPI  = (*services.ReservationService)(nil)
	_ AdminAuthAPI    = (*services.AdminAuthService)(nil)
	_ AuditAPI        = (*services.AuditService)(nil)
)
