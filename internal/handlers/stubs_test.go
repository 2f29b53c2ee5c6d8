package handlers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/middleware"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// stubServices implements every handler-facing service interface. Calls are recorded
// and answered from the preset fields.
type stubServices struct {
	err error

	room       *models.Room
	rooms      []models.Room
	rules      []models.AvailabilityRule
	block      *models.UnavailabilityBlock
	blocks     []models.UnavailabilityBlock
	day        *services.DayAvailability
	conflicts  []models.ReservationConflict
	res        *models.Reservation
	ledger     []models.Reservation
	login      *models.AdminLoginResponse
	admin      *models.AdminUser
	events     []models.AuditLog
	activeOnly bool

	actor        services.Actor
	id           uuid.UUID
	roomInput    services.RoomInput
	roomFilter   models.RoomFilter
	schedule     []services.DaySchedule
	blockInput   services.BlockInput
	blockFilter  models.BlockFilter
	date         string
	booking      services.BookingInput
	ledgerFilter models.ReservationFilter
	status       string
	details      services.DetailsInput
	password     [2]string
	refreshToken string
	auditFilter  models.AuditFilter
}

func (s *stubServices) CreateRoom(_ context.Context, actor services.Actor, input services.RoomInput) (*models.Room, error) {
	s.actor, s.roomInput = actor, input
	return s.room, s.err
}

func (s *stubServices) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	s.id = id
	return s.room, s.err
}

func (s *stubServices) GetActiveRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	s.id = id
	return s.room, s.err
}

func (s *stubServices) ListRooms(_ context.Context, filter models.RoomFilter) ([]models.Room, error) {
	s.roomFilter = filter
	return s.rooms, s.err
}

func (s *stubServices) ListActiveRooms(context.Context) ([]models.Room, error) {
	return s.rooms, s.err
}

func (s *stubServices) UpdateRoom(_ context.Context, actor services.Actor, id uuid.UUID, input services.RoomInput) (*models.Room, error) {
	s.actor, s.id, s.roomInput = actor, id, input
	return s.room, s.err
}

func (s *stubServices) DeactivateRoom(_ context.Context, actor services.Actor, id uuid.UUID) error {
	s.actor, s.id = actor, id
	return s.err
}

func (s *stubServices) GetWeeklySchedule(_ context.Context, roomID uuid.UUID) ([]models.AvailabilityRule, error) {
	s.id = roomID
	return s.rules, s.err
}

func (s *stubServices) SetWeeklySchedule(_ context.Context, actor services.Actor, roomID uuid.UUID, schedule []services.DaySchedule) ([]models.AvailabilityRule, error) {
	s.actor, s.id, s.schedule = actor, roomID, schedule
	return s.rules, s.err
}

func (s *stubServices) CreateBlock(_ context.Context, actor services.Actor, roomID uuid.UUID, input services.BlockInput) (*models.UnavailabilityBlock, error) {
	s.actor, s.id, s.blockInput = actor, roomID, input
	return s.block, s.err
}

func (s *stubServices) ListBlocks(_ context.Context, roomID uuid.UUID, filter models.BlockFilter) ([]models.UnavailabilityBlock, error) {
	s.id, s.blockFilter = roomID, filter
	return s.blocks, s.err
}

func (s *stubServices) DeleteBlock(_ context.Context, actor services.Actor, id uuid.UUID) error {
	s.actor, s.id = actor, id
	return s.err
}

func (s *stubServices) GetSlots(_ context.Context, roomID uuid.UUID, date string, activeOnly bool) (*services.DayAvailability, error) {
	s.id, s.date, s.activeOnly = roomID, date, activeOnly
	return s.day, s.err
}

func (s *stubServices) GetConflicts(_ context.Context, roomID uuid.UUID, date string, activeOnly bool) ([]models.ReservationConflict, error) {
	s.id, s.date, s.activeOnly = roomID, date, activeOnly
	return s.conflicts, s.err
}

func (s *stubServices) BookPublic(_ context.Context, actor services.Actor, input services.BookingInput) (*models.Reservation, error) {
	s.actor, s.booking = actor, input
	return s.res, s.err
}

func (s *stubServices) BookAsAdmin(_ context.Context, actor services.Actor, input services.BookingInput) (*models.Reservation, error) {
	s.actor, s.booking = actor, input
	return s.res, s.err
}

func (s *stubServices) List(_ context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	s.ledgerFilter = filter
	return s.ledger, s.err
}

func (s *stubServices) Get(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	s.id = id
	return s.res, s.err
}

func (s *stubServices) UpdateStatus(_ context.Context, actor services.Actor, id uuid.UUID, status string) (*models.Reservation, error) {
	s.actor, s.id, s.status = actor, id, status
	return s.res, s.err
}

func (s *stubServices) UpdateDetails(_ context.Context, actor services.Actor, id uuid.UUID, input services.DetailsInput) (*models.Reservation, error) {
	s.actor, s.id, s.details = actor, id, input
	return s.res, s.err
}

func (s *stubServices) Delete(_ context.Context, actor services.Actor, id uuid.UUID) error {
	s.actor, s.id = actor, id
	return s.err
}

func (s *stubServices) Login(_ context.Context, actor services.Actor, email, password string) (*models.AdminLoginResponse, error) {
	s.actor, s.password = actor, [2]string{email, password}
	return s.login, s.err
}

func (s *stubServices) RefreshToken(_ context.Context, actor services.Actor, refreshToken string) (*models.AdminLoginResponse, error) {
	s.actor, s.refreshToken = actor, refreshToken
	return s.login, s.err
}

func (s *stubServices) Logout(_ context.Context, refreshToken string) error {
	s.refreshToken = refreshToken
	return s.err
}

func (s *stubServices) GetAdminProfile(_ context.Context, actor services.Actor) (*models.AdminUser, error) {
	s.actor = actor
	return s.admin, s.err
}

func (s *stubServices) ChangePassword(_ context.Context, actor services.Actor, oldPassword, newPassword string) error {
	s.actor, s.password = actor, [2]string{oldPassword, newPassword}
	return s.err
}

func (s *stubServices) ListEvents(_ context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	s.auditFilter = filter
	return s.events, s.err
}

var errDatabaseDown = errors.New("connection refused")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestRouter returns a router whose /api/v1/admin group is authenticated as adminID
func newTestRouter(t *testing.T, adminID uuid.UUID) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	router := gin.New()
	require.NoError(t, router.SetTrustedProxies(nil))
	admin := router.Group("/api/v1/admin", func(c *gin.Context) {
		c.Set(middleware.UserContextKey, middleware.UserContext{UserID: adminID, Roles: []string{"admin"}})
		c.Next()
	})
	return router, admin
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "handler-test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
