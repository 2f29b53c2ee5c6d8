package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublicFixture(t *testing.T) (*stubServices, func(method, path, body string) (int, string)) {
	t.Helper()
	stub := &stubServices{}
	router, _ := newTestRouter(t, uuid.New())
	NewPublicHandler(stub, stub, stub, time.UTC, quietLogger()).Register(router)
	router.GET("/health", HealthCheck(pingerFunc(func(context.Context) error { return stub.err }), "test"))

	return stub, func(method, path, body string) (int, string) {
		w := do(router, method, path, body)
		return w.Code, w.Body.String()
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestPublicHandler_Pages(t *testing.T) {
	stub, call := newPublicFixture(t)
	capacity := 12
	room := models.Room{
		ID: uuid.New(), Name: "Board <Room>", Capacity: &capacity,
		Equipment: []string{"projector", "whiteboard"}, Color: "#10B981", IsActive: true,
	}
	stub.rooms = []models.Room{room}
	stub.room = &room

	code, body := call(http.MethodGet, "/book-room", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "/room-booking?room="+room.ID.String())
	assert.Contains(t, body, "Board &lt;Room&gt;")
	assert.Contains(t, body, "projector, whiteboard")

	code, body = call(http.MethodGet, "/room-booking?room="+room.ID.String(), "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, room.ID.String())
	assert.Contains(t, body, "/room-slots?room=")
	assert.Equal(t, room.ID, stub.id)

	code, body = call(http.MethodGet, "/room-booking", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "room is required")

	stub.err = fmt.Errorf("room %w", services.ErrNotFound)
	code, _ = call(http.MethodGet, "/room-booking?room="+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)

	t.Run("Empty room list", func(t *testing.T) {
		stub.err, stub.rooms = nil, nil
		code, body := call(http.MethodGet, "/book-room", "")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "No rooms are open for booking")
	})
}

func TestPublicHandler_ReadEndpoints(t *testing.T) {
	stub, call := newPublicFixture(t)
	roomID := uuid.New()

	t.Run("Availability returns an empty array", func(t *testing.T) {
		code, body := call(http.MethodGet, "/room-availability?room="+roomID.String()+"&date=2030-06-03", "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[]`, body)
		assert.True(t, stub.activeOnly)
	})

	t.Run("Availability returns conflicts", func(t *testing.T) {
		stub.conflicts = []models.ReservationConflict{{
			StartTime:    scheduling.MustTimeOfDay("10:00"),
			EndTime:      scheduling.MustTimeOfDay("11:30"),
			CustomerName: "Ada",
			Purpose:      "Interview",
		}}
		code, body := call(http.MethodGet, "/room-availability?room="+roomID.String()+"&date=2030-06-03", "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[{"startTime":"10:00","endTime":"11:30","customerName":"Ada","purpose":"Interview"}]`, body)
	})

	t.Run("Slots", func(t *testing.T) {
		stub.day = &services.DayAvailability{RoomID: roomID, Date: "2030-06-03", Day: scheduling.Monday,
			Slots: scheduling.ResolveAvailability(scheduling.DayState{Day: scheduling.Monday}, scheduling.Options{})}
		code, body := call(http.MethodGet, "/room-slots?room="+roomID.String()+"&date=2030-06-03", "")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `"slots":[`)
		assert.Contains(t, body, `"day":"monday"`)
	})

	t.Run("Bad query is plain text", func(t *testing.T) {
		code, body := call(http.MethodGet, "/room-slots?room=nope&date=tomorrow", "")
		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid request: date must be a date in YYYY-MM-DD format; room must be a valid id", body)
	})

	t.Run("Inactive room", func(t *testing.T) {
		stub.err = fmt.Errorf("room %w", services.ErrNotFound)
		defer func() { stub.err = nil }()
		code, _ := call(http.MethodGet, "/room-slots?room="+roomID.String()+"&date=2030-06-03", "")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Store failure", func(t *testing.T) {
		stub.err = errDatabaseDown
		defer func() { stub.err = nil }()
		code, body := call(http.MethodGet, "/room-availability?room="+roomID.String()+"&date=2030-06-03", "")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.NotContains(t, body, "connection refused")
	})
}

func TestPublicHandler_CreateBooking(t *testing.T) {
	stub, call := newPublicFixture(t)
	roomID := uuid.New()
	resID := uuid.New()
	stub.res = &models.Reservation{
		ID: resID, RoomID: roomID, RoomName: "Board Room", Date: "2030-06-03",
		StartTime: scheduling.MustTimeOfDay("09:00"), EndTime: scheduling.MustTimeOfDay("11:00"),
		Status: models.ReservationStatusPending,
	}
	body := fmt.Sprintf(`{"roomId":%q,"date":"2030-06-03","startTime":"09:00","endTime":"11:00","customerName":"Ada","customerEmail":"ada@example.org","purpose":"Interview"}`, roomID)

	t.Run("Success", func(t *testing.T) {
		code, text := call(http.MethodPost, "/room-booking", body)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Booking pending for Board Room on 2030-06-03, 09:00-11:00. Reference: "+resID.String(), text)
		assert.Equal(t, roomID, stub.booking.RoomID)
		assert.Equal(t, "ada@example.org", stub.booking.CustomerEmail)
		assert.Nil(t, stub.actor.UserID)
		assert.NotEmpty(t, stub.actor.IPAddress)
	})

	errorCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "Conflict",
			err: &scheduling.ConflictError{
				Reason:    scheduling.ConflictReserved,
				Requested: scheduling.MustTimeRange("09:00", "11:00"),
				Against:   scheduling.MustTimeRange("10:00", "12:00"),
			},
			want: "09:00-11:00 overlaps an existing reservation 10:00-12:00",
		},
		{
			name: "Validation",
			err:  &services.ValidationError{Fields: map[string]string{"customer_name": "customer name is required"}},
			want: "Validation failed: customer_name: customer name is required",
		},
		{
			name: "Rate limited",
			err:  &services.RateLimitError{Message: "Too many booking requests from this IP address."},
			want: "Too many booking requests from this IP address.",
		},
		{
			name: "Unknown room",
			err:  fmt.Errorf("room %w", services.ErrNotFound),
			want: "The requested room or booking does not exist.",
		},
		{
			name: "Application failure",
			err:  errDatabaseDown,
			want: "Booking could not be completed. Please try again later.",
		},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			stub.err = tc.err
			defer func() { stub.err = nil }()
			code, text := call(http.MethodPost, "/room-booking", body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tc.want, text)
		})
	}

	t.Run("Malformed request", func(t *testing.T) {
		code, text := call(http.MethodPost, "/room-booking", `{"roomId":"x","date":"2030-06-03","startTime":"9","endTime":"10:00"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid request: customerName is required; roomId must be a valid id; startTime must be a time in HH:MM format", text)

		code, text = call(http.MethodPost, "/room-booking", `not json`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid request.", text)
	})
}

// perIPBookings allows one public booking per client address
type perIPBookings struct {
	*stubServices
	seen map[string]int
}

func (b *perIPBookings) BookPublic(ctx context.Context, actor services.Actor, input services.BookingInput) (*models.Reservation, error) {
	b.seen[actor.IPAddress]++
	if b.seen[actor.IPAddress] > 1 {
		return nil, &services.RateLimitError{Message: "Too many booking requests from this IP address.", Type: "ip"}
	}
	return b.stubServices.BookPublic(ctx, actor, input)
}

func TestPublicHandler_RateLimitKeyIgnoresSpoofedHeaders(t *testing.T) {
	roomID := uuid.New()
	body := fmt.Sprintf(`{"roomId":%q,"date":"2030-06-03","startTime":"09:00","endTime":"10:00","customerName":"Ada"}`, roomID)

	setup := func(t *testing.T, trusted []string) (*gin.Engine, *perIPBookings) {
		stub := &stubServices{res: &models.Reservation{
			ID: uuid.New(), RoomID: roomID, RoomName: "Board Room", Date: "2030-06-03",
			StartTime: scheduling.MustTimeOfDay("09:00"), EndTime: scheduling.MustTimeOfDay("10:00"),
			Status: models.ReservationStatusPending,
		}}
		bookings := &perIPBookings{stubServices: stub, seen: map[string]int{}}
		router, _ := newTestRouter(t, uuid.New())
		require.NoError(t, router.SetTrustedProxies(trusted))
		NewPublicHandler(stub, stub, bookings, time.UTC, quietLogger()).Register(router)
		return router, bookings
	}
	post := func(router *gin.Engine, remote string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/room-booking", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Direct client", func(t *testing.T) {
		router, bookings := setup(t, nil)

		first := post(router, "203.0.113.7:4000", map[string]string{"X-Real-IP": "8.8.8.8"})
		require.Equal(t, http.StatusOK, first.Code)

		second := post(router, "203.0.113.7:4000", map[string]string{"X-Real-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"})
		assert.Equal(t, http.StatusBadRequest, second.Code)
		assert.Equal(t, "Too many booking requests from this IP address.", second.Body.String())
		assert.Equal(t, map[string]int{"203.0.113.7": 2}, bookings.seen)
	})

	t.Run("Behind a trusted proxy", func(t *testing.T) {
		router, bookings := setup(t, []string{"10.0.0.0/8"})

		assert.Equal(t, http.StatusOK, post(router, "10.0.0.2:4000", map[string]string{"X-Forwarded-For": "198.51.100.1"}).Code)
		assert.Equal(t, http.StatusOK, post(router, "10.0.0.2:4000", map[string]string{"X-Forwarded-For": "198.51.100.2"}).Code)
		assert.Equal(t, http.StatusBadRequest, post(router, "10.0.0.2:4000", map[string]string{"X-Forwarded-For": "198.51.100.1"}).Code)
		assert.Equal(t, map[string]int{"198.51.100.1": 2, "198.51.100.2": 1}, bookings.seen)
	})
}

func TestHealthCheck(t *testing.T) {
	stub, call := newPublicFixture(t)

	code, body := call(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"healthy"`)

	stub.err = errDatabaseDown
	code, body = call(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "unhealthy")
}
