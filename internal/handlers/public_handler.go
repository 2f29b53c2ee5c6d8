package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(
	template.New("pages").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.html"),
)

// PublicBookingRequest is the JSON body of POST /room-booking
type PublicBookingRequest struct {
	RoomID        string `json:"roomId" binding:"required,uuid"`
	Date          string `json:"date" binding:"required,isodate"`
	StartTime     string `json:"startTime" binding:"required,hhmm"`
	EndTime       string `json:"endTime" binding:"required,hhmm"`
	CustomerName  string `json:"customerName" binding:"required,max=200"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Purpose       string `json:"purpose" binding:"max=500"`
	Notes         string `json:"notes" binding:"max=2000"`
}

// PublicDayQuery selects a room and date on the public read endpoints
type PublicDayQuery struct {
	Room string `form:"room" binding:"required,uuid"`
	Date string `form:"date" binding:"required,isodate"`
}

// RoomQuery selects a room for the booking form
type RoomQuery struct {
	Room string `form:"room" binding:"required,uuid"`
}

// PublicHandler serves the anonymous booking pages and their JSON endpoints.
// Errors are answered as plain text.
type PublicHandler struct {
	rooms        RoomAPI
	availability AvailabilityAPI
	reservations ReservationAPI
	location     *time.Location
	logger       *logrus.Logger
}

// NewPublicHandler creates a new PublicHandler. location decides what "today" is on the booking form.
func NewPublicHandler(rooms RoomAPI, availability AvailabilityAPI, reservations ReservationAPI, location *time.Location, logger *logrus.Logger) *PublicHandler {
	if location == nil {
		location = time.UTC
	}
	return &PublicHandler{
		rooms:        rooms,
		availability: availability,
		reservations: reservations,
		location:     location,
		logger:       logger,
	}
}

// Register mounts the public routes
func (h *PublicHandler) Register(r gin.IRoutes) {
	r.GET("/book-room", h.BookRoomPage)
	r.GET("/room-booking", h.BookingFormPage)
	r.GET("/room-availability", h.RoomAvailability)
	r.GET("/room-slots", h.RoomSlots)
	r.POST("/room-booking", h.CreateBooking)
}

// BookRoomPage handles GET /book-room
func (h *PublicHandler) BookRoomPage(c *gin.Context) {
	rooms, err := h.rooms.ListActiveRooms(c.Request.Context())
	if err != nil {
		h.textError(c, err)
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplates,
		Name:     "book_room.html",
		Data:     gin.H{"Rooms": rooms},
	})
}

// BookingFormPage handles GET /room-booking?room=
func (h *PublicHandler) BookingFormPage(c *gin.Context) {
	var query RoomQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.String(http.StatusBadRequest, bindingText(err))
		return
	}

	room, err := h.rooms.GetActiveRoom(c.Request.Context(), uuid.MustParse(query.Room))
	if err != nil {
		h.textError(c, err)
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplates,
		Name:     "room_booking.html",
		Data: gin.H{
			"Room":  room,
			"Today": scheduling.FormatDate(time.Now().In(h.location)),
		},
	})
}

// RoomAvailability handles GET /room-availability?room=&date=. It returns the raw
// conflicting reservations, not a resolved grid.
func (h *PublicHandler) RoomAvailability(c *gin.Context) {
	var query PublicDayQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.String(http.StatusBadRequest, bindingText(err))
		return
	}

	conflicts, err := h.availability.GetConflicts(c.Request.Context(), uuid.MustParse(query.Room), query.Date, true)
	if err != nil {
		h.textError(c, err)
		return
	}
	if conflicts == nil {
		conflicts = []models.ReservationConflict{}
	}
	c.JSON(http.StatusOK, conflicts)
}

// RoomSlots handles GET /room-slots?room=&date=
func (h *PublicHandler) RoomSlots(c *gin.Context) {
	var query PublicDayQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.String(http.StatusBadRequest, bindingText(err))
		return
	}

	day, err := h.availability.GetSlots(c.Request.Context(), uuid.MustParse(query.Room), query.Date, true)
	if err != nil {
		h.textError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// CreateBooking handles POST /room-booking. Every failure is a 400 with a readable message.
func (h *PublicHandler) CreateBooking(c *gin.Context) {
	var req PublicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, bindingText(err))
		return
	}

	res, err := h.reservations.BookPublic(c.Request.Context(), publicActor(c), services.BookingInput{
		RoomID:        uuid.MustParse(req.RoomID),
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
	})
	if err != nil {
		if services.KindOf(err) == services.KindApplication {
			h.logger.WithError(err).Error("Public booking failed")
			c.String(http.StatusBadRequest, "Booking could not be completed. Please try again later.")
			return
		}
		c.String(http.StatusBadRequest, errorText(err))
		return
	}

	c.String(http.StatusOK, fmt.Sprintf("Booking %s for %s on %s, %s. Reference: %s",
		res.Status, res.RoomName, res.Date, res.Range(), res.ID))
}

// textError answers the public read endpoints
func (h *PublicHandler) textError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		c.String(http.StatusNotFound, errorText(err))
	case services.KindApplication:
		h.logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("Public request failed")
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
	default:
		c.String(http.StatusBadRequest, errorText(err))
	}
}

// errorText renders a service error for people
func errorText(err error) string {
	var msg string
	switch services.KindOf(err) {
	case services.KindValidation, services.KindRateLimited, services.KindConflict:
		msg = err.Error()
	case services.KindNotFound:
		msg = "The requested room or booking does not exist."
	default:
		msg = "Request failed."
	}
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return msg
}

// bindingText renders request binding failures as one line
func bindingText(err error) string {
	fields := bindingFields(err)
	if len(fields) == 0 {
		return "Invalid request."
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}
