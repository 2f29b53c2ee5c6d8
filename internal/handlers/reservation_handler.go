package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/sirupsen/logrus"
)

// AdminBookingRequest is the body of POST /reservations
type AdminBookingRequest struct {
	RoomID        string `json:"room_id" binding:"required,uuid"`
	Date          string `json:"date" binding:"required,isodate"`
	StartTime     string `json:"start_time" binding:"required,hhmm"`
	EndTime       string `json:"end_time" binding:"required,hhmm"`
	CustomerName  string `json:"customer_name" binding:"required,max=200"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone string `json:"customer_phone"`
	Purpose       string `json:"purpose" binding:"max=500"`
	Notes         string `json:"notes" binding:"max=2000"`
	Status        string `json:"status" binding:"omitempty,oneof=pending confirmed"`
}

// ReservationDetailsRequest is the body of PUT /reservations/:id. Times are not editable.
type ReservationDetailsRequest struct {
	CustomerName  *string `json:"customer_name" binding:"omitempty,max=200"`
	CustomerEmail *string `json:"customer_email"`
	CustomerPhone *string `json:"customer_phone"`
	Purpose       *string `json:"purpose" binding:"omitempty,max=500"`
	Notes         *string `json:"notes" binding:"omitempty,max=2000"`
}

// StatusRequest is the body of PATCH /reservations/:id/status
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReservationListQuery filters the ledger
type ReservationListQuery struct {
	Room   string `form:"room" binding:"omitempty,uuid"`
	Date   string `form:"date" binding:"omitempty,isodate"`
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ReservationHandler serves the admin reservation ledger
type ReservationHandler struct {
	reservations ReservationAPI
	logger       *logrus.Logger
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations ReservationAPI, logger *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, logger: logger}
}

// Register mounts the reservation routes on an authenticated admin group
func (h *ReservationHandler) Register(admin *gin.RouterGroup) {
	reservations := admin.Group("/reservations")
	reservations.GET("", h.List)
	reservations.POST("", h.Create)
	reservations.GET("/:id", h.Get)
	reservations.PUT("/:id", h.UpdateDetails)
	reservations.PATCH("/:id/status", h.UpdateStatus)
	reservations.DELETE("/:id", h.Delete)
}

// List handles GET /reservations?room=&date=&status=
func (h *ReservationHandler) List(c *gin.Context) {
	var query ReservationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	filter := models.ReservationFilter{
		Date:   query.Date,
		Status: models.ReservationStatus(query.Status),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Room != "" {
		roomID := uuid.MustParse(query.Room)
		filter.RoomID = &roomID
	}

	reservations, err := h.reservations.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
}

// Create handles POST /reservations. Admin bookings run the same transaction as public ones.
func (h *ReservationHandler) Create(c *gin.Context) {
	var req AdminBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.reservations.BookAsAdmin(c.Request.Context(), adminActor(c), services.BookingInput{
		RoomID:        uuid.MustParse(req.RoomID),
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
		Status:        req.Status,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Get handles GET /reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "reservation")
	if !ok {
		return
	}

	res, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateDetails handles PUT /reservations/:id
func (h *ReservationHandler) UpdateDetails(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "reservation")
	if !ok {
		return
	}
	var req ReservationDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.reservations.UpdateDetails(c.Request.Context(), adminActor(c), id, services.DetailsInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PATCH /reservations/:id/status
func (h *ReservationHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "reservation")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.reservations.UpdateStatus(c.Request.Context(), adminActor(c), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /reservations/:id. Unlike rooms this is a hard delete.
func (h *ReservationHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "reservation")
	if !ok {
		return
	}

	if err := h.reservations.Delete(c.Request.Context(), adminActor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted"})
}
