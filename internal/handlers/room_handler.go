package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/sirupsen/logrus"
)

// RoomRequest is the body of room create and update calls. Omitted fields are left unchanged on update.
type RoomRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=120"`
	Description *string  `json:"description"`
	Capacity    *int     `json:"capacity"`
	Equipment   []string `json:"equipment"`
	Color       *string  `json:"color"`
	IsActive    *bool    `json:"is_active"`
}

func (r RoomRequest) toInput() services.RoomInput {
	return services.RoomInput{
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		Equipment:   r.Equipment,
		Color:       r.Color,
		IsActive:    r.IsActive,
	}
}

// DayScheduleRequest is one weekday of PUT /rooms/:id/schedule
type DayScheduleRequest struct {
	Day       string `json:"day" binding:"required"`
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   string `json:"end_time" binding:"omitempty,hhmm"`
}

// ScheduleRequest replaces a room's weekly schedule
type ScheduleRequest struct {
	Schedule []DayScheduleRequest `json:"schedule" binding:"dive"`
}

// DateQuery selects a single date
type DateQuery struct {
	Date string `form:"date" binding:"required,isodate"`
}

// RoomListQuery filters GET /rooms
type RoomListQuery struct {
	Active *bool `form:"active"`
}

// RoomHandler serves the admin room registry, weekly schedules and the availability views
type RoomHandler struct {
	rooms        RoomAPI
	schedules    ScheduleAPI
	availability AvailabilityAPI
	logger       *logrus.Logger
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(rooms RoomAPI, schedules ScheduleAPI, availability AvailabilityAPI, logger *logrus.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, schedules: schedules, availability: availability, logger: logger}
}

// Register mounts the room routes on an authenticated admin group
func (h *RoomHandler) Register(admin *gin.RouterGroup) {
	rooms := admin.Group("/rooms")
	rooms.GET("", h.ListRooms)
	rooms.POST("", h.CreateRoom)
	rooms.GET("/:id", h.GetRoom)
	rooms.PUT("/:id", h.UpdateRoom)
	rooms.DELETE("/:id", h.DeactivateRoom)
	rooms.GET("/:id/schedule", h.GetSchedule)
	rooms.PUT("/:id/schedule", h.SetSchedule)
	rooms.GET("/:id/availability", h.GetAvailability)
	rooms.GET("/:id/conflicts", h.GetConflicts)
}

// ListRooms handles GET /rooms?active=
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var query RoomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	rooms, err := h.rooms.ListRooms(c.Request.Context(), models.RoomFilter{Active: query.Active})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// CreateRoom handles POST /rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), adminActor(c), req.toInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}

	room, err := h.rooms.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// UpdateRoom handles PUT /rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room, err := h.rooms.UpdateRoom(c.Request.Context(), adminActor(c), id, req.toInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeactivateRoom handles DELETE /rooms/:id. Rooms are soft-deleted.
func (h *RoomHandler) DeactivateRoom(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}

	if err := h.rooms.DeactivateRoom(c.Request.Context(), adminActor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deactivated"})
}

// GetSchedule handles GET /rooms/:id/schedule
func (h *RoomHandler) GetSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}

	rules, err := h.schedules.GetWeeklySchedule(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": id, "rules": rules})
}

// SetSchedule handles PUT /rooms/:id/schedule. The submitted week replaces the stored one.
func (h *RoomHandler) SetSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	schedule := make([]services.DaySchedule, 0, len(req.Schedule))
	for _, d := range req.Schedule {
		schedule = append(schedule, services.DaySchedule{
			Day:       d.Day,
			Enabled:   d.Enabled,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})
	}

	rules, err := h.schedules.SetWeeklySchedule(c.Request.Context(), adminActor(c), id, schedule)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": id, "rules": rules})
}

// GetAvailability handles GET /rooms/:id/availability?date=. Inactive rooms are visible to admins.
func (h *RoomHandler) GetAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}
	var query DateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	day, err := h.availability.GetSlots(c.Request.Context(), id, query.Date, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GetConflicts handles GET /rooms/:id/conflicts?date=
func (h *RoomHandler) GetConflicts(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}
	var query DateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	conflicts, err := h.availability.GetConflicts(c.Request.Context(), id, query.Date, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conflicts)
}
