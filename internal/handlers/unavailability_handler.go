package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/sirupsen/logrus"
)

// BlockRequest is the body of POST /rooms/:id/unavailability
type BlockRequest struct {
	Date      string `json:"date" binding:"required,isodate"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
	Reason    string `json:"reason" binding:"max=500"`
}

// BlockListQuery filters block listings; date wins over from/to
type BlockListQuery struct {
	Date string `form:"date" binding:"omitempty,isodate"`
	From string `form:"from" binding:"omitempty,isodate"`
	To   string `form:"to" binding:"omitempty,isodate"`
}

// UnavailabilityHandler serves per-date room closures
type UnavailabilityHandler struct {
	blocks BlockAPI
	logger *logrus.Logger
}

// NewUnavailabilityHandler creates a new UnavailabilityHandler
func NewUnavailabilityHandler(blocks BlockAPI, logger *logrus.Logger) *UnavailabilityHandler {
	return &UnavailabilityHandler{blocks: blocks, logger: logger}
}

// Register mounts the unavailability routes on an authenticated admin group
func (h *UnavailabilityHandler) Register(admin *gin.RouterGroup) {
	admin.GET("/rooms/:id/unavailability", h.ListBlocks)
	admin.POST("/rooms/:id/unavailability", h.CreateBlock)
	admin.DELETE("/unavailability/:id", h.DeleteBlock)
}

// ListBlocks handles GET /rooms/:id/unavailability
func (h *UnavailabilityHandler) ListBlocks(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}
	var query BlockListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	blocks, err := h.blocks.ListBlocks(c.Request.Context(), roomID, models.BlockFilter{
		Date: query.Date,
		From: query.From,
		To:   query.To,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks, "count": len(blocks)})
}

// CreateBlock handles POST /rooms/:id/unavailability
func (h *UnavailabilityHandler) CreateBlock(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id", "room")
	if !ok {
		return
	}
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	block, err := h.blocks.CreateBlock(c.Request.Context(), adminActor(c), roomID, services.BlockInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

// DeleteBlock handles DELETE /unavailability/:id
func (h *UnavailabilityHandler) DeleteBlock(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "block")
	if !ok {
		return
	}

	if err := h.blocks.DeleteBlock(c.Request.Context(), adminActor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unavailability removed"})
}
