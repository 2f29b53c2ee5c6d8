package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/sirupsen/logrus"
)

// AuditLogQuery filters GET /audit-logs
type AuditLogQuery struct {
	EntityType string `form:"entity_type" binding:"max=50"`
	EntityID   string `form:"entity_id" binding:"omitempty,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AuditHandler exposes the audit trail to admins
type AuditHandler struct {
	audit  AuditAPI
	logger *logrus.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit AuditAPI, logger *logrus.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// Register mounts the audit routes on an authenticated admin group
func (h *AuditHandler) Register(admin *gin.RouterGroup) {
	admin.GET("/audit-logs", h.ListEvents)
}

// ListEvents handles GET /audit-logs?entity_type=&entity_id=&limit=
func (h *AuditHandler) ListEvents(c *gin.Context) {
	var query AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	filter := models.AuditFilter{EntityType: query.EntityType, Limit: query.Limit}
	if query.EntityID != "" {
		id := uuid.MustParse(query.EntityID)
		filter.EntityID = &id
	}

	events, err := h.audit.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
