package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"
	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/gin-gonic/gin"
)

type triggerEventController struct{ svc services.DispatcherService }

func NewTriggerEventController(svc services.DispatcherService) *triggerEventController {
	return &triggerEventController{svc: svc}
}

type triggerEventReq struct {
	EntityType    string         `json:"entityType" binding:"required"`
	EventType     string         `json:"eventType" binding:"required"`
	EntityID      string         `json:"entityId" binding:"required"`
	Data          map[string]any `json:"data,omitempty"`
	PreviousData  map[string]any `json:"previousData,omitempty"`
	ChangedFields []string       `json:"changedFields,omitempty"`
}

// Handle accepts an event and returns immediately; matching and delivery run
// in the background. Unknown entity or event names are dropped by the
// dispatcher, not rejected here.
func (h *triggerEventController) Handle(c *gin.Context) {
	var req triggerEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.svc.Dispatch(c.Request.Context(), middleware.GetOwnerID(c), domain.Event{
		EntityType:    domain.EntityType(req.EntityType),
		EventType:     domain.EventType(req.EventType),
		EntityID:      req.EntityID,
		Data:          req.Data,
		PreviousData:  req.PreviousData,
		ChangedFields: req.ChangedFields,
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
