package controllers

import (
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultDeliveriesLimit = 50

type listDeliveriesController struct{ svc services.DeliveryLogService }

func NewListDeliveriesController(svc services.DeliveryLogService) *listDeliveriesController {
	return &listDeliveriesController{svc: svc}
}

func (h *listDeliveriesController) Handle(c *gin.Context) {
	limit := defaultDeliveriesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' (must be > 0)"})
			return
		}
		limit = n
	}
	entries, err := h.svc.Recent(c.Request.Context(), middleware.GetOwnerID(c), c.Query("subscriptionId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": entries, "count": len(entries)})
}
