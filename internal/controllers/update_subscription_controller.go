package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"
	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/gin-gonic/gin"
)

type updateSubscriptionController struct{ svc services.SubscriptionService }

func NewUpdateSubscriptionController(svc services.SubscriptionService) *updateSubscriptionController {
	return &updateSubscriptionController{svc: svc}
}

func (h *updateSubscriptionController) Handle(c *gin.Context) {
	var upd domain.SubscriptionUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sub, err := h.svc.Update(c.Request.Context(), middleware.GetOwnerID(c), c.Param("id"), upd)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sub)
}
