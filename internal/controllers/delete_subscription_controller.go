package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteSubscriptionController struct{ svc services.SubscriptionService }

func NewDeleteSubscriptionController(svc services.SubscriptionService) *deleteSubscriptionController {
	return &deleteSubscriptionController{svc: svc}
}

func (h *deleteSubscriptionController) Handle(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), middleware.GetOwnerID(c), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
