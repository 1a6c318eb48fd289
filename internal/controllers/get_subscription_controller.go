package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"

	"github.com/gin-gonic/gin"
)

type getSubscriptionController struct{ svc services.SubscriptionService }

func NewGetSubscriptionController(svc services.SubscriptionService) *getSubscriptionController {
	return &getSubscriptionController{svc: svc}
}

func (h *getSubscriptionController) Handle(c *gin.Context) {
	sub, err := h.svc.Get(c.Request.Context(), middleware.GetOwnerID(c), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sub)
}
