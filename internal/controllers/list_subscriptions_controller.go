package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"

	"github.com/gin-gonic/gin"
)

type listSubscriptionsController struct{ svc services.SubscriptionService }

func NewListSubscriptionsController(svc services.SubscriptionService) *listSubscriptionsController {
	return &listSubscriptionsController{svc: svc}
}

func (h *listSubscriptionsController) Handle(c *gin.Context) {
	subs, err := h.svc.List(c.Request.Context(), middleware.GetOwnerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}
