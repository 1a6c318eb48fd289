package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"
	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/gin-gonic/gin"
)

type createSubscriptionController struct{ svc services.SubscriptionService }

func NewCreateSubscriptionController(svc services.SubscriptionService) *createSubscriptionController {
	return &createSubscriptionController{svc: svc}
}

type createSubscriptionReq struct {
	Name       string             `json:"name" binding:"required"`
	EntityType string             `json:"entityType" binding:"required"`
	EventType  string             `json:"eventType" binding:"required"`
	TargetURL  string             `json:"targetUrl" binding:"required"`
	Headers    map[string]string  `json:"headers,omitempty"`
	Secret     string             `json:"secret,omitempty"`
	Conditions []domain.Condition `json:"conditions,omitempty"`
}

func (h *createSubscriptionController) Handle(c *gin.Context) {
	var req createSubscriptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sub, err := h.svc.Create(c.Request.Context(), middleware.GetOwnerID(c), domain.Subscription{
		Name:       req.Name,
		EntityType: domain.EntityType(req.EntityType),
		EventType:  domain.EventType(req.EventType),
		TargetURL:  req.TargetURL,
		Headers:    req.Headers,
		Secret:     req.Secret,
		Conditions: req.Conditions,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sub)
}
