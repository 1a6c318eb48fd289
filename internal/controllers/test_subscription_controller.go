package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/services"
	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/gin-gonic/gin"
)

type testSubscriptionController struct{ svc services.DispatcherService }

func NewTestSubscriptionController(svc services.DispatcherService) *testSubscriptionController {
	return &testSubscriptionController{svc: svc}
}

type testSubscriptionReq struct {
	Overrides map[string]any `json:"overrides,omitempty"`
}

type testSubscriptionResp struct {
	domain.Outcome
	DurationMs int64 `json:"durationMs"`
}

func (h *testSubscriptionController) Handle(c *gin.Context) {
	var req testSubscriptionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}
	out, err := h.svc.Test(c.Request.Context(), middleware.GetOwnerID(c), c.Param("id"), req.Overrides)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, testSubscriptionResp{Outcome: out, DurationMs: out.Duration.Milliseconds()})
}
