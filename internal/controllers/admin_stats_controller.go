package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hookq/internal/services"

	"github.com/gin-gonic/gin"
)

type adminStatsController struct{ svc services.StatsService }

func NewAdminStatsController(svc services.StatsService) *adminStatsController {
	return &adminStatsController{svc: svc}
}

func (h *adminStatsController) Handle(c *gin.Context) {
	out, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
