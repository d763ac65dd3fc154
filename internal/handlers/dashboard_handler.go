package handlers

import (
	"net/http"

	"eventhire_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	*BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(base *BaseHandler, dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      base,
		dashboardService: dashboardService,
	}
}

// GetDashboard godoc
// @Summary  Role specific summary for the caller
// @Tags     dashboard
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} dto.DashboardResponse
// @Router   /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	result, err := h.dashboardService.Get(c.Request.Context(), userID, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
