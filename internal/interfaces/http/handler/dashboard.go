package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/application/dashboard"
)

// DashboardHandler serves admin dashboard figures
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Stats godoc
// @Summary      Dashboard figures
// @Description  Member, stock and claim counts plus 30-day order and top-up volume
// @Tags         admin-dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=dashboard.Stats}
// @Security     BearerAuth
// @Router       /admin/dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
