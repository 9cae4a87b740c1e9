package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coachdesk_app_echo/internal/services"
)

type DashboardHandler struct {
	stats *services.StatsService
}

func NewDashboardHandler(stats *services.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// GetStats returns the dashboard aggregates, served from cache when warm
func (h *DashboardHandler) GetStats(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := h.stats.Dashboard(ctx, trainerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
