package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

type DashboardHandler struct {
	Dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Dashboard: dashboard}
}

func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	d, err := h.Dashboard.Build(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return respondError(c, err, "build_dashboard")
	}
	return utils.Success(c, fiber.StatusOK, d)
}
