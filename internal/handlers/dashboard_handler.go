package handlers

import (
	"storerating/internal/middleware"
	"storerating/internal/models"
	"storerating/internal/services"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Get("/admin", middleware.RequireRoles(models.RoleAdmin), h.HandleAdmin)
	dashboardRoutes.Get("/store-owner", middleware.RequireRoles(models.RoleStoreOwner), h.HandleStoreOwner)
}

func (h *DashboardHandler) HandleAdmin(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	dashboard, err := h.dashboardService.Admin(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dashboard)
}

func (h *DashboardHandler) HandleStoreOwner(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	dashboard, err := h.dashboardService.StoreOwner(ctx, principal.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dashboard)
}
