package audit

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) api.Route {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/admin/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireQueue(role.QueueAdmin))

	audit.Get("/", h.controller.ListLogs)
}
