package notification

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) api.Route {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/admin/notifications", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireQueue(role.QueueAdmin))

	group.Post("/test", h.controller.SendTest)
}
