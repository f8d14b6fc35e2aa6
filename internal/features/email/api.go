package email

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EmailApi struct {
	controller *EmailController
	config     *config.Config
}

func NewEmailApi(controller *EmailController, config *config.Config) api.Route {
	return &EmailApi{
		controller: controller,
		config:     config,
	}
}

func (h *EmailApi) Setup(app *fiber.App) {
	group := app.Group("/api/admin/emails", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireQueue(role.QueueAdmin))

	group.Get("/", h.controller.ListDeliveries)
}
