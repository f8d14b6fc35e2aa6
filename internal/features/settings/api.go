package settings

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsApi struct {
	Controller *SettingsController
	Config     *config.Config
}

func NewSettingsApi(controller *SettingsController, config *config.Config) api.Route {
	return &SettingsApi{
		Controller: controller,
		Config:     config,
	}
}

func (a *SettingsApi) Setup(app *fiber.App) {
	group := app.Group("/api/admin/settings", middleware.AuthMiddleware(a.Config.SkipAuth), middleware.RequireQueue(role.QueueAdmin))

	group.Get("/", a.Controller.GetSettings)
	group.Put("/", a.Controller.UpdateSettings)
}
