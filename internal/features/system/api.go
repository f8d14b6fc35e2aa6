package system

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SystemApi struct {
	Controller *SystemController
	Config     *config.Config
}

func NewSystemApi(controller *SystemController, cfg *config.Config) api.Route {
	return &SystemApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (a *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", a.Controller.Health)
	app.Get("/ready", a.Controller.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/api/me", middleware.AuthMiddleware(a.Config.SkipAuth), a.Controller.CurrentActor)
}
