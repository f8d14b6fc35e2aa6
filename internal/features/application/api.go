package application

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApplicationApi struct {
	Controller *ApplicationController
	Config     *config.Config
}

func NewApplicationApi(controller *ApplicationController, config *config.Config) api.Route {
	return &ApplicationApi{
		Controller: controller,
		Config:     config,
	}
}

func (a *ApplicationApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(a.Config.SkipAuth)

	apps := app.Group("/api/applications", auth)
	apps.Post("/", a.Controller.CreateApplication)
	apps.Get("/mine", a.Controller.ListMine)
	apps.Get("/:id", a.Controller.GetApplication)
	apps.Put("/:id", a.Controller.UpdateApplication)
	apps.Get("/:id/history", a.Controller.GetHistory)

	app.Get("/api/reviewer/queue", auth, middleware.RequireQueue(role.QueueReviewer), a.Controller.ListQueue(role.QueueReviewer))
	app.Get("/api/minister/queue", auth, middleware.RequireQueue(role.QueueMinister), a.Controller.ListQueue(role.QueueMinister))

	admin := app.Group("/api/admin/applications", auth, middleware.RequireQueue(role.QueueAdmin))
	admin.Get("/", a.Controller.ListQueue(role.QueueAdmin))
	admin.Get("/archived", a.Controller.ListArchived)
	admin.Get("/archived/export", a.Controller.ExportArchived)
}
