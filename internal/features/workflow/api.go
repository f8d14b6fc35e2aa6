package workflow

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WorkflowApi struct {
	Controller *WorkflowController
	Config     *config.Config
}

func NewWorkflowApi(controller *WorkflowController, config *config.Config) api.Route {
	return &WorkflowApi{
		Controller: controller,
		Config:     config,
	}
}

func (a *WorkflowApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(a.Config.SkipAuth)

	app.Post("/api/applications/:id/submit", auth, a.Controller.Submit)

	reviewer := app.Group("/api/reviewer/applications", auth, middleware.RequireQueue(role.QueueReviewer))
	reviewer.Post("/:id/open", a.Controller.Open)
	reviewer.Post("/:id/decide", a.Controller.Decide)

	minister := app.Group("/api/minister/applications", auth, middleware.RequireQueue(role.QueueMinister))
	minister.Post("/:id/decide", a.Controller.Decide)
}
