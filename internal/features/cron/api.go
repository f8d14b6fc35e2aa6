package cron_feature

import (
	"go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	Controller *CronController
	Config     *config.Config
}

func NewCronApi(controller *CronController, cfg *config.Config) api.Route {
	return &CronApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (a *CronApi) Setup(app *fiber.App) {
	jobs := app.Group("/api/admin/jobs", middleware.AuthMiddleware(a.Config.SkipAuth), middleware.RequireQueue(role.QueueAdmin))

	jobs.Get("/", a.Controller.ListJobs)
	jobs.Post("/:name/run", a.Controller.RunJob)
	jobs.Get("/:name/logs", a.Controller.GetJobLogs)
}
