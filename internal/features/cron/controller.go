package cron_feature

import (
	"errors"

	"go-travel/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{Service: service}
}

// ListJobs godoc
// @Summary      List maintenance jobs with schedule and last run
// @Tags         cron
// @Produce      json
// @Success      200  {array}  JobInfo
// @Router       /admin/jobs [get]
func (c *CronController) ListJobs(ctx *fiber.Ctx) error {
	jobs, err := c.Service.ListJobs(ctx.UserContext())
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(jobs)
}

// RunJob godoc
// @Summary      Run a maintenance job now
// @Tags         cron
// @Produce      json
// @Param        name  path      string  true  "Job name"
// @Success      200   {object}  JobRun
// @Failure      409   {object}  map[string]interface{}
// @Router       /admin/jobs/{name}/run [post]
func (c *CronController) RunJob(ctx *fiber.Ctx) error {
	run, err := c.Service.RunNow(ctx.UserContext(), ctx.Params("name"))
	if errors.Is(err, ErrJobRunning) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if run == nil {
		return api.Error(ctx, err)
	}
	// A failed run is still a completed request; the record says why.
	return ctx.JSON(run)
}

// GetJobLogs godoc
// @Summary      Recent runs of a job
// @Tags         cron
// @Produce      json
// @Param        name   path   string  true   "Job name"
// @Param        limit  query  int     false  "Max entries (default 20)"
// @Success      200    {array}  JobRun
// @Router       /admin/jobs/{name}/logs [get]
func (c *CronController) GetJobLogs(ctx *fiber.Ctx) error {
	runs, err := c.Service.GetJobLogs(ctx.UserContext(), ctx.Params("name"), ctx.QueryInt("limit", 20))
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(runs)
}
