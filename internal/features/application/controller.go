package application

import (
	"fmt"

	"go-travel/internal/common/api"
	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApplicationController struct {
	Service ApplicationService
}

func NewApplicationController(service ApplicationService) *ApplicationController {
	return &ApplicationController{
		Service: service,
	}
}

// CreateApplication godoc
// @Summary Create a draft travel application
// @Tags applications
// @Accept json
// @Produce json
// @Success 201 {object} Application
// @Router /api/applications [post]
func (c *ApplicationController) CreateApplication(ctx *fiber.Ctx) error {
	var draft Draft
	if err := ctx.BodyParser(&draft); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor, _ := middleware.ActorFrom(ctx)
	app, err := c.Service.CreateDraft(ctx.UserContext(), actor, draft)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(app)
}

// UpdateApplication godoc
// @Summary Replace the requester fields of a draft
// @Tags applications
// @Router /api/applications/{id} [put]
func (c *ApplicationController) UpdateApplication(ctx *fiber.Ctx) error {
	var draft Draft
	if err := ctx.BodyParser(&draft); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor, _ := middleware.ActorFrom(ctx)
	app, err := c.Service.UpdateDraft(ctx.UserContext(), ctx.Params("id"), actor, draft)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(app)
}

// GetApplication godoc
// @Summary Get one application with its approval log
// @Tags applications
// @Router /api/applications/{id} [get]
func (c *ApplicationController) GetApplication(ctx *fiber.Ctx) error {
	app, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return api.Error(ctx, err)
	}

	actor, _ := middleware.ActorFrom(ctx)
	if !canRead(actor, app) {
		return api.Error(ctx, fmt.Errorf("application is outside the caller's queues: %w", errs.ErrUnauthorized))
	}
	return ctx.JSON(app)
}

// GetHistory godoc
// @Summary List the decision log of an application
// @Tags applications
// @Router /api/applications/{id}/history [get]
func (c *ApplicationController) GetHistory(ctx *fiber.Ctx) error {
	app, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return api.Error(ctx, err)
	}

	actor, _ := middleware.ActorFrom(ctx)
	if !canRead(actor, app) {
		return api.Error(ctx, fmt.Errorf("application is outside the caller's queues: %w", errs.ErrUnauthorized))
	}
	return ctx.JSON(fiber.Map{"data": app.ApprovalLog})
}

// ListMine godoc
// @Summary List the caller's own applications
// @Tags applications
// @Router /api/applications/mine [get]
func (c *ApplicationController) ListMine(ctx *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(ctx)
	apps, err := c.Service.ListMine(ctx.UserContext(), actor.ID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": apps})
}

// ListQueue returns a handler listing the statuses a queue shows.
func (c *ApplicationController) ListQueue(q role.Queue) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		statuses := role.StatusesFor(q)
		if s := ctx.Query("status"); s != "" {
			filtered, ok := narrow(statuses, models.ApplicationStatus(s))
			if !ok {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is not part of this queue"})
			}
			statuses = filtered
		}

		apps, err := c.Service.ListQueue(ctx.UserContext(), statuses)
		if err != nil {
			return api.Error(ctx, err)
		}
		return ctx.JSON(fiber.Map{"data": apps})
	}
}

// ListArchived godoc
// @Summary List archived applications, latest first
// @Tags admin
// @Router /api/admin/applications/archived [get]
func (c *ApplicationController) ListArchived(ctx *fiber.Ctx) error {
	apps, err := c.Service.ListArchived(ctx.UserContext())
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": apps})
}

// ExportArchived godoc
// @Summary Download archived applications as XLSX
// @Tags admin
// @Router /api/admin/applications/archived/export [get]
func (c *ApplicationController) ExportArchived(ctx *fiber.Ctx) error {
	data, filename, err := c.Service.ExportArchived(ctx.UserContext())
	if err != nil {
		return api.Error(ctx, err)
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}

func canRead(actor models.Actor, app *Application) bool {
	if actor.ID != "" && actor.ID == app.RequesterID {
		return true
	}
	return role.CanSee(role.ActorRoles(actor), app.Status)
}

func narrow(statuses []models.ApplicationStatus, s models.ApplicationStatus) ([]models.ApplicationStatus, bool) {
	for _, candidate := range statuses {
		if candidate == s {
			return []models.ApplicationStatus{s}, true
		}
	}
	return nil, false
}
