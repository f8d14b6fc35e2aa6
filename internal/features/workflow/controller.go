package workflow

import (
	"go-travel/internal/common/api"
	"go-travel/internal/common/errs"
	"go-travel/internal/features/decision"
	"go-travel/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type DecideRequest struct {
	Action decision.Action `json:"action" validate:"required"`
	Note   string          `json:"note" validate:"max=2000"`
}

type WorkflowController struct {
	Service WorkflowService
}

func NewWorkflowController(service WorkflowService) *WorkflowController {
	return &WorkflowController{
		Service: service,
	}
}

// Submit godoc
// @Summary Submit a draft for review
// @Tags applications
// @Router /api/applications/{id}/submit [post]
func (c *WorkflowController) Submit(ctx *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(ctx)
	app, err := c.Service.Submit(ctx.UserContext(), ctx.Params("id"), actor)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(app)
}

// Open godoc
// @Summary Open an application, claiming it when it is still SUBMITTED
// @Tags reviewer
// @Router /api/reviewer/applications/{id}/open [post]
func (c *WorkflowController) Open(ctx *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(ctx)
	app, err := c.Service.OpenForReview(ctx.UserContext(), ctx.Params("id"), actor)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(app)
}

// Decide godoc
// @Summary Record a decision on an application
// @Description REFERRED_TO_MINISTER takes the minister's email address as the note
// @Tags reviewer, minister
// @Accept json
// @Router /api/reviewer/applications/{id}/decide [post]
// @Router /api/minister/applications/{id}/decide [post]
func (c *WorkflowController) Decide(ctx *fiber.Ctx) error {
	var req DecideRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return api.Error(ctx, errs.Validation(err))
	}

	actor, _ := middleware.ActorFrom(ctx)
	app, err := c.Service.Decide(ctx.UserContext(), ctx.Params("id"), req.Action, actor, req.Note)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(app)
}
