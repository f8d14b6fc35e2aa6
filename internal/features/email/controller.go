package email

import (
	"strconv"

	"go-travel/internal/common/api"
	"go-travel/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

type EmailController struct {
	Repo EmailRepository
}

func NewEmailController(repo EmailRepository) *EmailController {
	return &EmailController{
		Repo: repo,
	}
}

// ListDeliveries godoc
// @Summary List notification delivery attempts, newest first
// @Tags admin
// @Param status query string false "queued, sent or failed"
// @Param entity_id query string false "Application ID"
// @Router /api/admin/emails [get]
func (c *EmailController) ListDeliveries(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}

	filters := make(map[string]interface{})
	if status := ctx.Query("status"); status != "" {
		filters["status"] = status
	}
	if entityID := ctx.Query("entity_id"); entityID != "" {
		filters["entityId"] = entityID
	}

	emails, err := c.Repo.List(ctx.UserContext(), filters, limit, (page-1)*limit)
	if err != nil {
		return api.Error(ctx, errs.Persistence(err, "list emails"))
	}

	return ctx.JSON(fiber.Map{
		"data":  emails,
		"page":  page,
		"limit": limit,
	})
}
