package settings

import (
	"encoding/json"

	"go-travel/internal/common/api"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsController struct {
	Service SettingsService
}

func NewSettingsController(service SettingsService) *SettingsController {
	return &SettingsController{
		Service: service,
	}
}

// GetSettings godoc
// @Summary Get system settings
// @Description Secrets are returned masked
// @Tags settings
// @Produce json
// @Success 200 {object} Document
// @Failure 500 {object} map[string]interface{}
// @Router /api/admin/settings [get]
func (c *SettingsController) GetSettings(ctx *fiber.Ctx) error {
	doc, err := c.Service.Get(ctx.UserContext())
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(doc.Redacted())
}

// UpdateSettings godoc
// @Summary Update system settings
// @Description Deep-merges a partial document; masked secrets keep their stored value
// @Tags settings
// @Accept json
// @Produce json
// @Success 200 {object} Document
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/admin/settings [put]
func (c *SettingsController) UpdateSettings(ctx *fiber.Ctx) error {
	body := ctx.Body()
	if !json.Valid(body) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor, _ := middleware.ActorFrom(ctx)
	doc, err := c.Service.Update(ctx.UserContext(), json.RawMessage(body), actor.ID)
	if err != nil {
		return api.Error(ctx, err)
	}

	return ctx.JSON(doc.Redacted())
}
