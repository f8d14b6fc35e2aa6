package notification

import (
	"fmt"

	"go-travel/internal/common/api"
	"go-travel/internal/common/errs"
	"go-travel/internal/features/email"
	"go-travel/internal/features/settings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type TestEmailRequest struct {
	To string `json:"to" validate:"required,email"`
}

type NotificationController struct {
	SettingsService settings.SettingsService
	Sender          email.Sender
}

func NewNotificationController(settingsService settings.SettingsService, sender email.Sender) *NotificationController {
	return &NotificationController{
		SettingsService: settingsService,
		Sender:          sender,
	}
}

// SendTest godoc
// @Summary Send a test email with the stored SMTP settings
// @Tags admin
// @Accept json
// @Router /api/admin/notifications/test [post]
func (c *NotificationController) SendTest(ctx *fiber.Ctx) error {
	var req TestEmailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return api.Error(ctx, errs.Validation(err))
	}

	cfg, err := c.SettingsService.Get(ctx.UserContext())
	if err != nil {
		return api.Error(ctx, err)
	}

	receipt, err := c.Sender.Send(ctx.UserContext(), email.Message{
		To:      []string{req.To},
		Subject: fmt.Sprintf("Test email from %s", cfg.System.SiteName),
		HTML:    "<p>Your email settings are working.</p>",
		Event:   "test",
	})
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"message_id": receipt.MessageID,
		"transport":  receipt.Transport,
	})
}
