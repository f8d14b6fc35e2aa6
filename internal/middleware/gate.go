package middleware

import (
	"go-travel/internal/features/role"

	"github.com/gofiber/fiber/v2"
)

// RequireQueue rejects callers whose role set cannot open the queue.
func RequireQueue(q role.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !role.CanView(role.ActorRoles(actor), q) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Insufficient permissions",
				"kind":  "UNAUTHORIZED",
			})
		}

		return c.Next()
	}
}
