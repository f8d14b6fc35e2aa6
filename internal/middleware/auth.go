package middleware

import (
	"go-travel/internal/common/models"
	"go-travel/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects the request actor into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Dev identity with every queue available
			c.Locals(utils.UserClaimsKey, &utils.UserClaims{
				UserID:    "dev-admin-id",
				FirstName: "Dev",
				LastName:  "Admin",
				Email:     "dev-admin@localhost",
				Roles:     []string{"USER", "REVIEWER", "MINISTER", "ADMIN"},
			})
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(authHeader[7:])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// ActorFrom returns the identity snapshot of the authenticated caller.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		return models.Actor{}, false
	}
	return models.Actor{
		ID:        claims.UserID,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
		Roles:     claims.Roles,
	}, true
}
