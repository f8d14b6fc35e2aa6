package system

import (
	"context"
	"time"

	"go-travel/internal/features/role"
	"go-travel/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemController struct {
	DB     Pinger
	Logger *zap.Logger
}

func NewSystemController(db Pinger, logger *zap.Logger) *SystemController {
	return &SystemController{DB: db, Logger: logger}
}

// Health godoc
// @Summary      Liveness probe
// @Tags         system
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /health [get]
func (c *SystemController) Health(ctx *fiber.Ctx) error {
	return ctx.SendString("OK")
}

// Ready godoc
// @Summary      Readiness probe, pings the database
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func (c *SystemController) Ready(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	if err := c.DB.Ping(pingCtx); err != nil {
		c.Logger.Warn("Readiness check failed", zap.Error(err))
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unavailable",
			"database": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{"status": "ok", "database": "ok"})
}

// CurrentActor godoc
// @Summary      Caller identity and the queues it can open
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/me [get]
func (c *SystemController) CurrentActor(ctx *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	roles := role.ActorRoles(actor)
	queues := []role.Queue{}
	for _, q := range []role.Queue{role.QueueReviewer, role.QueueMinister, role.QueueAdmin} {
		if role.CanView(roles, q) {
			queues = append(queues, q)
		}
	}

	return ctx.JSON(fiber.Map{
		"id":     actor.ID,
		"name":   actor.FullName(),
		"email":  actor.Email,
		"roles":  roles,
		"queues": queues,
	})
}
