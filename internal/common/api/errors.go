package api

import (
	"go-travel/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[errs.Kind]int{
	errs.KindNotFound:              fiber.StatusNotFound,
	errs.KindInvalidTransition:     fiber.StatusConflict,
	errs.KindMissingReferralTarget: fiber.StatusUnprocessableEntity,
	errs.KindUnauthorized:          fiber.StatusForbidden,
	errs.KindValidation:            fiber.StatusBadRequest,
	errs.KindPersistence:           fiber.StatusInternalServerError,
	errs.KindInternal:              fiber.StatusInternalServerError,
}

func StatusFor(kind errs.Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// Error writes err with the status code of its kind. The kind is part of
// the body so clients can branch on it without parsing messages.
func Error(c *fiber.Ctx, err error) error {
	kind := errs.KindOf(err)
	return c.Status(StatusFor(kind)).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  kind,
	})
}
