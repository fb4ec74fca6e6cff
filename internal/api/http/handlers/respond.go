package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Toast kinds carried by mutation responses.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}

func respondData(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

// respondMutation adds the toast fields to a data envelope.
func respondMutation(c *fiber.Ctx, status int, data any, message string, extra fiber.Map) error {
	body := fiber.Map{"data": data, "type": ToastSuccess, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
