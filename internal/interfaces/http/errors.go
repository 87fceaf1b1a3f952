package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
)

// errorMapping asocia cada error de dominio con su status y código HTTP.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicateID, fiber.StatusConflict, "DUPLICATE_ID"},
	{domain.ErrUnknownProduct, fiber.StatusUnprocessableEntity, "UNKNOWN_PRODUCT"},
	{domain.ErrUnknownLocation, fiber.StatusUnprocessableEntity, "UNKNOWN_LOCATION"},
	{domain.ErrInvalidQuantity, fiber.StatusUnprocessableEntity, "INVALID_QUANTITY"},
	{domain.ErrNoLocationSpecified, fiber.StatusUnprocessableEntity, "NO_LOCATION_SPECIFIED"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// respondError traduce err a dto.ErrorResponse. Errores no reconocidos -> 500 INTERNAL
// sin exponer el detalle de infraestructura.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}

// ErrorHandler manejador global de fiber: errores de dominio que escapan de un handler
// y *fiber.Error (404 de rutas, 405) se devuelven con el mismo cuerpo JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: codeForStatus(fe.Code), Message: fe.Message})
	}
	return respondError(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}
