package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
)

// respondError traduce los errores de dominio a respuestas HTTP. Los tipos de
// error llevan el detalle estructurado; el resto cae en 500.
func respondError(c *fiber.Ctx, err error) error {
	var preflight *domain.PreflightError
	if errors.As(err, &preflight) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:     "PREFLIGHT_BLOCKED",
			Message:  "líneas del RFQ bloquean el cálculo de precios",
			Blocking: preflight.Items,
		})
	}
	var ruleNotFound *domain.RuleNotFoundError
	if errors.As(err, &ruleNotFound) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "RULE_NOT_FOUND",
			Message: ruleNotFound.Error(),
		})
	}
	var stale *domain.StaleStateError
	if errors.As(err, &stale) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "STALE_STATE",
			Message: "el run cambió de estado; recargue y reintente",
		})
	}
	var perm *domain.PermissionError
	if errors.As(err, &perm) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_LEVEL",
			Message: perm.Error(),
		})
	}
	var crossTenant *domain.CrossTenantAccessError
	if errors.As(err, &crossTenant) {
		// No filtrar al caller qué tenant o recurso existía.
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "acceso denegado",
		})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if errors.Is(err, domain.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	}
	if errors.Is(err, domain.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
