package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/pricing"
)

// PricingHandler maneja las peticiones HTTP del motor de precios (protegido).
type PricingHandler struct {
	uc *pricing.ComputeRunUseCase
}

// NewPricingHandler construye el handler.
func NewPricingHandler(uc *pricing.ComputeRunUseCase) *PricingHandler {
	return &PricingHandler{uc: uc}
}

// ComputeRun calcula un run de precios para un RFQ.
// POST /api/rfqs/:id/pricing-runs
func (h *PricingHandler) ComputeRun(c *fiber.Ctx) error {
	rfqID := c.Params("id")
	if rfqID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de RFQ requerido"})
	}
	correlationID := c.Get("X-Correlation-ID")
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	run, items, err := h.uc.ComputeRun(c.Context(), TenantContext(c), rfqID, correlationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPricingRunResponse(run, items))
}

// GetRun obtiene un run con su desglose por línea.
// GET /api/pricing-runs/:id
func (h *PricingHandler) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	run, items, err := h.uc.GetRun(c.Context(), TenantContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPricingRunResponse(run, items))
}
