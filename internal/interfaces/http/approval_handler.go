package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/internal/application/approval"
	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// ApprovalHandler maneja las transiciones de aprobación (protegido).
type ApprovalHandler struct {
	uc *approval.UseCase
}

// NewApprovalHandler construye el handler.
func NewApprovalHandler(uc *approval.UseCase) *ApprovalHandler {
	return &ApprovalHandler{uc: uc}
}

func correlationID(c *fiber.Ctx) string {
	if id := c.Get("X-Correlation-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func transitionResponse(run *entity.PricingRun) dto.TransitionResponse {
	return dto.TransitionResponse{
		RunID:        run.ID,
		Status:       run.Status,
		CurrentLevel: run.CurrentLevel,
		Version:      run.Version,
	}
}

// Submit envía un run draft al primer nivel de aprobación.
// POST /api/pricing-runs/:id/submit
func (h *ApprovalHandler) Submit(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.SubmitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	run, err := h.uc.Submit(c.Context(), TenantContext(c), RequestActor(c), id, in.Version, correlationID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transitionResponse(run))
}

// Approve aprueba el nivel actual de un run pendiente.
// POST /api/pricing-runs/:id/approve
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.ApproveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	run, err := h.uc.Approve(c.Context(), TenantContext(c), RequestActor(c), id, in.Level, in.Version, in.Comment, correlationID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transitionResponse(run))
}

// Reject rechaza un run pendiente; el motivo es obligatorio.
// POST /api/pricing-runs/:id/reject
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.RejectRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reason es obligatorio para rechazar"})
	}
	run, err := h.uc.Reject(c.Context(), TenantContext(c), RequestActor(c), id, in.Version, in.Reason, correlationID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transitionResponse(run))
}
