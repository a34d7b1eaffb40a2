package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/audit"
	"github.com/jhoicas/Cotizador-api/internal/application/dto"
)

// AuditHandler consulta del historial de auditoría (protegido).
type AuditHandler struct {
	uc *audit.UseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.UseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// Search busca eventos con filtros por run, actor, tipo y rango de fechas.
// GET /api/audit
func (h *AuditHandler) Search(c *fiber.Ctx) error {
	var q dto.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "query inválida"})
	}
	q.DefaultPage()

	query := audit.Query{
		RunID:     q.RunID,
		ActorID:   q.ActorID,
		EventType: q.EventType,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.From != "" {
		t, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC 3339"})
		}
		query.From = &t
	}
	if q.To != "" {
		t, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC 3339"})
		}
		query.To = &t
	}

	events, err := h.uc.Trail(c.Context(), TenantContext(c), query)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]dto.ApprovalEventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, dto.NewApprovalEventResponse(ev))
	}
	return c.JSON(resp)
}

// TrailByRun devuelve el historial completo de un run en orden cronológico.
// GET /api/pricing-runs/:id/audit
func (h *AuditHandler) TrailByRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	events, err := h.uc.TrailByRun(c.Context(), TenantContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]dto.ApprovalEventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, dto.NewApprovalEventResponse(ev))
	}
	return c.JSON(resp)
}
