package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/candidate"
	"github.com/jhoicas/Cotizador-api/internal/application/dto"
)

// CandidateHandler maneja los candidatos a cotización (protegido).
type CandidateHandler struct {
	uc *candidate.UseCase
}

// NewCandidateHandler construye el handler.
func NewCandidateHandler(uc *candidate.UseCase) *CandidateHandler {
	return &CandidateHandler{uc: uc}
}

// List candidatos del tenant, opcionalmente por estado.
// GET /api/quote-candidates?status=pending
func (h *CandidateHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "query inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.List(c.Context(), TenantContext(c), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]dto.QuoteCandidateResponse, 0, len(list))
	for _, cand := range list {
		resp = append(resp, dto.NewQuoteCandidateResponse(cand))
	}
	return c.JSON(resp)
}

// Dismiss descarta un candidato pendiente.
// POST /api/quote-candidates/:id/dismiss
func (h *CandidateHandler) Dismiss(c *fiber.Ctx) error {
	cand, err := h.uc.Dismiss(c.Context(), TenantContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewQuoteCandidateResponse(cand))
}

// MarkConverted marca un candidato como convertido en cotización.
// POST /api/quote-candidates/:id/convert
func (h *CandidateHandler) MarkConverted(c *fiber.Ctx) error {
	cand, err := h.uc.MarkConverted(c.Context(), TenantContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewQuoteCandidateResponse(cand))
}

// Document genera el PDF de cotización de un candidato.
// GET /api/quote-candidates/:id/document
func (h *CandidateHandler) Document(c *fiber.Ctx) error {
	pdfBytes, err := h.uc.Document(c.Context(), TenantContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `inline; filename="cotizacion.pdf"`)
	return c.Send(pdfBytes)
}
