package dto

import (
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// QuoteCandidateResponse un candidato a cotización.
type QuoteCandidateResponse struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	RFQID     string    `json:"rfq_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewQuoteCandidateResponse mapea la entidad a la respuesta HTTP.
func NewQuoteCandidateResponse(c *entity.QuoteCandidate) QuoteCandidateResponse {
	return QuoteCandidateResponse{
		ID:        c.ID,
		RunID:     c.RunID,
		RFQID:     c.RFQID,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
