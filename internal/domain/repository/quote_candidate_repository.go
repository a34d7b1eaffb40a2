package repository

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// QuoteCandidateRepository puerto de persistencia de candidatos a cotización.
// Create respeta la FK única sobre run_id: el candidato se crea exactamente
// una vez por run aprobado (un segundo insert viola el unique y falla).
type QuoteCandidateRepository interface {
	Create(ctx context.Context, c *entity.QuoteCandidate) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.QuoteCandidate, error)
	GetByRunID(ctx context.Context, tenantID, runID string) (*entity.QuoteCandidate, error)
	List(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.QuoteCandidate, error)
	// UpdateStatus transiciona pending → converted|dismissed; compare-and-set
	// sobre el estado actual, devuelve true si la fila fue actualizada.
	UpdateStatus(ctx context.Context, tenantID, id, expectStatus, newStatus string) (bool, error)
}
