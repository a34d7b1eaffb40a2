package approval

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios de la máquina de aprobación atados a esa tx. Cada transición se
// confirma como una unidad: compare-and-set del run + evento de auditoría
// (+ candidato a cotización al entrar a un estado terminal aprobado).
type TxRunner interface {
	RunApproval(ctx context.Context, fn func(
		runRepo repository.PricingRunRepository,
		eventRepo repository.ApprovalEventRepository,
		candidateRepo repository.QuoteCandidateRepository,
	) error) error
}
