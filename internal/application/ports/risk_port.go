package ports

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// RiskAssessor puerto del colaborador externo de evaluación de riesgo (IA).
// El caso de uso impone un context.WithTimeout y trata cualquier fallo o
// timeout como MANUAL_REVIEW: la corrección de la máquina de aprobación nunca
// depende de que la llamada de IA tenga éxito.
type RiskAssessor interface {
	Assess(ctx context.Context, run *entity.PricingRun, items []*entity.PricingRunItem) (*entity.RiskAssessment, error)
}
