package pricing

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el run, sus líneas y el evento
// de creación se confirmen como una sola unidad atómica: un run parcial nunca
// es visible.
type TxRunner interface {
	RunPricing(ctx context.Context, fn func(
		runRepo repository.PricingRunRepository,
		eventRepo repository.ApprovalEventRepository,
	) error) error
}

// AutoApprover dispara la transición automática draft → auto_approved cuando
// la evaluación de riesgo lo habilita. Lo implementa el caso de uso de
// aprobación; la interfaz evita el ciclo de imports entre paquetes.
type AutoApprover interface {
	AutoApprove(ctx context.Context, tc tenantctx.Context, run *entity.PricingRun, correlationID string) error
}
