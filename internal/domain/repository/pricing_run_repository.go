package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// PricingRunRepository puerto de persistencia de runs y sus líneas.
//
// Los campos de costo/precio solo se escriben en Create/CreateItem (el run es
// inmutable después); las transiciones de aprobación pasan por UpdateStateCAS,
// un compare-and-set sobre (id, tenant, status, version) que devuelve false si
// el estado cambió por debajo (el caller lo traduce a StaleStateError).
type PricingRunRepository interface {
	Create(ctx context.Context, run *entity.PricingRun) error
	CreateItem(ctx context.Context, item *entity.PricingRunItem) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.PricingRun, error)
	ListItems(ctx context.Context, tenantID, runID string) ([]*entity.PricingRunItem, error)
	ListByRFQ(ctx context.Context, tenantID, rfqID string) ([]*entity.PricingRun, error)

	// UpdateStateCAS escribe status, nivel, versión+1, asignación, SLA,
	// escalated y rejection_reason del run, solo si (status, version)
	// coinciden con lo esperado. Devuelve true si la fila fue actualizada.
	UpdateStateCAS(ctx context.Context, run *entity.PricingRun, expectStatus string, expectVersion int) (bool, error)

	// UpdateRisk fija los campos de riesgo (se escriben una sola vez, tras el cálculo).
	UpdateRisk(ctx context.Context, tenantID, runID string, risk entity.RiskAssessment) error

	// ListDueEscalations devuelve runs pendientes con SLA vencido y aún no
	// escalados en su nivel actual. La ejecuta el sweeper bajo la identidad
	// de sistema.
	ListDueEscalations(ctx context.Context, now time.Time, limit int) ([]*entity.PricingRun, error)

	// ListAutoApprovable devuelve drafts con riesgo LOW/AUTO_APPROVE ya
	// persistido cuya auto-aprobación inline no llegó a confirmarse. Junto con
	// ListDueEscalations son las únicas consultas cross-tenant del core
	// (ambas del sweeper).
	ListAutoApprovable(ctx context.Context, limit int) ([]*entity.PricingRun, error)
}
