// Package approval define las reglas puras de la máquina de estados de
// aprobación de un PricingRun:
//
//	draft → pending_level_1 → … → pending_level_N → approved
//	rejected desde cualquier estado pendiente
//	auto_approved solo desde draft (riesgo LOW + recomendación AUTO_APPROVE)
//
// Los estados approved, auto_approved y rejected son terminales. El paquete no
// persiste nada: cada transición devuelve el estado siguiente y los casos de
// uso la ejecutan como compare-and-set sobre (status, version).
package approval

import (
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// Transition resultado de una transición válida.
type Transition struct {
	NewStatus string
	NewLevel  int // 0 en estados terminales
	Terminal  bool
}

// Submit valida draft → pending_level_1.
func Submit(run *entity.PricingRun) (Transition, error) {
	if run.Status != entity.RunStatusDraft {
		return Transition{}, &domain.StaleStateError{RunID: run.ID, ExpectedStatus: entity.RunStatusDraft}
	}
	return Transition{NewStatus: entity.PendingStatus(1), NewLevel: 1}, nil
}

// Approve valida la aprobación del nivel indicado. Solo procede si el run está
// exactamente en pending_level_<level>; avanza al siguiente nivel o a approved
// si level era el último nivel configurado del tenant.
func Approve(run *entity.PricingRun, level, totalLevels int) (Transition, error) {
	current, ok := entity.PendingLevel(run.Status)
	if !ok || current != level {
		return Transition{}, &domain.StaleStateError{RunID: run.ID, ExpectedStatus: entity.PendingStatus(level)}
	}
	if level >= totalLevels {
		return Transition{NewStatus: entity.RunStatusApproved, Terminal: true}, nil
	}
	return Transition{NewStatus: entity.PendingStatus(level + 1), NewLevel: level + 1}, nil
}

// Reject valida el rechazo desde cualquier estado pendiente. La razón es
// obligatoria y se persiste en el run.
func Reject(run *entity.PricingRun, reason string) (Transition, error) {
	if reason == "" {
		return Transition{}, domain.ErrInvalidInput
	}
	if _, ok := entity.PendingLevel(run.Status); !ok {
		return Transition{}, &domain.StaleStateError{RunID: run.ID, ExpectedStatus: "pending_*"}
	}
	return Transition{NewStatus: entity.RunStatusRejected, Terminal: true}, nil
}

// AutoApprove valida draft → auto_approved, condicionado al resultado de la
// evaluación de riesgo externa. Transición automática para fines de auditoría.
func AutoApprove(run *entity.PricingRun, risk entity.RiskAssessment) (Transition, error) {
	if run.Status != entity.RunStatusDraft {
		return Transition{}, &domain.StaleStateError{RunID: run.ID, ExpectedStatus: entity.RunStatusDraft}
	}
	if !risk.AllowsAutoApproval() {
		return Transition{}, domain.ErrConflict
	}
	return Transition{NewStatus: entity.RunStatusAutoApproved, Terminal: true}, nil
}

// CanEscalate indica si el run admite escalamiento: está pendiente y el nivel
// actual aún no fue escalado (la escalación es idempotente, no cambia status).
func CanEscalate(run *entity.PricingRun) bool {
	_, pending := entity.PendingLevel(run.Status)
	return pending && !run.Escalated
}

// HasLevelPermission indica si un actor puede aprobar el nivel dado: su nivel
// de aprobación (claim del token) debe cubrir el nivel solicitado.
func HasLevelPermission(actorLevel, level int) bool {
	return level >= 1 && actorLevel >= level
}
