// Package approval implementa los casos de uso de la máquina de estados de
// aprobación: submit, approve, reject, auto-aprobación y escalamiento por SLA.
// Toda transición se ejecuta como compare-and-set sobre (status, version) y
// emite exactamente un evento inmutable de auditoría en la misma transacción.
package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/internal/application/ports"
	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	machine "github.com/jhoicas/Cotizador-api/internal/domain/approval"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// UseCase transiciones de aprobación dirigidas por actores y por el sistema.
type UseCase struct {
	txRunner   TxRunner
	runRepo    repository.PricingRunRepository
	tenantRepo repository.TenantRepository
	notifier   ports.Notifier
	guard      *tenantctx.Guard
	log        *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	runRepo repository.PricingRunRepository,
	tenantRepo repository.TenantRepository,
	notifier ports.Notifier,
	guard *tenantctx.Guard,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:   txRunner,
		runRepo:    runRepo,
		tenantRepo: tenantRepo,
		notifier:   notifier,
		guard:      guard,
		log:        log,
	}
}

// actorFrom arma la identidad de auditoría desde el contexto más los datos de
// la petición (IP y user-agent los aporta el handler).
func actorFrom(tc tenantctx.Context, ip, userAgent string) entity.Actor {
	return entity.Actor{ID: tc.UserID, Name: tc.Name, Role: tc.Role, IP: ip, UserAgent: userAgent}
}

// loadRun carga el run bajo el guardián y valida la versión observada por el
// caller (si la envía) contra la actual.
func (uc *UseCase) loadRun(ctx context.Context, tc tenantctx.Context, runID string, expectVersion int) (*entity.PricingRun, *entity.Tenant, error) {
	tenantID := tc.Scope()
	if err := uc.guard.CheckWrite(tc, tenantID, "pricing_run"); err != nil {
		return nil, nil, err
	}
	run, err := uc.runRepo.GetByID(ctx, tenantID, runID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, domain.ErrNotFound
	}
	if expectVersion != 0 && expectVersion != run.Version {
		return nil, nil, &domain.StaleStateError{RunID: run.ID, ExpectedStatus: run.Status}
	}
	tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant == nil {
		return nil, nil, domain.ErrNotFound
	}
	return run, tenant, nil
}

// Submit transiciona draft → pending_level_1 y fija el SLA del nivel 1.
func (uc *UseCase) Submit(ctx context.Context, tc tenantctx.Context, actor entity.Actor, runID string, expectVersion int, correlationID string) (*entity.PricingRun, error) {
	run, tenant, err := uc.loadRun(ctx, tc, runID, expectVersion)
	if err != nil {
		return nil, err
	}
	trans, err := machine.Submit(run)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(time.Duration(tenant.ApprovalSLAHours) * time.Hour)
	updated := applyTransition(run, trans)
	updated.SLADeadline = &deadline

	ev := newEvent(run, &updated, entity.EventSubmitted, actor, false, correlationID, nil)
	if err := uc.commit(ctx, run, &updated, ev, false); err != nil {
		return nil, err
	}
	uc.notifyRequiresAction(ctx, &updated)
	return &updated, nil
}

// Approve aprueba el nivel indicado: avanza a pending_level_(N+1) o a approved
// si N era el último nivel del tenant. Solo un actor con permiso para ese nivel.
func (uc *UseCase) Approve(ctx context.Context, tc tenantctx.Context, actor entity.Actor, runID string, level, expectVersion int, comment, correlationID string) (*entity.PricingRun, error) {
	if tc.Role != tenantctx.RoleApprover || !machine.HasLevelPermission(tc.ApprovalLevel, level) {
		return nil, &domain.PermissionError{ActorID: tc.UserID, Role: tc.Role, Level: level}
	}
	run, tenant, err := uc.loadRun(ctx, tc, runID, expectVersion)
	if err != nil {
		return nil, err
	}
	trans, err := machine.Approve(run, level, tenant.ApprovalLevels)
	if err != nil {
		return nil, err
	}

	updated := applyTransition(run, trans)
	if !trans.Terminal {
		deadline := time.Now().Add(time.Duration(tenant.ApprovalSLAHours) * time.Hour)
		updated.SLADeadline = &deadline
	}

	var meta map[string]any
	if comment != "" {
		meta = map[string]any{"comment": comment}
	}
	ev := newEvent(run, &updated, entity.EventApproved, actor, false, correlationID, meta)
	if err := uc.commit(ctx, run, &updated, ev, trans.Terminal); err != nil {
		return nil, err
	}

	if trans.Terminal {
		uc.notifyResolved(ctx, &updated)
	} else {
		uc.notifyRequiresAction(ctx, &updated)
	}
	return &updated, nil
}

// Reject rechaza desde cualquier estado pendiente; la razón es obligatoria y
// queda persistida en el run.
func (uc *UseCase) Reject(ctx context.Context, tc tenantctx.Context, actor entity.Actor, runID string, expectVersion int, reason, correlationID string) (*entity.PricingRun, error) {
	run, _, err := uc.loadRun(ctx, tc, runID, expectVersion)
	if err != nil {
		return nil, err
	}
	if level, ok := entity.PendingLevel(run.Status); ok {
		if tc.Role != tenantctx.RoleApprover || !machine.HasLevelPermission(tc.ApprovalLevel, level) {
			return nil, &domain.PermissionError{ActorID: tc.UserID, Role: tc.Role, Level: level}
		}
	}
	trans, err := machine.Reject(run, reason)
	if err != nil {
		return nil, err
	}

	updated := applyTransition(run, trans)
	updated.RejectionReason = reason

	ev := newEvent(run, &updated, entity.EventRejected, actor, false, correlationID,
		map[string]any{"reason": reason})
	if err := uc.commit(ctx, run, &updated, ev, false); err != nil {
		return nil, err
	}
	uc.notifyResolved(ctx, &updated)
	return &updated, nil
}

// AutoApprove transición automática draft → auto_approved, condicionada al
// resultado de riesgo ya persistido en el run. La ejecuta el motor de precios
// tras el cálculo; es automática para fines de auditoría.
func (uc *UseCase) AutoApprove(ctx context.Context, tc tenantctx.Context, run *entity.PricingRun, correlationID string) error {
	if run.Risk == nil {
		return domain.ErrConflict
	}
	if err := uc.guard.CheckWrite(tc, run.TenantID, "pricing_run"); err != nil {
		return err
	}
	trans, err := machine.AutoApprove(run, *run.Risk)
	if err != nil {
		return err
	}

	updated := applyTransition(run, trans)
	ev := newEvent(run, &updated, entity.EventAutoApproved, entity.SystemActor(), true, correlationID,
		map[string]any{
			"risk_level": run.Risk.Level,
			"risk_score": run.Risk.Score,
			"rationale":  run.Risk.Rationale,
		})
	if err := uc.commit(ctx, run, &updated, ev, true); err != nil {
		return err
	}
	*run = updated
	uc.notifyResolved(ctx, run)
	return nil
}

// applyTransition copia el run y aplica el estado siguiente. La versión se
// incrementa; el CAS de persistencia valida contra la versión original.
// La asignación y la marca de escalado pertenecen al nivel que termina:
// cada transición las limpia para que el nivel nuevo arranque sin arrastre.
func applyTransition(run *entity.PricingRun, trans machine.Transition) entity.PricingRun {
	updated := *run
	updated.Status = trans.NewStatus
	updated.CurrentLevel = trans.NewLevel
	updated.Version = run.Version + 1
	updated.Escalated = false
	updated.AssignedApproverID = ""
	updated.UpdatedAt = time.Now()
	if trans.Terminal {
		updated.SLADeadline = nil
	}
	return updated
}

// commit ejecuta la transición como unidad atómica: CAS del run + evento
// (+ candidato si se entra a aprobado terminal). Un CAS perdido devuelve
// StaleStateError sin efectos.
func (uc *UseCase) commit(ctx context.Context, prev, updated *entity.PricingRun, ev *entity.ApprovalEvent, createCandidate bool) error {
	return uc.txRunner.RunApproval(ctx, func(
		runRepo repository.PricingRunRepository,
		eventRepo repository.ApprovalEventRepository,
		candidateRepo repository.QuoteCandidateRepository,
	) error {
		ok, err := runRepo.UpdateStateCAS(ctx, updated, prev.Status, prev.Version)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.StaleStateError{RunID: prev.ID, ExpectedStatus: prev.Status}
		}
		if err := eventRepo.Append(ctx, ev); err != nil {
			return err
		}
		if createCandidate && updated.Status != entity.RunStatusRejected {
			now := time.Now()
			return candidateRepo.Create(ctx, &entity.QuoteCandidate{
				ID:        uuid.New().String(),
				TenantID:  updated.TenantID,
				RunID:     updated.ID,
				RFQID:     updated.RFQID,
				Status:    entity.CandidatePending,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return nil
	})
}

// newEvent arma el evento de auditoría de una transición.
func newEvent(prev, updated *entity.PricingRun, eventType string, actor entity.Actor, automated bool, correlationID string, meta map[string]any) *entity.ApprovalEvent {
	prevLevel, _ := entity.PendingLevel(prev.Status)
	return &entity.ApprovalEvent{
		ID:            uuid.New().String(),
		TenantID:      updated.TenantID,
		RunID:         updated.ID,
		EventType:     eventType,
		PrevStatus:    prev.Status,
		NewStatus:     updated.Status,
		PrevLevel:     prevLevel,
		NewLevel:      updated.CurrentLevel,
		PrevAssignee:  prev.AssignedApproverID,
		NewAssignee:   updated.AssignedApproverID,
		Actor:         actor,
		IsAutomated:   automated,
		CorrelationID: correlationID,
		Metadata:      meta,
		CreatedAt:     time.Now(),
	}
}

// Las notificaciones son best-effort: un fallo se registra y nunca afecta la transición.
func (uc *UseCase) notifyRequiresAction(ctx context.Context, run *entity.PricingRun) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.RunRequiresAction(ctx, run); err != nil {
		uc.log.Warn().Err(err).Str("run_id", run.ID).Msg("notificación de acción requerida falló")
	}
}

func (uc *UseCase) notifyResolved(ctx context.Context, run *entity.PricingRun) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.RunResolved(ctx, run); err != nil {
		uc.log.Warn().Err(err).Str("run_id", run.ID).Msg("notificación de resolución falló")
	}
}
