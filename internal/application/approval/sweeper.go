package approval

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/ports"
	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	machine "github.com/jhoicas/Cotizador-api/internal/domain/approval"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// Sweeper barridos periódicos del sistema: escalamiento SLA y reintento de
// auto-aprobaciones. Procesa cada run de forma independiente; el escalamiento
// reasigna al aprobador de respaldo y extiende el plazo sin cambiar el status.
// Ambos barridos son idempotentes: un run ya escalado en su nivel actual es un
// no-op, y un CAS perdido se reintenta en el siguiente barrido.
type Sweeper struct {
	txRunner     TxRunner
	runRepo      repository.PricingRunRepository
	tenantRepo   repository.TenantRepository
	autoApprover *UseCase
	notifier     ports.Notifier
	log          *logger.Logger
	batchSize    int
}

// NewSweeper construye el barrido.
func NewSweeper(
	txRunner TxRunner,
	runRepo repository.PricingRunRepository,
	tenantRepo repository.TenantRepository,
	autoApprover *UseCase,
	notifier ports.Notifier,
	log *logger.Logger,
	batchSize int,
) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		txRunner:     txRunner,
		runRepo:      runRepo,
		tenantRepo:   tenantRepo,
		autoApprover: autoApprover,
		notifier:     notifier,
		log:          log,
		batchSize:    batchSize,
	}
}

// EscalateDue procesa los runs con SLA vencido. Devuelve cuántos escaló.
func (s *Sweeper) EscalateDue(ctx context.Context) (int, error) {
	due, err := s.runRepo.ListDueEscalations(ctx, time.Now(), s.batchSize)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, run := range due {
		if err := s.escalate(ctx, run); err != nil {
			// Un run que falla no detiene el resto; el siguiente barrido reintenta.
			var stale *domain.StaleStateError
			if errors.As(err, &stale) {
				s.log.Debug().Str("run_id", run.ID).Msg("escalamiento perdió la carrera, se reintenta en el próximo barrido")
				continue
			}
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("escalamiento falló")
			continue
		}
		escalated++
	}
	return escalated, nil
}

// AutoApproveEligible reintenta la auto-aprobación de drafts con riesgo
// LOW/AUTO_APPROVE ya persistido. La transición inline tras el cálculo puede
// perder su carrera o morir antes de confirmarse; este barrido garantiza que
// ningún draft elegible quede varado. Devuelve cuántos auto-aprobó.
func (s *Sweeper) AutoApproveEligible(ctx context.Context) (int, error) {
	eligible, err := s.runRepo.ListAutoApprovable(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}

	approved := 0
	for _, run := range eligible {
		if err := s.autoApprover.AutoApprove(ctx, tenantctx.System(run.TenantID), run, ""); err != nil {
			var stale *domain.StaleStateError
			if errors.As(err, &stale) {
				s.log.Debug().Str("run_id", run.ID).Msg("auto-aprobación perdió la carrera, se reintenta en el próximo barrido")
				continue
			}
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("auto-aprobación de barrido falló")
			continue
		}
		approved++
	}
	return approved, nil
}

// escalate una sola escalación, como transición automática auditada.
func (s *Sweeper) escalate(ctx context.Context, run *entity.PricingRun) error {
	if !machine.CanEscalate(run) {
		return nil // ya escalado o ya no está pendiente: no-op
	}
	tenant, err := s.tenantRepo.GetByID(ctx, run.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.ErrNotFound
	}

	deadline := time.Now().Add(time.Duration(tenant.ApprovalSLAHours) * time.Hour)
	updated := *run
	updated.Version = run.Version + 1
	updated.AssignedApproverID = tenant.BackupApproverID
	updated.SLADeadline = &deadline
	updated.Escalated = true
	updated.UpdatedAt = time.Now()

	ev := newEvent(run, &updated, entity.EventEscalated, entity.SystemActor(), true, "", map[string]any{
		"expired_deadline": run.SLADeadline,
		"backup_approver":  tenant.BackupApproverID,
	})

	err = s.txRunner.RunApproval(ctx, func(
		runRepo repository.PricingRunRepository,
		eventRepo repository.ApprovalEventRepository,
		_ repository.QuoteCandidateRepository,
	) error {
		ok, err := runRepo.UpdateStateCAS(ctx, &updated, run.Status, run.Version)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.StaleStateError{RunID: run.ID, ExpectedStatus: run.Status}
		}
		return eventRepo.Append(ctx, ev)
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if nerr := s.notifier.RunRequiresAction(ctx, &updated); nerr != nil {
			s.log.Warn().Err(nerr).Str("run_id", run.ID).Msg("notificación de escalamiento falló")
		}
	}

	s.log.Info().
		Str("run_id", run.ID).
		Str("tenant_id", run.TenantID).
		Str("backup_approver", tenant.BackupApproverID).
		Msg("run escalado por SLA vencido")
	return nil
}
