// Package audit expone la consulta del historial inmutable de aprobación.
// Las lecturas nunca requieren saltarse el aislamiento: un contexto de tenant
// solo ve sus propios eventos; la identidad de plataforma puede consultar
// cross-tenant (revisión de seguridad), siempre en solo lectura.
package audit

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// Query filtros de consulta del historial.
type Query struct {
	RunID     string
	ActorID   string
	EventType string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// UseCase consulta del historial de auditoría.
type UseCase struct {
	eventRepo repository.ApprovalEventRepository
	guard     *tenantctx.Guard
}

// NewUseCase construye el caso de uso.
func NewUseCase(eventRepo repository.ApprovalEventRepository, guard *tenantctx.Guard) *UseCase {
	return &UseCase{eventRepo: eventRepo, guard: guard}
}

// Trail devuelve los eventos que cumplen el filtro, ordenados por timestamp.
// Para un contexto normal el filtro queda forzado al tenant del contexto; la
// identidad de plataforma sin tenant objetivo consulta todos los tenants.
func (uc *UseCase) Trail(ctx context.Context, tc tenantctx.Context, q Query) ([]*entity.ApprovalEvent, error) {
	tenantID := tc.Scope()
	if tenantID == "" && !tc.IsPlatform() {
		return nil, &domain.CrossTenantAccessError{ContextTenant: tc.TenantID, Resource: "approval_event"}
	}
	if tenantID != "" {
		if err := uc.guard.CheckRead(tc, tenantID, "approval_event"); err != nil {
			return nil, err
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	return uc.eventRepo.Search(ctx, repository.EventFilter{
		TenantID:  tenantID,
		RunID:     q.RunID,
		ActorID:   q.ActorID,
		EventType: q.EventType,
		From:      q.From,
		To:        q.To,
		Limit:     limit,
		Offset:    q.Offset,
	})
}

// TrailByRun historial completo de un run (tenant-scoped).
func (uc *UseCase) TrailByRun(ctx context.Context, tc tenantctx.Context, runID string) ([]*entity.ApprovalEvent, error) {
	tenantID := tc.Scope()
	if err := uc.guard.CheckRead(tc, tenantID, "approval_event"); err != nil {
		return nil, err
	}
	return uc.eventRepo.ListByRun(ctx, tenantID, runID)
}
