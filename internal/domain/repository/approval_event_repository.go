package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// EventFilter filtros de consulta del historial de auditoría.
// Los campos vacíos no filtran. TenantID vacío solo es válido para la
// identidad de plataforma (lectura cross-tenant de revisión).
type EventFilter struct {
	TenantID  string
	RunID     string
	ActorID   string
	EventType string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ApprovalEventRepository puerto del log de auditoría inmutable.
//
// Append es la única escritura permitida. La interfaz no expone update ni
// delete, y la tabla approval_events los rechaza además con un trigger
// (BEFORE UPDATE OR DELETE ... RAISE EXCEPTION): la inmutabilidad es
// estructural, no una convención de la aplicación.
type ApprovalEventRepository interface {
	Append(ctx context.Context, ev *entity.ApprovalEvent) error
	ListByRun(ctx context.Context, tenantID, runID string) ([]*entity.ApprovalEvent, error)
	Search(ctx context.Context, f EventFilter) ([]*entity.ApprovalEvent, error)
}
