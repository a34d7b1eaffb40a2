package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.ApprovalEventRepository = (*ApprovalEventRepo)(nil)

// ApprovalEventRepo implementación del log de auditoría append-only (usable
// con pool o tx). Append es la única escritura; la tabla además rechaza
// UPDATE/DELETE con un trigger (ver migrations/001_core.sql) y ese rechazo se
// traduce a ImmutabilityViolation en mapImmutability.
type ApprovalEventRepo struct {
	q Querier
}

// NewApprovalEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewApprovalEventRepository(q Querier) *ApprovalEventRepo {
	return &ApprovalEventRepo{q: q}
}

// Append inserta un evento. Una vez insertado, la fila es inmutable.
func (r *ApprovalEventRepo) Append(ctx context.Context, ev *entity.ApprovalEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	var metadata []byte
	if ev.Metadata != nil {
		var err error
		metadata, err = json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("serializar metadata: %w", err)
		}
	}
	query := `
		INSERT INTO approval_events (
			id, tenant_id, run_id, event_type, prev_status, new_status,
			prev_level, new_level, prev_assignee, new_assignee,
			actor_id, actor_name, actor_role, actor_ip, actor_user_agent,
			is_automated, correlation_id, metadata, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	_, err := r.q.Exec(ctx, query,
		ev.ID, ev.TenantID, ev.RunID, ev.EventType, ev.PrevStatus, ev.NewStatus,
		ev.PrevLevel, ev.NewLevel, nullIfEmpty(ev.PrevAssignee), nullIfEmpty(ev.NewAssignee),
		ev.Actor.ID, ev.Actor.Name, ev.Actor.Role, nullIfEmpty(ev.Actor.IP), nullIfEmpty(ev.Actor.UserAgent),
		ev.IsAutomated, nullIfEmpty(ev.CorrelationID), metadata, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append approval event: %w", mapImmutability(err))
	}
	return nil
}

const eventColumns = `
	id, tenant_id, run_id, event_type, prev_status, new_status,
	prev_level, new_level, COALESCE(prev_assignee, ''), COALESCE(new_assignee, ''),
	actor_id, actor_name, actor_role, COALESCE(actor_ip, ''), COALESCE(actor_user_agent, ''),
	is_automated, COALESCE(correlation_id, ''), metadata, created_at`

// scanEvent escanea una fila completa de approval_events.
func scanEvent(row pgx.Row) (*entity.ApprovalEvent, error) {
	var ev entity.ApprovalEvent
	var metadata []byte
	err := row.Scan(
		&ev.ID, &ev.TenantID, &ev.RunID, &ev.EventType, &ev.PrevStatus, &ev.NewStatus,
		&ev.PrevLevel, &ev.NewLevel, &ev.PrevAssignee, &ev.NewAssignee,
		&ev.Actor.ID, &ev.Actor.Name, &ev.Actor.Role, &ev.Actor.IP, &ev.Actor.UserAgent,
		&ev.IsAutomated, &ev.CorrelationID, &metadata, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("parsear metadata: %w", err)
		}
	}
	return &ev, nil
}

// ListByRun historial completo de un run en orden de timestamp.
func (r *ApprovalEventRepo) ListByRun(ctx context.Context, tenantID, runID string) ([]*entity.ApprovalEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM approval_events
		WHERE tenant_id = $1 AND run_id = $2 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("list approval events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// Search consulta con filtros dinámicos, siempre en orden de timestamp.
// TenantID vacío (solo identidad de plataforma) consulta todos los tenants.
func (r *ApprovalEventRepo) Search(ctx context.Context, f repository.EventFilter) ([]*entity.ApprovalEvent, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, cond+"$"+strconv.Itoa(len(args)))
	}
	if f.TenantID != "" {
		add("tenant_id = ", f.TenantID)
	}
	if f.RunID != "" {
		add("run_id = ", f.RunID)
	}
	if f.ActorID != "" {
		add("actor_id = ", f.ActorID)
	}
	if f.EventType != "" {
		add("event_type = ", f.EventType)
	}
	if f.From != nil {
		add("created_at >= ", *f.From)
	}
	if f.To != nil {
		add("created_at < ", *f.To)
	}

	query := `SELECT ` + eventColumns + ` FROM approval_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search approval events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*entity.ApprovalEvent, error) {
	var list []*entity.ApprovalEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval event: %w", err)
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}
