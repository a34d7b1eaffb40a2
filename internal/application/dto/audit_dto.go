package dto

import (
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// AuditQuery filtros de GET /audit.
type AuditQuery struct {
	RunID     string `query:"run_id"`
	ActorID   string `query:"actor_id"`
	EventType string `query:"event_type"`
	From      string `query:"from"` // RFC 3339
	To        string `query:"to"`
	PageRequest
}

// ApprovalEventResponse un evento del historial de auditoría.
type ApprovalEventResponse struct {
	ID            string         `json:"id"`
	TenantID      string         `json:"tenant_id"`
	RunID         string         `json:"run_id"`
	EventType     string         `json:"event_type"`
	PrevStatus    string         `json:"prev_status"`
	NewStatus     string         `json:"new_status"`
	PrevLevel     int            `json:"prev_level"`
	NewLevel      int            `json:"new_level"`
	PrevAssignee  string         `json:"prev_assignee,omitempty"`
	NewAssignee   string         `json:"new_assignee,omitempty"`
	ActorID       string         `json:"actor_id"`
	ActorName     string         `json:"actor_name"`
	ActorRole     string         `json:"actor_role"`
	ActorIP       string         `json:"actor_ip,omitempty"`
	IsAutomated   bool           `json:"is_automated"`
	CorrelationID string         `json:"correlation_id"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewApprovalEventResponse mapea la entidad a la respuesta HTTP.
func NewApprovalEventResponse(ev *entity.ApprovalEvent) ApprovalEventResponse {
	return ApprovalEventResponse{
		ID:            ev.ID,
		TenantID:      ev.TenantID,
		RunID:         ev.RunID,
		EventType:     ev.EventType,
		PrevStatus:    ev.PrevStatus,
		NewStatus:     ev.NewStatus,
		PrevLevel:     ev.PrevLevel,
		NewLevel:      ev.NewLevel,
		PrevAssignee:  ev.PrevAssignee,
		NewAssignee:   ev.NewAssignee,
		ActorID:       ev.Actor.ID,
		ActorName:     ev.Actor.Name,
		ActorRole:     ev.Actor.Role,
		ActorIP:       ev.Actor.IP,
		IsAutomated:   ev.IsAutomated,
		CorrelationID: ev.CorrelationID,
		Metadata:      ev.Metadata,
		CreatedAt:     ev.CreatedAt,
	}
}
