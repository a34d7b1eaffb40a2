package entity

import "time"

// Tipos de evento de aprobación.
const (
	EventRunCreated   = "run_created"
	EventSubmitted    = "submitted"
	EventApproved     = "approved"
	EventRejected     = "rejected"
	EventEscalated    = "escalated"
	EventAutoApproved = "auto_approved"
)

// Actor identidad de quien ejecuta una transición (humano o sistema).
type Actor struct {
	ID        string
	Name      string
	Role      string
	IP        string
	UserAgent string
}

// SystemActor identidad usada en transiciones automáticas (sweeper, auto-aprobación).
func SystemActor() Actor {
	return Actor{ID: "system", Name: "system", Role: "system"}
}

// ApprovalEvent un evento inmutable del historial de aprobación. Una fila por
// transición; una vez insertada nunca se actualiza ni elimina (garantizado en
// la capa de almacenamiento con un trigger, no solo por convención).
type ApprovalEvent struct {
	ID            string
	TenantID      string
	RunID         string
	EventType     string
	PrevStatus    string
	NewStatus     string
	PrevLevel     int
	NewLevel      int
	PrevAssignee  string
	NewAssignee   string
	Actor         Actor
	IsAutomated   bool
	CorrelationID string         // agrupa los eventos de una misma petición lógica
	Metadata      map[string]any // payload libre (ej. score de riesgo al auto-aprobar)
	CreatedAt     time.Time
}
