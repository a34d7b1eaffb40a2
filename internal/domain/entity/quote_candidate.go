package entity

import "time"

// Estados de conversión de un candidato a cotización.
const (
	CandidatePending   = "pending"
	CandidateConverted = "converted"
	CandidateDismissed = "dismissed"
)

// QuoteCandidate expone un PricingRun aprobado como candidato para la
// conversión posterior (el destino de la conversión queda fuera del core).
// Se crea exactamente una vez por run aprobado (FK única sobre RunID).
type QuoteCandidate struct {
	ID        string
	TenantID  string
	RunID     string
	RFQID     string
	Status    string // pending | converted | dismissed
	CreatedAt time.Time
	UpdatedAt time.Time
}
