package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de aprobación de un PricingRun.
// Los estados pendientes llevan el nivel: pending_level_1, pending_level_2, ...
const (
	RunStatusDraft        = "draft"
	RunStatusApproved     = "approved"
	RunStatusAutoApproved = "auto_approved"
	RunStatusRejected     = "rejected"

	pendingPrefix = "pending_level_"
)

// PendingStatus devuelve el estado pendiente para un nivel (pending_level_N).
func PendingStatus(level int) string {
	return fmt.Sprintf("%s%d", pendingPrefix, level)
}

// PendingLevel extrae el nivel de un estado pendiente; ok=false si el estado no es pendiente.
func PendingLevel(status string) (int, bool) {
	if !strings.HasPrefix(status, pendingPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(status, pendingPrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// IsTerminalStatus indica si el estado no admite más transiciones.
func IsTerminalStatus(status string) bool {
	return status == RunStatusApproved || status == RunStatusAutoApproved || status == RunStatusRejected
}

// Niveles de riesgo y recomendaciones del colaborador externo de evaluación (IA).
const (
	RiskLevelLow    = "LOW"
	RiskLevelMedium = "MEDIUM"
	RiskLevelHigh   = "HIGH"

	RiskRecommendAutoApprove  = "AUTO_APPROVE"
	RiskRecommendManualReview = "MANUAL_REVIEW"
)

// RiskAssessment resultado de la evaluación de riesgo de un run.
type RiskAssessment struct {
	Level          string          // LOW | MEDIUM | HIGH
	Score          int             // 0–100
	Recommendation string          // AUTO_APPROVE | MANUAL_REVIEW
	Rationale      string
	Confidence     decimal.Decimal // 0.0–1.0
}

// AllowsAutoApproval indica si el resultado habilita la aprobación automática.
func (r RiskAssessment) AllowsAutoApproval() bool {
	return r.Level == RiskLevelLow && r.Recommendation == RiskRecommendAutoApprove
}

// PricingRun una pasada de cálculo de precios sobre un RFQ. Los campos de
// costo/precio son inmutables después de crearse; solo transicionan los campos
// de aprobación (status, nivel, asignación, SLA), protegidos por Version
// (concurrencia optimista: compare-and-set sobre status+version).
type PricingRun struct {
	ID                 string
	TenantID           string
	RFQID              string
	Status             string
	CurrentLevel       int // 0 en draft/terminal, N en pending_level_N
	Version            int
	Currency           string
	TotalBaseCost      decimal.Decimal
	TotalLogisticsCost decimal.Decimal
	TotalDutyCost      decimal.Decimal
	TotalCost          decimal.Decimal // costo landed total = Σ landed de las líneas
	TotalPrice         decimal.Decimal // Σ sell de las líneas
	MarginPct          decimal.Decimal // (precio - costo) / costo
	RoundingMethod     string          // método aplicado, para trazabilidad
	Risk               *RiskAssessment // nil = aún sin evaluar
	RejectionReason    string
	AssignedApproverID string
	SLADeadline        *time.Time
	Escalated          bool // true si el nivel actual ya fue escalado (idempotencia)
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PricingRunItem desglose por línea de un run. La suma de las líneas debe ser
// exactamente igual a los totales del run (invariante validado, no asumido).
type PricingRunItem struct {
	ID               string
	RunID            string
	TenantID         string
	RFQItemID        string
	RuleID           string
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	BaseCost         decimal.Decimal
	FreightCost      decimal.Decimal
	InsuranceCost    decimal.Decimal
	HandlingCost     decimal.Decimal
	LocalChargesCost decimal.Decimal
	LogisticsCost    decimal.Decimal // suma de subcomponentes, o % plano
	DutyCost         decimal.Decimal // 0 si no hay mapeo HS para el material
	LandedCost       decimal.Decimal
	UnitPrice        decimal.Decimal // sell / cantidad
	SellPrice        decimal.Decimal // precio de venta redondeado
	RoundingApplied  decimal.Decimal // sell redondeado - sell crudo
}
