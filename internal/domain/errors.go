package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// BlockingItem describe una línea de RFQ que impide el cálculo de precios.
type BlockingItem struct {
	ItemID string `json:"item_id"`
	LineNo int    `json:"line_no"`
	Reason string `json:"reason"`
}

// Razones de bloqueo en la pre-validación del motor de precios.
const (
	BlockNeedsReview     = "needs_review"
	BlockMissingSupplier = "missing_supplier"
	BlockZeroQuantity    = "zero_quantity"
	BlockMissingMaterial = "missing_material"
)

// PreflightError se devuelve cuando una o más líneas del RFQ bloquean el cálculo.
// El caller recibe la lista estructurada; nunca se persiste un run parcial.
type PreflightError struct {
	RFQID string
	Items []BlockingItem
}

func (e *PreflightError) Error() string {
	reasons := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		reasons = append(reasons, fmt.Sprintf("línea %d: %s", it.LineNo, it.Reason))
	}
	return fmt.Sprintf("rfq %s: %d línea(s) bloquean el cálculo (%s)",
		e.RFQID, len(e.Items), strings.Join(reasons, "; "))
}

// RuleNotFoundError indica que no existe regla de precios aplicable
// ni específica del cliente ni por defecto del tenant.
type RuleNotFoundError struct {
	TenantID   string
	Category   string
	OriginType string
	ClientID   string // vacío si solo se buscó la regla por defecto
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("regla de precios no encontrada: tenant=%s categoría=%s origen=%s",
		e.TenantID, e.Category, e.OriginType)
}

// StaleStateError indica que una transición de aprobación perdió la carrera
// optimista: el estado del run cambió por debajo. El caller debe recargar y reintentar.
type StaleStateError struct {
	RunID          string
	ExpectedStatus string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("run %s: el estado cambió (se esperaba %s)", e.RunID, e.ExpectedStatus)
}

// PermissionError indica que el actor no tiene autoridad para el nivel de aprobación.
type PermissionError struct {
	ActorID string
	Role    string
	Level   int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("actor %s (rol %s) sin permiso para el nivel %d", e.ActorID, e.Role, e.Level)
}

// CrossTenantAccessError indica una violación de aislamiento de tenant.
// Siempre es fatal para la petición en curso y siempre se registra en el log.
type CrossTenantAccessError struct {
	ContextTenant string
	TargetTenant  string
	Resource      string
}

func (e *CrossTenantAccessError) Error() string {
	return fmt.Sprintf("acceso cruzado de tenant denegado: contexto=%s objetivo=%s recurso=%s",
		e.ContextTenant, e.TargetTenant, e.Resource)
}

// ImmutabilityViolation indica un intento de UPDATE/DELETE sobre un evento de
// auditoría ya insertado. Señala un bug serio o un ataque; aborta la transacción.
type ImmutabilityViolation struct {
	Table  string
	Detail string
}

func (e *ImmutabilityViolation) Error() string {
	return fmt.Sprintf("violación de inmutabilidad en %s: %s", e.Table, e.Detail)
}
