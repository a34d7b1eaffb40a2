package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de redondeo del precio de venta.
const (
	RoundingNone    = "none"    // sin redondeo
	RoundingUp      = "up"      // hacia arriba al múltiplo del incremento
	RoundingNearest = "nearest" // al múltiplo más cercano (mitades hacia arriba)
)

// RoundingPolicy regla de redondeo configurada por tenant.
// Increment es el múltiplo monetario (ej. 1.00, 0.50, 100).
type RoundingPolicy struct {
	Method    string          `json:"method"`
	Increment decimal.Decimal `json:"increment"`
}

// Tenant representa una organización aislada del sistema (comercializadora de metales).
// Toda entidad de negocio lleva su TenantID y debe coincidir con el contexto activo.
type Tenant struct {
	ID                     string
	Code                   string
	Name                   string
	Active                 bool
	Demo                   bool
	HomeCountry            string   // ISO-3166 alpha-2
	AllowedImportCountries []string // países habilitados como origen de importación
	ApprovalLevels         int      // niveles de aprobación requeridos (N >= 1)
	ApprovalSLAHours       int      // plazo por nivel antes de escalar
	BackupApproverID       string   // aprobador de respaldo al escalar
	Rounding               RoundingPolicy
	Logistics              *LogisticsConfig // nil = sin tabla logística, se usa el % plano de la regla
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
