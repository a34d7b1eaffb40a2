package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de origen del material.
const (
	OriginDomestic = "domestic"
	OriginImport   = "import"
)

// PricingRule regla de precios por (tenant, categoría, tipo de origen, cliente opcional).
// ClientID nil actúa como regla por defecto del tenant cuando no existe una
// regla específica del cliente. Las fracciones son decimales exactos (0.12 = 12%).
type PricingRule struct {
	ID           string
	TenantID     string
	Category     string // categoría de material: "pipe", "beam", "coil", ...
	OriginType   string // domestic | import
	ClientID     *string
	MarkupPct    decimal.Decimal
	LogisticsPct decimal.Decimal // % plano cuando el tenant no tiene tabla logística
	RiskPct      decimal.Decimal
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate verifica que las fracciones sean no negativas.
func (r *PricingRule) Validate() bool {
	return !r.MarkupPct.IsNegative() && !r.LogisticsPct.IsNegative() && !r.RiskPct.IsNegative()
}
