package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// ApplyRounding aplica la política de redondeo del tenant a un valor monetario.
// Devuelve el valor redondeado y el ajuste aplicado (redondeado - original),
// que se persiste en la línea para trazabilidad. La función es determinista e
// idempotente: re-aplicarla a un valor ya redondeado no lo cambia.
func ApplyRounding(policy entity.RoundingPolicy, v decimal.Decimal) (rounded, applied decimal.Decimal) {
	inc := policy.Increment
	if policy.Method == entity.RoundingNone || policy.Method == "" || !inc.IsPositive() {
		return v, decimal.Zero
	}

	q := v.Div(inc)
	switch policy.Method {
	case entity.RoundingUp:
		rounded = q.Ceil().Mul(inc)
	case entity.RoundingNearest:
		// mitades hacia arriba
		rounded = q.Round(0).Mul(inc)
	default:
		return v, decimal.Zero
	}
	return rounded, rounded.Sub(v)
}
