package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/pricing"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Caso 1: método none → el valor no cambia nunca.
func TestApplyRounding_None_NoModifica(t *testing.T) {
	policy := entity.RoundingPolicy{Method: entity.RoundingNone, Increment: dec("0.5")}
	rounded, applied := pricing.ApplyRounding(policy, dec("123.4567"))

	assert.True(t, rounded.Equal(dec("123.4567")), "none no debe alterar el valor")
	assert.True(t, applied.IsZero(), "el ajuste debe ser cero")
}

// Caso 2: método up → siempre hacia arriba al múltiplo del incremento.
func TestApplyRounding_Up_SiempreHaciaArriba(t *testing.T) {
	policy := entity.RoundingPolicy{Method: entity.RoundingUp, Increment: dec("0.50")}

	rounded, applied := pricing.ApplyRounding(policy, dec("100.01"))
	assert.True(t, rounded.Equal(dec("100.50")), "100.01 con incremento 0.50 debe subir a 100.50: %s", rounded)
	assert.True(t, applied.Equal(dec("0.49")))

	// Un valor ya en el múltiplo no sube más.
	rounded, applied = pricing.ApplyRounding(policy, dec("100.50"))
	assert.True(t, rounded.Equal(dec("100.50")))
	assert.True(t, applied.IsZero())
}

// Caso 3: método nearest → mitades hacia arriba.
func TestApplyRounding_Nearest_MitadesHaciaArriba(t *testing.T) {
	policy := entity.RoundingPolicy{Method: entity.RoundingNearest, Increment: dec("1")}

	rounded, _ := pricing.ApplyRounding(policy, dec("100.49"))
	assert.True(t, rounded.Equal(dec("100")), "100.49 debe bajar a 100: %s", rounded)

	rounded, _ = pricing.ApplyRounding(policy, dec("100.5"))
	assert.True(t, rounded.Equal(dec("101")), "100.5 (mitad) debe subir a 101: %s", rounded)
}

// Caso 4: idempotencia — re-aplicar la política a un valor ya redondeado es un no-op.
func TestApplyRounding_Idempotente(t *testing.T) {
	policies := []entity.RoundingPolicy{
		{Method: entity.RoundingUp, Increment: dec("0.25")},
		{Method: entity.RoundingNearest, Increment: dec("5")},
		{Method: entity.RoundingNone},
	}
	values := []decimal.Decimal{dec("17.13"), dec("999.999"), dec("0.01"), dec("12345")}

	for _, policy := range policies {
		for _, v := range values {
			first, _ := pricing.ApplyRounding(policy, v)
			second, applied := pricing.ApplyRounding(policy, first)
			assert.True(t, second.Equal(first),
				"re-aplicar %s/%s a %s no debe cambiar el valor", policy.Method, policy.Increment, v)
			assert.True(t, applied.IsZero(),
				"el segundo ajuste debe ser cero para %s", v)
		}
	}
}

// Caso 5: incremento cero o negativo desactiva el redondeo.
func TestApplyRounding_IncrementoInvalido_NoOp(t *testing.T) {
	policy := entity.RoundingPolicy{Method: entity.RoundingUp, Increment: decimal.Zero}
	rounded, applied := pricing.ApplyRounding(policy, dec("10.37"))
	assert.True(t, rounded.Equal(dec("10.37")))
	assert.True(t, applied.IsZero())
}
