// Package pricing implementa la aritmética pura del motor de precios
// (servicio de dominio, sin efectos). Todo valor monetario y toda fracción
// es decimal exacto; nunca punto flotante binario.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// LineInput entrada del cálculo de una línea.
type LineInput struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal // costo unitario del proveedor elegido
	Rule     entity.PricingRule
	// Logistics tarifas de la tabla país/categoría del tenant; nil = no hay
	// entrada y se usa el % plano de la regla (sin desglose de subcomponentes).
	Logistics *entity.LogisticsRates
	// DutyRate fracción de arancel resuelta por el colaborador regulatorio;
	// cero cuando no existe mapeo HS para el material.
	DutyRate decimal.Decimal
}

// LineResult resultado del cálculo de una línea.
type LineResult struct {
	BaseCost         decimal.Decimal
	FreightCost      decimal.Decimal
	InsuranceCost    decimal.Decimal
	HandlingCost     decimal.Decimal
	LocalChargesCost decimal.Decimal
	LogisticsCost    decimal.Decimal
	DutyCost         decimal.Decimal
	LandedCost       decimal.Decimal
	RawSellPrice     decimal.Decimal // antes de redondear
	SellPrice        decimal.Decimal
	UnitPrice        decimal.Decimal
	RoundingApplied  decimal.Decimal
}

// ComputeLine calcula costo landed y precio de venta de una línea:
//
//	base      = costo_unitario × cantidad
//	logística = base × tabla(país, categoría)   (o base × % plano de la regla)
//	arancel   = base × duty_rate
//	landed    = base + logística + arancel
//	venta     = landed × (1 + markup) × (1 + riesgo), redondeado por política
func ComputeLine(in LineInput, rounding entity.RoundingPolicy) LineResult {
	var res LineResult
	res.BaseCost = in.UnitCost.Mul(in.Quantity)

	if in.Logistics != nil {
		res.FreightCost = res.BaseCost.Mul(in.Logistics.FreightPct)
		res.InsuranceCost = res.BaseCost.Mul(in.Logistics.InsurancePct)
		res.HandlingCost = res.BaseCost.Mul(in.Logistics.HandlingPct)
		res.LocalChargesCost = res.BaseCost.Mul(in.Logistics.LocalPct)
		res.LogisticsCost = res.FreightCost.Add(res.InsuranceCost).
			Add(res.HandlingCost).Add(res.LocalChargesCost)
	} else {
		res.LogisticsCost = res.BaseCost.Mul(in.Rule.LogisticsPct)
	}

	res.DutyCost = res.BaseCost.Mul(in.DutyRate)
	res.LandedCost = res.BaseCost.Add(res.LogisticsCost).Add(res.DutyCost)

	one := decimal.NewFromInt(1)
	res.RawSellPrice = res.LandedCost.
		Mul(one.Add(in.Rule.MarkupPct)).
		Mul(one.Add(in.Rule.RiskPct))
	res.SellPrice, res.RoundingApplied = ApplyRounding(rounding, res.RawSellPrice)

	if in.Quantity.IsPositive() {
		res.UnitPrice = res.SellPrice.Div(in.Quantity)
	}
	return res
}

// MarginPct margen sobre costo: (precio - costo) / costo. Cero si el costo es cero.
func MarginPct(totalCost, totalPrice decimal.Decimal) decimal.Decimal {
	if totalCost.IsZero() {
		return decimal.Zero
	}
	return totalPrice.Sub(totalCost).Div(totalCost)
}
