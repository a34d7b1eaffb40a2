package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// LogisticsRates fracciones de costo logístico sobre el costo base de la línea.
type LogisticsRates struct {
	FreightPct   decimal.Decimal `json:"freight_pct"`
	InsurancePct decimal.Decimal `json:"insurance_pct"`
	HandlingPct  decimal.Decimal `json:"handling_pct"`
	LocalPct     decimal.Decimal `json:"local_pct"`
}

// Total suma de las cuatro fracciones.
func (r LogisticsRates) Total() decimal.Decimal {
	return r.FreightPct.Add(r.InsurancePct).Add(r.HandlingPct).Add(r.LocalPct)
}

// LogisticsRoute una entrada de la tabla logística: país de origen + categoría.
// Category "*" aplica a cualquier categoría de ese país.
type LogisticsRoute struct {
	Country  string         `json:"country"`
	Category string         `json:"category"`
	Rates    LogisticsRates `json:"rates"`
}

// LogisticsConfig tabla logística por país/categoría de un tenant.
// Se guarda como JSONB en la tabla tenants y se valida al leer; si la columna
// es NULL el tenant queda en la variante "no configurado" (puntero nil) y el
// motor usa el porcentaje plano de la regla de precios.
type LogisticsConfig struct {
	Routes []LogisticsRoute `json:"routes"`
}

// DecodeLogisticsConfig parsea y valida el JSONB de configuración logística.
// raw vacío o NULL devuelve (nil, nil): variante "no configurado".
func DecodeLogisticsConfig(raw []byte) (*LogisticsConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var cfg LogisticsConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("logistics_config: JSON inválido: %w", err)
	}
	for i, rt := range cfg.Routes {
		if rt.Country == "" {
			return nil, fmt.Errorf("logistics_config: ruta %d sin país", i)
		}
		for _, pct := range []decimal.Decimal{
			rt.Rates.FreightPct, rt.Rates.InsurancePct, rt.Rates.HandlingPct, rt.Rates.LocalPct,
		} {
			if pct.IsNegative() {
				return nil, fmt.Errorf("logistics_config: ruta %s/%s con fracción negativa", rt.Country, rt.Category)
			}
		}
	}
	return &cfg, nil
}

// Lookup busca las tarifas para (país, categoría); primero la entrada exacta
// y luego el comodín de categoría "*". ok=false si no hay entrada (el caller
// usa entonces el porcentaje plano de la regla).
func (c *LogisticsConfig) Lookup(country, category string) (LogisticsRates, bool) {
	if c == nil {
		return LogisticsRates{}, false
	}
	var wildcard *LogisticsRates
	for i := range c.Routes {
		rt := &c.Routes[i]
		if rt.Country != country {
			continue
		}
		if rt.Category == category {
			return rt.Rates, true
		}
		if rt.Category == "*" && wildcard == nil {
			wildcard = &rt.Rates
		}
	}
	if wildcard != nil {
		return *wildcard, true
	}
	return LogisticsRates{}, false
}
