package repository

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// PricingRuleRepository puerto de lectura de reglas de precios (solo lectura).
type PricingRuleRepository interface {
	// Find busca la regla exacta para la clave (tenant, categoría, origen, cliente).
	// clientID nil busca la regla por defecto del tenant (client_id IS NULL).
	// Devuelve nil sin error si no existe.
	Find(ctx context.Context, tenantID, category, originType string, clientID *string) (*entity.PricingRule, error)
}
