package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.PricingRuleRepository = (*PricingRuleRepo)(nil)

// PricingRuleRepo implementación de PricingRuleRepository (solo lectura,
// usable con pool o tx). Toda consulta acota por tenant_id en el WHERE.
type PricingRuleRepo struct {
	q Querier
}

// NewPricingRuleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPricingRuleRepository(q Querier) *PricingRuleRepo {
	return &PricingRuleRepo{q: q}
}

// Find busca la regla exacta para la clave (tenant, categoría, origen, cliente).
// clientID nil busca la regla por defecto (client_id IS NULL). Devuelve nil
// sin error si no existe.
func (r *PricingRuleRepo) Find(ctx context.Context, tenantID, category, originType string, clientID *string) (*entity.PricingRule, error) {
	query := `
		SELECT id, tenant_id, category, origin_type, client_id,
		       markup_pct, logistics_pct, risk_pct, currency, created_at, updated_at
		FROM pricing_rules
		WHERE tenant_id = $1 AND category = $2 AND origin_type = $3
		  AND client_id IS NOT DISTINCT FROM $4`
	var rule entity.PricingRule
	err := r.q.QueryRow(ctx, query, tenantID, category, originType, clientID).Scan(
		&rule.ID, &rule.TenantID, &rule.Category, &rule.OriginType, &rule.ClientID,
		&rule.MarkupPct, &rule.LogisticsPct, &rule.RiskPct, &rule.Currency,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pricing rule: %w", err)
	}
	return &rule, nil
}
