package pricing

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// RuleResolver resuelve la regla de precios aplicable para (tenant, categoría,
// tipo de origen, cliente). Orden de búsqueda: regla específica del cliente →
// regla por defecto del tenant (client_id NULL) → RuleNotFoundError.
// Solo lectura, sin efectos. Cada lookup pasa por el guardián de tenant.
type RuleResolver struct {
	ruleRepo repository.PricingRuleRepository
	guard    *tenantctx.Guard
}

// NewRuleResolver construye el resolver.
func NewRuleResolver(ruleRepo repository.PricingRuleRepository, guard *tenantctx.Guard) *RuleResolver {
	return &RuleResolver{ruleRepo: ruleRepo, guard: guard}
}

// Resolve busca la regla aplicable. clientID vacío salta directo a la regla
// por defecto del tenant.
func (r *RuleResolver) Resolve(ctx context.Context, tc tenantctx.Context, category, originType, clientID string) (*entity.PricingRule, error) {
	tenantID := tc.Scope()
	if err := r.guard.CheckRead(tc, tenantID, "pricing_rule"); err != nil {
		return nil, err
	}

	if clientID != "" {
		rule, err := r.ruleRepo.Find(ctx, tenantID, category, originType, &clientID)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			return r.checked(tc, rule)
		}
	}

	rule, err := r.ruleRepo.Find(ctx, tenantID, category, originType, nil)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, &domain.RuleNotFoundError{
			TenantID:   tenantID,
			Category:   category,
			OriginType: originType,
			ClientID:   clientID,
		}
	}
	return r.checked(tc, rule)
}

// checked verifica que la fila devuelta pertenezca al tenant del contexto
// antes de entregarla (el WHERE ya acota por tenant; esto corta cualquier bug
// de consulta antes de que cruce la frontera).
func (r *RuleResolver) checked(tc tenantctx.Context, rule *entity.PricingRule) (*entity.PricingRule, error) {
	if err := r.guard.CheckRead(tc, rule.TenantID, "pricing_rule"); err != nil {
		return nil, err
	}
	if !rule.Validate() {
		return nil, domain.ErrInvalidInput
	}
	return rule, nil
}
