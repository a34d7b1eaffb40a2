package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.PricingRunRepository = (*PricingRunRepo)(nil)

// PricingRunRepo implementación de PricingRunRepository (usable con pool o tx).
// Los campos de costo/precio solo se escriben en los INSERT; las transiciones
// pasan por UpdateStateCAS.
type PricingRunRepo struct {
	q Querier
}

// NewPricingRunRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPricingRunRepository(q Querier) *PricingRunRepo {
	return &PricingRunRepo{q: q}
}

// Create persiste la cabecera del run.
func (r *PricingRunRepo) Create(ctx context.Context, run *entity.PricingRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	query := `
		INSERT INTO pricing_runs (
			id, tenant_id, rfq_id, status, current_level, version, currency,
			total_base_cost, total_logistics_cost, total_duty_cost, total_cost, total_price,
			margin_pct, rounding_method, rejection_reason, assigned_approver_id,
			sla_deadline, escalated, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err := r.q.Exec(ctx, query,
		run.ID, run.TenantID, run.RFQID, run.Status, run.CurrentLevel, run.Version, run.Currency,
		run.TotalBaseCost, run.TotalLogisticsCost, run.TotalDutyCost, run.TotalCost, run.TotalPrice,
		run.MarginPct, run.RoundingMethod, nullIfEmpty(run.RejectionReason), nullIfEmpty(run.AssignedApproverID),
		run.SLADeadline, run.Escalated, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pricing run: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de desglose.
func (r *PricingRunRepo) CreateItem(ctx context.Context, item *entity.PricingRunItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO pricing_run_items (
			id, run_id, tenant_id, rfq_item_id, rule_id, quantity, unit_cost,
			base_cost, freight_cost, insurance_cost, handling_cost, local_charges_cost,
			logistics_cost, duty_cost, landed_cost, unit_price, sell_price, rounding_applied
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.RunID, item.TenantID, item.RFQItemID, item.RuleID, item.Quantity, item.UnitCost,
		item.BaseCost, item.FreightCost, item.InsuranceCost, item.HandlingCost, item.LocalChargesCost,
		item.LogisticsCost, item.DutyCost, item.LandedCost, item.UnitPrice, item.SellPrice, item.RoundingApplied,
	)
	if err != nil {
		return fmt.Errorf("insert pricing run item: %w", err)
	}
	return nil
}

const runColumns = `
	id, tenant_id, rfq_id, status, current_level, version, currency,
	total_base_cost, total_logistics_cost, total_duty_cost, total_cost, total_price,
	margin_pct, rounding_method,
	risk_level, risk_score, risk_recommendation, risk_rationale, risk_confidence,
	rejection_reason, assigned_approver_id, sla_deadline, escalated, created_at, updated_at`

// scanRun escanea una fila completa de pricing_runs.
func scanRun(row pgx.Row) (*entity.PricingRun, error) {
	var run entity.PricingRun
	var riskLevel, riskRecommendation, riskRationale *string
	var riskScore *int
	var riskConfidence *decimal.Decimal
	var rejectionReason, assignee *string
	err := row.Scan(
		&run.ID, &run.TenantID, &run.RFQID, &run.Status, &run.CurrentLevel, &run.Version, &run.Currency,
		&run.TotalBaseCost, &run.TotalLogisticsCost, &run.TotalDutyCost, &run.TotalCost, &run.TotalPrice,
		&run.MarginPct, &run.RoundingMethod,
		&riskLevel, &riskScore, &riskRecommendation, &riskRationale, &riskConfidence,
		&rejectionReason, &assignee, &run.SLADeadline, &run.Escalated, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.RejectionReason = derefStr(rejectionReason)
	run.AssignedApproverID = derefStr(assignee)
	if riskLevel != nil {
		risk := entity.RiskAssessment{
			Level:          *riskLevel,
			Recommendation: derefStr(riskRecommendation),
			Rationale:      derefStr(riskRationale),
		}
		if riskScore != nil {
			risk.Score = *riskScore
		}
		if riskConfidence != nil {
			risk.Confidence = *riskConfidence
		}
		run.Risk = &risk
	}
	return &run, nil
}

// GetByID obtiene un run acotado por tenant.
func (r *PricingRunRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.PricingRun, error) {
	query := `SELECT ` + runColumns + ` FROM pricing_runs WHERE tenant_id = $1 AND id = $2`
	run, err := scanRun(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pricing run: %w", err)
	}
	return run, nil
}

// ListByRFQ obtiene los runs de un RFQ, del más reciente al más antiguo.
func (r *PricingRunRepo) ListByRFQ(ctx context.Context, tenantID, rfqID string) ([]*entity.PricingRun, error) {
	query := `SELECT ` + runColumns + ` FROM pricing_runs
		WHERE tenant_id = $1 AND rfq_id = $2 ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, tenantID, rfqID)
	if err != nil {
		return nil, fmt.Errorf("list pricing runs: %w", err)
	}
	defer rows.Close()
	var list []*entity.PricingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing run: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

// ListItems obtiene el desglose de un run.
func (r *PricingRunRepo) ListItems(ctx context.Context, tenantID, runID string) ([]*entity.PricingRunItem, error) {
	query := `
		SELECT id, run_id, tenant_id, rfq_item_id, rule_id, quantity, unit_cost,
		       base_cost, freight_cost, insurance_cost, handling_cost, local_charges_cost,
		       logistics_cost, duty_cost, landed_cost, unit_price, sell_price, rounding_applied
		FROM pricing_run_items
		WHERE tenant_id = $1 AND run_id = $2 ORDER BY id`
	rows, err := r.q.Query(ctx, query, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("list pricing run items: %w", err)
	}
	defer rows.Close()
	var list []*entity.PricingRunItem
	for rows.Next() {
		var it entity.PricingRunItem
		if err := rows.Scan(
			&it.ID, &it.RunID, &it.TenantID, &it.RFQItemID, &it.RuleID, &it.Quantity, &it.UnitCost,
			&it.BaseCost, &it.FreightCost, &it.InsuranceCost, &it.HandlingCost, &it.LocalChargesCost,
			&it.LogisticsCost, &it.DutyCost, &it.LandedCost, &it.UnitPrice, &it.SellPrice, &it.RoundingApplied,
		); err != nil {
			return nil, fmt.Errorf("scan pricing run item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateStateCAS escribe los campos de aprobación del run solo si
// (status, version) coinciden con lo esperado: compare-and-set que serializa
// las transiciones sin bloqueos de fila. Devuelve true si actualizó.
func (r *PricingRunRepo) UpdateStateCAS(ctx context.Context, run *entity.PricingRun, expectStatus string, expectVersion int) (bool, error) {
	query := `
		UPDATE pricing_runs
		SET status               = $5,
		    current_level        = $6,
		    version              = $7,
		    rejection_reason     = $8,
		    assigned_approver_id = $9,
		    sla_deadline         = $10,
		    escalated            = $11,
		    updated_at           = $12
		WHERE tenant_id = $1 AND id = $2 AND status = $3 AND version = $4`
	tag, err := r.q.Exec(ctx, query,
		run.TenantID, run.ID, expectStatus, expectVersion,
		run.Status, run.CurrentLevel, run.Version,
		nullIfEmpty(run.RejectionReason), nullIfEmpty(run.AssignedApproverID),
		run.SLADeadline, run.Escalated, run.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("cas pricing run: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateRisk fija los campos de riesgo del run (una sola vez, tras el cálculo).
func (r *PricingRunRepo) UpdateRisk(ctx context.Context, tenantID, runID string, risk entity.RiskAssessment) error {
	query := `
		UPDATE pricing_runs
		SET risk_level = $3, risk_score = $4, risk_recommendation = $5,
		    risk_rationale = $6, risk_confidence = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2 AND risk_level IS NULL`
	_, err := r.q.Exec(ctx, query,
		tenantID, runID,
		risk.Level, risk.Score, risk.Recommendation, risk.Rationale, risk.Confidence,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update pricing run risk: %w", err)
	}
	return nil
}

// ListDueEscalations runs pendientes con SLA vencido y sin escalar en su nivel
// actual. Consulta cross-tenant (la ejecuta el sweeper).
func (r *PricingRunRepo) ListDueEscalations(ctx context.Context, now time.Time, limit int) ([]*entity.PricingRun, error) {
	query := `SELECT ` + runColumns + ` FROM pricing_runs
		WHERE status LIKE 'pending_level_%'
		  AND escalated = false
		  AND sla_deadline IS NOT NULL AND sla_deadline < $1
		ORDER BY sla_deadline
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due escalations: %w", err)
	}
	defer rows.Close()
	var list []*entity.PricingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due escalation: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

// ListAutoApprovable drafts con riesgo LOW/AUTO_APPROVE persistido que siguen
// en draft (la auto-aprobación inline perdió su carrera o el proceso murió
// antes de confirmarla). Consulta cross-tenant (la ejecuta el sweeper).
func (r *PricingRunRepo) ListAutoApprovable(ctx context.Context, limit int) ([]*entity.PricingRun, error) {
	query := `SELECT ` + runColumns + ` FROM pricing_runs
		WHERE status = $1
		  AND risk_level = $2
		  AND risk_recommendation = $3
		ORDER BY created_at
		LIMIT $4`
	rows, err := r.q.Query(ctx, query,
		entity.RunStatusDraft, entity.RiskLevelLow, entity.RiskRecommendAutoApprove, limit)
	if err != nil {
		return nil, fmt.Errorf("list auto approvable runs: %w", err)
	}
	defer rows.Close()
	var list []*entity.PricingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auto approvable run: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}
