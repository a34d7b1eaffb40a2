package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/application/ports"
	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	domainpricing "github.com/jhoicas/Cotizador-api/internal/domain/pricing"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// ComputeRunUseCase ejecuta una pasada de cálculo de precios sobre un RFQ:
// pre-validación, resolución de reglas, aritmética por línea, agregación y
// persistencia atómica del run con sus líneas y el evento de creación.
type ComputeRunUseCase struct {
	txRunner     TxRunner
	tenantRepo   repository.TenantRepository
	rfqRepo      repository.RFQRepository
	runRepo      repository.PricingRunRepository
	resolver     *RuleResolver
	regulatory   ports.RegulatoryLookup
	riskAssessor ports.RiskAssessor
	autoApprover AutoApprover
	guard        *tenantctx.Guard
	log          *logger.Logger
	riskTimeout  time.Duration
}

// NewComputeRunUseCase construye el caso de uso.
func NewComputeRunUseCase(
	txRunner TxRunner,
	tenantRepo repository.TenantRepository,
	rfqRepo repository.RFQRepository,
	runRepo repository.PricingRunRepository,
	resolver *RuleResolver,
	regulatory ports.RegulatoryLookup,
	riskAssessor ports.RiskAssessor,
	autoApprover AutoApprover,
	guard *tenantctx.Guard,
	log *logger.Logger,
	riskTimeout time.Duration,
) *ComputeRunUseCase {
	if riskTimeout <= 0 {
		riskTimeout = 10 * time.Second
	}
	return &ComputeRunUseCase{
		txRunner:     txRunner,
		tenantRepo:   tenantRepo,
		rfqRepo:      rfqRepo,
		runRepo:      runRepo,
		resolver:     resolver,
		regulatory:   regulatory,
		riskAssessor: riskAssessor,
		autoApprover: autoApprover,
		guard:        guard,
		log:          log,
		riskTimeout:  riskTimeout,
	}
}

// ComputeRun calcula y persiste un PricingRun para el RFQ. Si alguna línea
// bloquea el cálculo devuelve PreflightError con la lista completa y no
// persiste nada. Tras persistir, evalúa el riesgo (fallo o timeout =
// MANUAL_REVIEW) y dispara la auto-aprobación cuando procede.
func (uc *ComputeRunUseCase) ComputeRun(ctx context.Context, tc tenantctx.Context, rfqID, correlationID string) (*entity.PricingRun, []*entity.PricingRunItem, error) {
	tenantID := tc.Scope()
	if err := uc.guard.CheckWrite(tc, tenantID, "pricing_run"); err != nil {
		return nil, nil, err
	}

	tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant == nil || !tenant.Active {
		return nil, nil, domain.ErrNotFound
	}

	rfq, err := uc.rfqRepo.GetByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, nil, err
	}
	if rfq == nil {
		return nil, nil, domain.ErrNotFound
	}
	if err := uc.guard.CheckRead(tc, rfq.TenantID, "rfq"); err != nil {
		return nil, nil, err
	}

	items, err := uc.rfqRepo.ListItems(ctx, tenantID, rfqID)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, domain.ErrInvalidInput
	}

	// Pre-validación: toda línea bloqueante aborta antes de cualquier persistencia.
	if blocking := preflight(items); len(blocking) > 0 {
		return nil, nil, &domain.PreflightError{RFQID: rfqID, Items: blocking}
	}

	run, runItems, err := uc.computeAll(ctx, tc, tenant, rfq, items)
	if err != nil {
		return nil, nil, err
	}
	if err := validateRollup(run, runItems); err != nil {
		return nil, nil, err
	}

	createdEv := newRunCreatedEvent(run, correlationID)
	err = uc.txRunner.RunPricing(ctx, func(
		runRepo repository.PricingRunRepository,
		eventRepo repository.ApprovalEventRepository,
	) error {
		if err := runRepo.Create(ctx, run); err != nil {
			return err
		}
		for _, it := range runItems {
			if err := runRepo.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return eventRepo.Append(ctx, createdEv)
	})
	if err != nil {
		return nil, nil, err
	}

	risk := uc.assessRisk(ctx, run, runItems)
	if err := uc.runRepo.UpdateRisk(ctx, tenantID, run.ID, risk); err != nil {
		// El run ya existe y es válido; el riesgo se puede reevaluar después.
		uc.log.Error().Err(err).Str("run_id", run.ID).Msg("persistir evaluación de riesgo")
	}
	run.Risk = &risk

	if risk.AllowsAutoApproval() {
		if err := uc.autoApprover.AutoApprove(ctx, tc, run, correlationID); err != nil {
			uc.log.Warn().Err(err).Str("run_id", run.ID).Msg("auto-aprobación no aplicada")
		}
	}

	return run, runItems, nil
}

// preflight devuelve las líneas que bloquean el cálculo, en orden de línea.
func preflight(items []*entity.RFQItem) []domain.BlockingItem {
	var blocking []domain.BlockingItem
	add := func(it *entity.RFQItem, reason string) {
		blocking = append(blocking, domain.BlockingItem{ItemID: it.ID, LineNo: it.LineNo, Reason: reason})
	}
	for _, it := range items {
		switch {
		case it.NeedsReview:
			add(it, domain.BlockNeedsReview)
		case it.MaterialID == nil:
			add(it, domain.BlockMissingMaterial)
		case it.SupplierOptionID == nil:
			add(it, domain.BlockMissingSupplier)
		case !it.Quantity.IsPositive():
			add(it, domain.BlockZeroQuantity)
		}
	}
	return blocking
}

// computeAll resuelve regla, logística y arancel por línea y arma el run con
// sus líneas. Los totales son la suma exacta de los valores por línea, sin
// recomputación independiente.
func (uc *ComputeRunUseCase) computeAll(
	ctx context.Context,
	tc tenantctx.Context,
	tenant *entity.Tenant,
	rfq *entity.RFQ,
	items []*entity.RFQItem,
) (*entity.PricingRun, []*entity.PricingRunItem, error) {
	now := time.Now()
	run := &entity.PricingRun{
		ID:             uuid.New().String(),
		TenantID:       tenant.ID,
		RFQID:          rfq.ID,
		Status:         entity.RunStatusDraft,
		Version:        1,
		RoundingMethod: tenant.Rounding.Method,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	runItems := make([]*entity.PricingRunItem, 0, len(items))
	for _, it := range items {
		rule, err := uc.resolver.Resolve(ctx, tc, it.MaterialCategory, it.OriginType, rfq.ClientID)
		if err != nil {
			return nil, nil, err
		}
		if run.Currency == "" {
			run.Currency = rule.Currency
		}

		var rates *entity.LogisticsRates
		if r, ok := tenant.Logistics.Lookup(it.OriginCountry, it.MaterialCategory); ok {
			rates = &r
		}

		dutyRate := decimal.Zero
		if it.OriginType == entity.OriginImport {
			duty, found, err := uc.regulatory.DutyFor(ctx, it.MaterialCategory, it.OriginCountry, it.OriginType)
			if err != nil {
				return nil, nil, fmt.Errorf("consulta arancelaria línea %d: %w", it.LineNo, err)
			}
			if found {
				dutyRate = duty.DutyRate
			}
		}

		res := domainpricing.ComputeLine(domainpricing.LineInput{
			Quantity:  it.Quantity,
			UnitCost:  it.SupplierUnitCost,
			Rule:      *rule,
			Logistics: rates,
			DutyRate:  dutyRate,
		}, tenant.Rounding)

		runItems = append(runItems, &entity.PricingRunItem{
			ID:               uuid.New().String(),
			RunID:            run.ID,
			TenantID:         tenant.ID,
			RFQItemID:        it.ID,
			RuleID:           rule.ID,
			Quantity:         it.Quantity,
			UnitCost:         it.SupplierUnitCost,
			BaseCost:         res.BaseCost,
			FreightCost:      res.FreightCost,
			InsuranceCost:    res.InsuranceCost,
			HandlingCost:     res.HandlingCost,
			LocalChargesCost: res.LocalChargesCost,
			LogisticsCost:    res.LogisticsCost,
			DutyCost:         res.DutyCost,
			LandedCost:       res.LandedCost,
			UnitPrice:        res.UnitPrice,
			SellPrice:        res.SellPrice,
			RoundingApplied:  res.RoundingApplied,
		})

		run.TotalBaseCost = run.TotalBaseCost.Add(res.BaseCost)
		run.TotalLogisticsCost = run.TotalLogisticsCost.Add(res.LogisticsCost)
		run.TotalDutyCost = run.TotalDutyCost.Add(res.DutyCost)
		run.TotalCost = run.TotalCost.Add(res.LandedCost)
		run.TotalPrice = run.TotalPrice.Add(res.SellPrice)
	}

	run.MarginPct = domainpricing.MarginPct(run.TotalCost, run.TotalPrice)
	return run, runItems, nil
}

// validateRollup verifica el invariante de agregación: los totales del run
// deben ser exactamente la suma de sus líneas.
func validateRollup(run *entity.PricingRun, items []*entity.PricingRunItem) error {
	sumCost, sumPrice := decimal.Zero, decimal.Zero
	for _, it := range items {
		sumCost = sumCost.Add(it.LandedCost)
		sumPrice = sumPrice.Add(it.SellPrice)
	}
	if !run.TotalCost.Equal(sumCost) || !run.TotalPrice.Equal(sumPrice) {
		return fmt.Errorf("run %s: totales no cuadran con las líneas (costo %s vs %s, precio %s vs %s)",
			run.ID, run.TotalCost, sumCost, run.TotalPrice, sumPrice)
	}
	return nil
}

// assessRisk consulta al evaluador externo con timeout duro. Cualquier fallo,
// timeout o respuesta nula degrada a MANUAL_REVIEW: la máquina de aprobación
// nunca depende de que la IA responda.
func (uc *ComputeRunUseCase) assessRisk(ctx context.Context, run *entity.PricingRun, items []*entity.PricingRunItem) entity.RiskAssessment {
	assessCtx, cancel := context.WithTimeout(ctx, uc.riskTimeout)
	defer cancel()

	risk, err := uc.riskAssessor.Assess(assessCtx, run, items)
	if err != nil || risk == nil {
		uc.log.Warn().Err(err).Str("run_id", run.ID).Msg("evaluación de riesgo no disponible, se degrada a revisión manual")
		return entity.RiskAssessment{
			Level:          entity.RiskLevelMedium,
			Recommendation: entity.RiskRecommendManualReview,
			Rationale:      "evaluación de riesgo no disponible",
			Confidence:     decimal.Zero,
		}
	}
	return *risk
}

// newRunCreatedEvent evento automático que abre el historial del run.
func newRunCreatedEvent(run *entity.PricingRun, correlationID string) *entity.ApprovalEvent {
	return &entity.ApprovalEvent{
		ID:            uuid.New().String(),
		TenantID:      run.TenantID,
		RunID:         run.ID,
		EventType:     entity.EventRunCreated,
		PrevStatus:    "",
		NewStatus:     entity.RunStatusDraft,
		Actor:         entity.SystemActor(),
		IsAutomated:   true,
		CorrelationID: correlationID,
		Metadata: map[string]any{
			"rfq_id":      run.RFQID,
			"total_cost":  run.TotalCost.String(),
			"total_price": run.TotalPrice.String(),
		},
		CreatedAt: run.CreatedAt,
	}
}

// GetRun devuelve un run con sus líneas (lectura tenant-scoped).
func (uc *ComputeRunUseCase) GetRun(ctx context.Context, tc tenantctx.Context, runID string) (*entity.PricingRun, []*entity.PricingRunItem, error) {
	tenantID := tc.Scope()
	run, err := uc.runRepo.GetByID(ctx, tenantID, runID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, domain.ErrNotFound
	}
	if err := uc.guard.CheckRead(tc, run.TenantID, "pricing_run"); err != nil {
		return nil, nil, err
	}
	items, err := uc.runRepo.ListItems(ctx, tenantID, runID)
	if err != nil {
		return nil, nil, err
	}
	return run, items, nil
}
