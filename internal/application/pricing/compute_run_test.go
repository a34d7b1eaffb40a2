package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apppricing "github.com/jhoicas/Cotizador-api/internal/application/pricing"
	"github.com/jhoicas/Cotizador-api/internal/application/ports"
	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenantA = "11111111-1111-1111-1111-111111111111"
	rfqID   = "22222222-2222-2222-2222-222222222222"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strptr(s string) *string { return &s }

type fakeTenantRepo struct{ tenant *entity.Tenant }

func (f *fakeTenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, nil
}

type fakeRFQRepo struct {
	rfq   *entity.RFQ
	items []*entity.RFQItem
}

func (f *fakeRFQRepo) GetByID(_ context.Context, tenantID, id string) (*entity.RFQ, error) {
	if f.rfq != nil && f.rfq.TenantID == tenantID && f.rfq.ID == id {
		return f.rfq, nil
	}
	return nil, nil
}

func (f *fakeRFQRepo) ListItems(_ context.Context, _, _ string) ([]*entity.RFQItem, error) {
	return f.items, nil
}

type fakeRuleRepo struct {
	rules []*entity.PricingRule
}

func (f *fakeRuleRepo) Find(_ context.Context, tenantID, category, originType string, clientID *string) (*entity.PricingRule, error) {
	for _, r := range f.rules {
		if r.TenantID != tenantID || r.Category != category || r.OriginType != originType {
			continue
		}
		if (r.ClientID == nil) != (clientID == nil) {
			continue
		}
		if clientID != nil && *r.ClientID != *clientID {
			continue
		}
		return r, nil
	}
	return nil, nil
}

// fakeRunRepo registra todo lo persistido; las escrituras dentro de una tx
// fallida se descartan en el fake de TxRunner.
type fakeRunRepo struct {
	runs  []*entity.PricingRun
	items []*entity.PricingRunItem
	risks map[string]entity.RiskAssessment
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{risks: map[string]entity.RiskAssessment{}}
}

func (f *fakeRunRepo) Create(_ context.Context, run *entity.PricingRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRepo) CreateItem(_ context.Context, item *entity.PricingRunItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, tenantID, id string) (*entity.PricingRun, error) {
	for _, r := range f.runs {
		if r.TenantID == tenantID && r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) ListItems(_ context.Context, _, runID string) ([]*entity.PricingRunItem, error) {
	var out []*entity.PricingRunItem
	for _, it := range f.items {
		if it.RunID == runID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) ListByRFQ(_ context.Context, _, _ string) ([]*entity.PricingRun, error) {
	return f.runs, nil
}

func (f *fakeRunRepo) UpdateStateCAS(_ context.Context, run *entity.PricingRun, expectStatus string, expectVersion int) (bool, error) {
	for i, r := range f.runs {
		if r.ID == run.ID && r.Status == expectStatus && r.Version == expectVersion {
			cp := *run
			f.runs[i] = &cp
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRunRepo) UpdateRisk(_ context.Context, _, runID string, risk entity.RiskAssessment) error {
	f.risks[runID] = risk
	return nil
}

func (f *fakeRunRepo) ListDueEscalations(_ context.Context, _ time.Time, _ int) ([]*entity.PricingRun, error) {
	return nil, nil
}

func (f *fakeRunRepo) ListAutoApprovable(_ context.Context, _ int) ([]*entity.PricingRun, error) {
	return nil, nil
}

type fakeEventRepo struct {
	events []*entity.ApprovalEvent
}

func (f *fakeEventRepo) Append(_ context.Context, ev *entity.ApprovalEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEventRepo) ListByRun(_ context.Context, _, _ string) ([]*entity.ApprovalEvent, error) {
	return f.events, nil
}

func (f *fakeEventRepo) Search(_ context.Context, _ repository.EventFilter) ([]*entity.ApprovalEvent, error) {
	return f.events, nil
}

type fakeTxRunner struct {
	runRepo   *fakeRunRepo
	eventRepo *fakeEventRepo
}

func (f *fakeTxRunner) RunPricing(_ context.Context, fn func(
	runRepo repository.PricingRunRepository,
	eventRepo repository.ApprovalEventRepository,
) error) error {
	return fn(f.runRepo, f.eventRepo)
}

type fakeRegulatory struct {
	duty  ports.HSDuty
	found bool
}

func (f *fakeRegulatory) DutyFor(_ context.Context, _, _, _ string) (ports.HSDuty, bool, error) {
	return f.duty, f.found, nil
}

type fakeRiskAssessor struct {
	risk *entity.RiskAssessment
	err  error
}

func (f *fakeRiskAssessor) Assess(_ context.Context, _ *entity.PricingRun, _ []*entity.PricingRunItem) (*entity.RiskAssessment, error) {
	return f.risk, f.err
}

type fakeAutoApprover struct {
	called bool
}

func (f *fakeAutoApprover) AutoApprove(_ context.Context, _ tenantctx.Context, run *entity.PricingRun, _ string) error {
	f.called = true
	run.Status = entity.RunStatusAutoApproved
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	uc           *apppricing.ComputeRunUseCase
	runRepo      *fakeRunRepo
	eventRepo    *fakeEventRepo
	autoApprover *fakeAutoApprover
	tenant       *entity.Tenant
	rfqRepo      *fakeRFQRepo
	ruleRepo     *fakeRuleRepo
}

func traderCtx() tenantctx.Context {
	return tenantctx.Context{TenantID: tenantA, UserID: "user-1", Name: "Trader Uno", Role: tenantctx.RoleTrader}
}

// Tres líneas domésticas de rebar: 10×500, 4×250, 2×125 → base 6250.
func goodItems() []*entity.RFQItem {
	mk := func(line int, qty, cost string) *entity.RFQItem {
		return &entity.RFQItem{
			ID: "item-" + string(rune('0'+line)), RFQID: rfqID, TenantID: tenantA, LineNo: line,
			Quantity: dec(qty), Unit: "ton",
			MaterialID: strptr("mat-1"), MaterialCategory: "rebar",
			OriginCountry: "CO", OriginType: entity.OriginDomestic,
			SupplierOptionID: strptr("sup-1"), SupplierUnitCost: dec(cost),
		}
	}
	return []*entity.RFQItem{mk(1, "10", "500"), mk(2, "4", "250"), mk(3, "2", "125")}
}

func newFixture(items []*entity.RFQItem, risk *fakeRiskAssessor) *fixture {
	log := logger.Nop()
	guard := tenantctx.NewGuard(log)

	tenant := &entity.Tenant{
		ID: tenantA, Code: "ACME", Name: "Acme Metals", Active: true,
		HomeCountry: "CO", ApprovalLevels: 2, ApprovalSLAHours: 24,
		Rounding: entity.RoundingPolicy{Method: entity.RoundingNone},
	}
	rfqRepo := &fakeRFQRepo{
		rfq:   &entity.RFQ{ID: rfqID, TenantID: tenantA, ClientID: "client-1", Status: "open"},
		items: items,
	}
	ruleRepo := &fakeRuleRepo{rules: []*entity.PricingRule{{
		ID: "rule-default", TenantID: tenantA, Category: "rebar", OriginType: entity.OriginDomestic,
		MarkupPct: dec("0.12"), LogisticsPct: dec("0.08"), RiskPct: decimal.Zero, Currency: "USD",
	}}}

	runRepo := newFakeRunRepo()
	eventRepo := &fakeEventRepo{}
	autoApprover := &fakeAutoApprover{}
	if risk == nil {
		risk = &fakeRiskAssessor{risk: &entity.RiskAssessment{
			Level: entity.RiskLevelMedium, Recommendation: entity.RiskRecommendManualReview,
		}}
	}

	uc := apppricing.NewComputeRunUseCase(
		&fakeTxRunner{runRepo: runRepo, eventRepo: eventRepo},
		&fakeTenantRepo{tenant: tenant},
		rfqRepo,
		runRepo,
		apppricing.NewRuleResolver(ruleRepo, guard),
		&fakeRegulatory{},
		risk,
		autoApprover,
		guard,
		log,
		0,
	)
	return &fixture{uc: uc, runRepo: runRepo, eventRepo: eventRepo, autoApprover: autoApprover, tenant: tenant, rfqRepo: rfqRepo, ruleRepo: ruleRepo}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: cálculo feliz — totales exactos, run draft persistido con sus líneas
// y el evento de creación.
func TestComputeRun_TotalesExactos(t *testing.T) {
	fx := newFixture(goodItems(), nil)

	run, items, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "corr-1")
	require.NoError(t, err)
	require.Len(t, items, 3)

	// base 6250, logística 8% = 500, landed 6750, venta = 6750 × 1.12 = 7560
	assert.True(t, run.TotalBaseCost.Equal(dec("6250")), "base: %s", run.TotalBaseCost)
	assert.True(t, run.TotalLogisticsCost.Equal(dec("500")), "logística: %s", run.TotalLogisticsCost)
	assert.True(t, run.TotalDutyCost.IsZero())
	assert.True(t, run.TotalCost.Equal(dec("6750")), "landed: %s", run.TotalCost)
	assert.True(t, run.TotalPrice.Equal(dec("7560")), "venta: %s", run.TotalPrice)
	assert.True(t, run.MarginPct.Equal(dec("0.12")), "margen: %s", run.MarginPct)
	assert.Equal(t, entity.RunStatusDraft, run.Status)
	assert.Equal(t, 1, run.Version)
	assert.Equal(t, "USD", run.Currency)

	// Invariante de agregación: totales = suma exacta de líneas.
	sumCost, sumPrice := decimal.Zero, decimal.Zero
	for _, it := range items {
		sumCost = sumCost.Add(it.LandedCost)
		sumPrice = sumPrice.Add(it.SellPrice)
	}
	assert.True(t, run.TotalCost.Equal(sumCost))
	assert.True(t, run.TotalPrice.Equal(sumPrice))

	// Persistencia: run + 3 líneas + evento run_created automático.
	require.Len(t, fx.runRepo.runs, 1)
	require.Len(t, fx.runRepo.items, 3)
	require.Len(t, fx.eventRepo.events, 1)
	ev := fx.eventRepo.events[0]
	assert.Equal(t, entity.EventRunCreated, ev.EventType)
	assert.True(t, ev.IsAutomated)
	assert.Equal(t, "corr-1", ev.CorrelationID)
}

// Caso 2: pre-validación — líneas bloqueantes abortan sin persistir nada y la
// lista llega completa, no solo la primera.
func TestComputeRun_Preflight_SinPersistencia(t *testing.T) {
	items := goodItems()
	items[0].NeedsReview = true
	items[2].SupplierOptionID = nil
	fx := newFixture(items, nil)

	_, _, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "corr-2")

	var preflight *domain.PreflightError
	require.ErrorAs(t, err, &preflight)
	require.Len(t, preflight.Items, 2, "deben reportarse todas las líneas bloqueantes")
	assert.Equal(t, domain.BlockNeedsReview, preflight.Items[0].Reason)
	assert.Equal(t, 1, preflight.Items[0].LineNo)
	assert.Equal(t, domain.BlockMissingSupplier, preflight.Items[1].Reason)
	assert.Equal(t, 3, preflight.Items[1].LineNo)

	assert.Empty(t, fx.runRepo.runs, "un preflight fallido no debe persistir run")
	assert.Empty(t, fx.runRepo.items)
	assert.Empty(t, fx.eventRepo.events)
}

// Caso 3: cantidad cero también bloquea.
func TestComputeRun_Preflight_CantidadCero(t *testing.T) {
	items := goodItems()
	items[1].Quantity = decimal.Zero
	fx := newFixture(items, nil)

	_, _, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "")
	var preflight *domain.PreflightError
	require.ErrorAs(t, err, &preflight)
	require.Len(t, preflight.Items, 1)
	assert.Equal(t, domain.BlockZeroQuantity, preflight.Items[0].Reason)
}

// Caso 4: sin regla aplicable → RuleNotFoundError tipado, nada persistido.
func TestComputeRun_SinRegla(t *testing.T) {
	items := goodItems()
	for _, it := range items {
		it.MaterialCategory = "coil" // no hay regla para coil
	}
	fx := newFixture(items, nil)

	_, _, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "")
	var notFound *domain.RuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "coil", notFound.Category)
	assert.Empty(t, fx.runRepo.runs)
}

// Caso 5: el evaluador de riesgo falla → el run queda con MEDIUM/MANUAL_REVIEW
// y no se auto-aprueba.
func TestComputeRun_RiesgoNoDisponible_DegradaARevisionManual(t *testing.T) {
	fx := newFixture(goodItems(), &fakeRiskAssessor{err: errors.New("timeout simulado")})

	run, _, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "")
	require.NoError(t, err, "el fallo de IA nunca debe abortar el cálculo")

	require.NotNil(t, run.Risk)
	assert.Equal(t, entity.RiskLevelMedium, run.Risk.Level)
	assert.Equal(t, entity.RiskRecommendManualReview, run.Risk.Recommendation)
	assert.False(t, fx.autoApprover.called, "sin LOW+AUTO_APPROVE no hay auto-aprobación")

	persisted, ok := fx.runRepo.risks[run.ID]
	require.True(t, ok, "el riesgo degradado también se persiste")
	assert.Equal(t, entity.RiskLevelMedium, persisted.Level)
}

// Caso 6: riesgo LOW + AUTO_APPROVE dispara la auto-aprobación.
func TestComputeRun_RiesgoBajo_DisparaAutoAprobacion(t *testing.T) {
	fx := newFixture(goodItems(), &fakeRiskAssessor{risk: &entity.RiskAssessment{
		Level: entity.RiskLevelLow, Score: 10,
		Recommendation: entity.RiskRecommendAutoApprove,
	}})

	run, _, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "corr-6")
	require.NoError(t, err)
	assert.True(t, fx.autoApprover.called)
	assert.Equal(t, entity.RunStatusAutoApproved, run.Status)
}

// Caso 7: aislamiento de tenant — un contexto de otro tenant no ve el RFQ.
func TestComputeRun_OtroTenant_NotFound(t *testing.T) {
	fx := newFixture(goodItems(), nil)
	otherCtx := tenantctx.Context{
		TenantID: "99999999-9999-9999-9999-999999999999",
		UserID:   "intruso", Role: tenantctx.RoleTrader,
	}

	_, _, err := fx.uc.ComputeRun(context.Background(), otherCtx, rfqID, "")
	assert.Error(t, err, "el RFQ de otro tenant no debe ser accesible")
	assert.Empty(t, fx.runRepo.runs)
}

// Caso 8: regla específica del cliente gana sobre la regla por defecto.
func TestComputeRun_ReglaDeCliente_TienePrioridad(t *testing.T) {
	fx := newFixture(goodItems(), nil)
	// La regla de cliente usa markup 20% en lugar del 12% por defecto.
	clientID := fx.rfqRepo.rfq.ClientID
	fx.ruleRepo.rules = append(fx.ruleRepo.rules, &entity.PricingRule{
		ID: "rule-client", TenantID: tenantA, Category: "rebar", OriginType: entity.OriginDomestic,
		ClientID:  &clientID,
		MarkupPct: dec("0.20"), LogisticsPct: dec("0.08"), RiskPct: decimal.Zero, Currency: "USD",
	})

	run, items, err := fx.uc.ComputeRun(context.Background(), traderCtx(), rfqID, "")
	require.NoError(t, err)
	// landed 6750 × 1.20 = 8100
	assert.True(t, run.TotalPrice.Equal(dec("8100")), "venta con regla de cliente: %s", run.TotalPrice)
	for _, it := range items {
		assert.Equal(t, "rule-client", it.RuleID)
	}
}
