package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appapproval "github.com/jhoicas/Cotizador-api/internal/application/approval"
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
	runID   = "33333333-3333-3333-3333-333333333333"
)

type fakeTenantRepo struct{ tenant *entity.Tenant }

func (f *fakeTenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, nil
}

type fakeRunRepo struct {
	runs map[string]*entity.PricingRun
	// casDenied fuerza que el próximo CAS pierda la carrera.
	casDenied bool
}

func newFakeRunRepo(runs ...*entity.PricingRun) *fakeRunRepo {
	m := map[string]*entity.PricingRun{}
	for _, r := range runs {
		m[r.ID] = r
	}
	return &fakeRunRepo{runs: m}
}

func (f *fakeRunRepo) Create(_ context.Context, run *entity.PricingRun) error {
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunRepo) CreateItem(_ context.Context, _ *entity.PricingRunItem) error { return nil }

func (f *fakeRunRepo) GetByID(_ context.Context, tenantID, id string) (*entity.PricingRun, error) {
	r, ok := f.runs[id]
	if !ok || r.TenantID != tenantID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRunRepo) ListItems(_ context.Context, _, _ string) ([]*entity.PricingRunItem, error) {
	return nil, nil
}

func (f *fakeRunRepo) ListByRFQ(_ context.Context, _, _ string) ([]*entity.PricingRun, error) {
	return nil, nil
}

func (f *fakeRunRepo) UpdateStateCAS(_ context.Context, run *entity.PricingRun, expectStatus string, expectVersion int) (bool, error) {
	if f.casDenied {
		return false, nil
	}
	cur, ok := f.runs[run.ID]
	if !ok || cur.Status != expectStatus || cur.Version != expectVersion {
		return false, nil
	}
	cp := *run
	f.runs[run.ID] = &cp
	return true, nil
}

func (f *fakeRunRepo) UpdateRisk(_ context.Context, _, _ string, _ entity.RiskAssessment) error {
	return nil
}

func (f *fakeRunRepo) ListDueEscalations(_ context.Context, now time.Time, limit int) ([]*entity.PricingRun, error) {
	var due []*entity.PricingRun
	for _, r := range f.runs {
		if r.SLADeadline != nil && r.SLADeadline.Before(now) && !r.Escalated {
			cp := *r
			due = append(due, &cp)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeRunRepo) ListAutoApprovable(_ context.Context, limit int) ([]*entity.PricingRun, error) {
	var eligible []*entity.PricingRun
	for _, r := range f.runs {
		if r.Status == entity.RunStatusDraft && r.Risk != nil && r.Risk.AllowsAutoApproval() {
			cp := *r
			eligible = append(eligible, &cp)
		}
		if len(eligible) == limit {
			break
		}
	}
	return eligible, nil
}

type fakeEventRepo struct{ events []*entity.ApprovalEvent }

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

type fakeCandidateRepo struct{ candidates []*entity.QuoteCandidate }

func (f *fakeCandidateRepo) Create(_ context.Context, c *entity.QuoteCandidate) error {
	f.candidates = append(f.candidates, c)
	return nil
}

func (f *fakeCandidateRepo) GetByID(_ context.Context, _, _ string) (*entity.QuoteCandidate, error) {
	return nil, nil
}

func (f *fakeCandidateRepo) GetByRunID(_ context.Context, _, _ string) (*entity.QuoteCandidate, error) {
	return nil, nil
}

func (f *fakeCandidateRepo) List(_ context.Context, _, _ string, _, _ int) ([]*entity.QuoteCandidate, error) {
	return f.candidates, nil
}

func (f *fakeCandidateRepo) UpdateStatus(_ context.Context, _, _, _, _ string) (bool, error) {
	return true, nil
}

type fakeTxRunner struct {
	runRepo       *fakeRunRepo
	eventRepo     *fakeEventRepo
	candidateRepo *fakeCandidateRepo
}

func (f *fakeTxRunner) RunApproval(_ context.Context, fn func(
	runRepo repository.PricingRunRepository,
	eventRepo repository.ApprovalEventRepository,
	candidateRepo repository.QuoteCandidateRepository,
) error) error {
	return fn(f.runRepo, f.eventRepo, f.candidateRepo)
}

type fakeNotifier struct {
	requiresAction int
	resolved       int
}

func (f *fakeNotifier) RunRequiresAction(_ context.Context, _ *entity.PricingRun) error {
	f.requiresAction++
	return nil
}

func (f *fakeNotifier) RunResolved(_ context.Context, _ *entity.PricingRun) error {
	f.resolved++
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	uc         *appapproval.UseCase
	runRepo    *fakeRunRepo
	eventRepo  *fakeEventRepo
	candidates *fakeCandidateRepo
	notifier   *fakeNotifier
}

func newFixture(t *testing.T, runs ...*entity.PricingRun) *fixture {
	t.Helper()
	log := logger.Nop()
	runRepo := newFakeRunRepo(runs...)
	eventRepo := &fakeEventRepo{}
	candidates := &fakeCandidateRepo{}
	notifier := &fakeNotifier{}

	uc := appapproval.NewUseCase(
		&fakeTxRunner{runRepo: runRepo, eventRepo: eventRepo, candidateRepo: candidates},
		runRepo,
		&fakeTenantRepo{tenant: &entity.Tenant{
			ID: tenantA, Code: "ACME", Name: "Acme Metals", Active: true,
			ApprovalLevels: 2, ApprovalSLAHours: 24, BackupApproverID: "backup-1",
		}},
		notifier,
		tenantctx.NewGuard(log),
		log,
	)
	return &fixture{uc: uc, runRepo: runRepo, eventRepo: eventRepo, candidates: candidates, notifier: notifier}
}

func draftRun() *entity.PricingRun {
	now := time.Now()
	return &entity.PricingRun{
		ID: runID, TenantID: tenantA, RFQID: "rfq-1",
		Status: entity.RunStatusDraft, Version: 1, Currency: "USD",
		TotalCost: decimal.NewFromInt(6750), TotalPrice: decimal.NewFromInt(7560),
		CreatedAt: now, UpdatedAt: now,
	}
}

func pendingRun(level, version int) *entity.PricingRun {
	r := draftRun()
	r.Status = entity.PendingStatus(level)
	r.CurrentLevel = level
	r.Version = version
	deadline := time.Now().Add(24 * time.Hour)
	r.SLADeadline = &deadline
	return r
}

func traderCtx() tenantctx.Context {
	return tenantctx.Context{TenantID: tenantA, UserID: "trader-1", Name: "Trader Uno", Role: tenantctx.RoleTrader}
}

func approverCtx(level int) tenantctx.Context {
	return tenantctx.Context{
		TenantID: tenantA, UserID: "approver-1", Name: "Aprobador Uno",
		Role: tenantctx.RoleApprover, ApprovalLevel: level,
	}
}

func actor(tc tenantctx.Context) entity.Actor {
	return entity.Actor{ID: tc.UserID, Name: tc.Name, Role: tc.Role, IP: "10.0.0.1", UserAgent: "test"}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: submit fija pending_level_1, incrementa versión y arranca el SLA.
func TestSubmit_ArrancaElFlujo(t *testing.T) {
	fx := newFixture(t, draftRun())
	tc := traderCtx()

	run, err := fx.uc.Submit(context.Background(), tc, actor(tc), runID, 1, "corr-1")
	require.NoError(t, err)

	assert.Equal(t, entity.PendingStatus(1), run.Status)
	assert.Equal(t, 1, run.CurrentLevel)
	assert.Equal(t, 2, run.Version)
	require.NotNil(t, run.SLADeadline, "submit debe fijar el plazo SLA")
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *run.SLADeadline, time.Minute)

	require.Len(t, fx.eventRepo.events, 1)
	ev := fx.eventRepo.events[0]
	assert.Equal(t, entity.EventSubmitted, ev.EventType)
	assert.Equal(t, entity.RunStatusDraft, ev.PrevStatus)
	assert.Equal(t, entity.PendingStatus(1), ev.NewStatus)
	assert.Equal(t, "trader-1", ev.Actor.ID)
	assert.False(t, ev.IsAutomated)
	assert.Equal(t, "corr-1", ev.CorrelationID)

	assert.Equal(t, 1, fx.notifier.requiresAction)
	assert.Empty(t, fx.candidates.candidates, "submit no crea candidato")
}

// Caso 2: cadena completa de aprobación — nivel 1 avanza, nivel 2 (último)
// termina en approved y crea el candidato exactamente una vez.
func TestApprove_CadenaCompleta(t *testing.T) {
	fx := newFixture(t, pendingRun(1, 2))

	tc1 := approverCtx(1)
	run, err := fx.uc.Approve(context.Background(), tc1, actor(tc1), runID, 1, 2, "ok nivel 1", "corr-2")
	require.NoError(t, err)
	assert.Equal(t, entity.PendingStatus(2), run.Status)
	assert.Equal(t, 2, run.CurrentLevel)
	assert.Equal(t, 3, run.Version)
	require.NotNil(t, run.SLADeadline, "un nivel intermedio renueva el SLA")
	assert.Empty(t, fx.candidates.candidates)

	tc2 := approverCtx(2)
	run, err = fx.uc.Approve(context.Background(), tc2, actor(tc2), runID, 2, 3, "", "corr-3")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusApproved, run.Status)
	assert.Equal(t, 0, run.CurrentLevel)
	assert.Nil(t, run.SLADeadline, "el estado terminal limpia el SLA")
	assert.Empty(t, run.AssignedApproverID)

	require.Len(t, fx.candidates.candidates, 1, "aprobado terminal crea exactamente un candidato")
	cand := fx.candidates.candidates[0]
	assert.Equal(t, runID, cand.RunID)
	assert.Equal(t, entity.CandidatePending, cand.Status)

	require.Len(t, fx.eventRepo.events, 2)
	assert.Equal(t, entity.EventApproved, fx.eventRepo.events[1].EventType)
	assert.Equal(t, 1, fx.notifier.resolved)
}

// Caso 2b: aprobar un nivel escalado no arrastra el aprobador de respaldo al
// nivel siguiente — la asignación pertenece al nivel que termina.
func TestApprove_NoArrastraAsignacionEscalada(t *testing.T) {
	escalated := pendingRun(1, 3)
	escalated.AssignedApproverID = "backup-1"
	escalated.Escalated = true
	fx := newFixture(t, escalated)

	tc := approverCtx(1)
	run, err := fx.uc.Approve(context.Background(), tc, actor(tc), runID, 1, 3, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.PendingStatus(2), run.Status)
	assert.Empty(t, run.AssignedApproverID, "el nivel nuevo arranca sin asignación")
	assert.False(t, run.Escalated)

	require.Len(t, fx.eventRepo.events, 1)
	ev := fx.eventRepo.events[0]
	assert.Equal(t, "backup-1", ev.PrevAssignee)
	assert.Empty(t, ev.NewAssignee)
}

// Caso 3: rol sin permiso — un trader no aprueba, y un aprobador de nivel 1
// no puede firmar el nivel 2.
func TestApprove_PermisosPorNivel(t *testing.T) {
	fx := newFixture(t, pendingRun(2, 3))

	tc := traderCtx()
	_, err := fx.uc.Approve(context.Background(), tc, actor(tc), runID, 2, 3, "", "")
	var perm *domain.PermissionError
	require.ErrorAs(t, err, &perm)

	tc = approverCtx(1)
	_, err = fx.uc.Approve(context.Background(), tc, actor(tc), runID, 2, 3, "", "")
	require.ErrorAs(t, err, &perm)

	assert.Empty(t, fx.eventRepo.events, "una transición denegada no emite eventos")
}

// Caso 4: versión observada desactualizada → StaleStateError antes de tocar nada.
func TestApprove_VersionDesactualizada(t *testing.T) {
	fx := newFixture(t, pendingRun(1, 5))
	tc := approverCtx(1)

	_, err := fx.uc.Approve(context.Background(), tc, actor(tc), runID, 1, 2, "", "")
	var stale *domain.StaleStateError
	require.ErrorAs(t, err, &stale)
	assert.Empty(t, fx.eventRepo.events)
}

// Caso 5: el CAS pierde la carrera contra otra transición concurrente.
func TestApprove_CASPerdido(t *testing.T) {
	fx := newFixture(t, pendingRun(1, 2))
	fx.runRepo.casDenied = true
	tc := approverCtx(1)

	_, err := fx.uc.Approve(context.Background(), tc, actor(tc), runID, 1, 2, "", "")
	var stale *domain.StaleStateError
	require.ErrorAs(t, err, &stale)

	cur, _ := fx.runRepo.GetByID(context.Background(), tenantA, runID)
	assert.Equal(t, entity.PendingStatus(1), cur.Status, "un CAS perdido no deja efectos")
	assert.Equal(t, 2, cur.Version)
}

// Caso 6: rechazo con razón obligatoria, desde cualquier nivel pendiente.
func TestReject(t *testing.T) {
	fx := newFixture(t, pendingRun(2, 3))
	tc := approverCtx(2)

	// Sin razón no hay rechazo.
	_, err := fx.uc.Reject(context.Background(), tc, actor(tc), runID, 3, "", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	run, err := fx.uc.Reject(context.Background(), tc, actor(tc), runID, 3, "margen insuficiente", "corr-6")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusRejected, run.Status)
	assert.Equal(t, "margen insuficiente", run.RejectionReason)
	assert.Nil(t, run.SLADeadline)

	require.Len(t, fx.eventRepo.events, 1)
	assert.Equal(t, entity.EventRejected, fx.eventRepo.events[0].EventType)
	assert.Equal(t, "margen insuficiente", fx.eventRepo.events[0].Metadata["reason"])

	assert.Empty(t, fx.candidates.candidates, "un rechazo nunca crea candidato")
	assert.Equal(t, 1, fx.notifier.resolved)
}

// Caso 7: un aprobador de nivel inferior no puede rechazar un run en nivel superior.
func TestReject_NivelInsuficiente(t *testing.T) {
	fx := newFixture(t, pendingRun(2, 3))
	tc := approverCtx(1)

	_, err := fx.uc.Reject(context.Background(), tc, actor(tc), runID, 3, "no procede", "")
	var perm *domain.PermissionError
	require.ErrorAs(t, err, &perm)
}

// Caso 8: auto-aprobación — requiere riesgo persistido LOW + AUTO_APPROVE y
// crea el candidato como cualquier aprobado terminal.
func TestAutoApprove(t *testing.T) {
	run := draftRun()
	fx := newFixture(t, run)
	sys := tenantctx.System(tenantA)

	// Sin evaluación de riesgo no hay transición automática.
	noRisk := draftRun()
	err := fx.uc.AutoApprove(context.Background(), sys, noRisk, "")
	require.ErrorIs(t, err, domain.ErrConflict)

	run.Risk = &entity.RiskAssessment{
		Level: entity.RiskLevelLow, Score: 8,
		Recommendation: entity.RiskRecommendAutoApprove,
		Confidence:     decimal.NewFromFloat(0.9),
	}
	err = fx.uc.AutoApprove(context.Background(), sys, run, "corr-8")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusAutoApproved, run.Status)

	require.Len(t, fx.eventRepo.events, 1)
	ev := fx.eventRepo.events[0]
	assert.Equal(t, entity.EventAutoApproved, ev.EventType)
	assert.True(t, ev.IsAutomated)
	assert.Equal(t, "system", ev.Actor.ID)
	assert.Equal(t, entity.RiskLevelLow, ev.Metadata["risk_level"])

	require.Len(t, fx.candidates.candidates, 1)
	assert.Equal(t, 1, fx.notifier.resolved)
}

// Caso 9: un actor de otro tenant no ve el run (aislamiento por scope).
func TestSubmit_OtroTenant(t *testing.T) {
	fx := newFixture(t, draftRun())
	tc := tenantctx.Context{
		TenantID: "99999999-9999-9999-9999-999999999999",
		UserID:   "intruso", Role: tenantctx.RoleTrader,
	}

	_, err := fx.uc.Submit(context.Background(), tc, actor(tc), runID, 0, "")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, fx.eventRepo.events)
}
