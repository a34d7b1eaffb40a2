package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

func newRunMock(t *testing.T) (pgxmock.PgxPoolIface, *PricingRunRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPricingRunRepository(mock)
}

func runColumnNames() []string {
	return []string{
		"id", "tenant_id", "rfq_id", "status", "current_level", "version", "currency",
		"total_base_cost", "total_logistics_cost", "total_duty_cost", "total_cost", "total_price",
		"margin_pct", "rounding_method",
		"risk_level", "risk_score", "risk_recommendation", "risk_rationale", "risk_confidence",
		"rejection_reason", "assigned_approver_id", "sla_deadline", "escalated", "created_at", "updated_at",
	}
}

func casRun() *entity.PricingRun {
	now := time.Now()
	return &entity.PricingRun{
		ID: "run-1", TenantID: "t-1", RFQID: "rfq-1",
		Status: entity.PendingStatus(2), CurrentLevel: 2, Version: 3,
		UpdatedAt: now,
	}
}

// Caso 1: el CAS toca exactamente una fila cuando (status, version) coinciden.
func TestPricingRunRepo_UpdateStateCAS_Gana(t *testing.T) {
	mock, repo := newRunMock(t)
	run := casRun()

	mock.ExpectExec("UPDATE pricing_runs").
		WithArgs(
			"t-1", "run-1", entity.PendingStatus(1), 2,
			entity.PendingStatus(2), 2, 3,
			(*string)(nil), (*string)(nil), (*time.Time)(nil), false, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.UpdateStateCAS(context.Background(), run, entity.PendingStatus(1), 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Caso 2: cero filas tocadas = el estado cambió por debajo; no es un error,
// el caller lo traduce a StaleStateError.
func TestPricingRunRepo_UpdateStateCAS_Pierde(t *testing.T) {
	mock, repo := newRunMock(t)

	mock.ExpectExec("UPDATE pricing_runs").
		WithArgs(
			"t-1", "run-1", entity.PendingStatus(1), 2,
			entity.PendingStatus(2), 2, 3,
			(*string)(nil), (*string)(nil), (*time.Time)(nil), false, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.UpdateStateCAS(context.Background(), casRun(), entity.PendingStatus(1), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Caso 3: UpdateRisk escribe una sola vez (WHERE risk_level IS NULL).
func TestPricingRunRepo_UpdateRisk(t *testing.T) {
	mock, repo := newRunMock(t)

	mock.ExpectExec(`UPDATE pricing_runs`).
		WithArgs(
			"t-1", "run-1",
			entity.RiskLevelMedium, 55, entity.RiskRecommendManualReview,
			"concentración de proveedor", pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateRisk(context.Background(), "t-1", "run-1", entity.RiskAssessment{
		Level:          entity.RiskLevelMedium,
		Score:          55,
		Recommendation: entity.RiskRecommendManualReview,
		Rationale:      "concentración de proveedor",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Caso 4: el barrido consulta solo pendientes vencidos no escalados.
func TestPricingRunRepo_ListDueEscalations(t *testing.T) {
	mock, repo := newRunMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM pricing_runs`).
		WithArgs(now, 50).
		WillReturnRows(pgxmock.NewRows(runColumnNames()))

	due, err := repo.ListDueEscalations(context.Background(), now, 50)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Caso 5: el barrido de auto-aprobación consulta solo drafts con riesgo
// LOW/AUTO_APPROVE persistido.
func TestPricingRunRepo_ListAutoApprovable(t *testing.T) {
	mock, repo := newRunMock(t)

	mock.ExpectQuery(`FROM pricing_runs`).
		WithArgs(entity.RunStatusDraft, entity.RiskLevelLow, entity.RiskRecommendAutoApprove, 50).
		WillReturnRows(pgxmock.NewRows(runColumnNames()))

	eligible, err := repo.ListAutoApprovable(context.Background(), 50)
	require.NoError(t, err)
	assert.Empty(t, eligible)
	assert.NoError(t, mock.ExpectationsWereMet())
}
