package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appapproval "github.com/jhoicas/Cotizador-api/internal/application/approval"
	apppricing "github.com/jhoicas/Cotizador-api/internal/application/pricing"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// Ensure TxRunner implementa los puertos transaccionales de pricing y approval.
var _ apppricing.TxRunner = (*TxRunner)(nil)
var _ appapproval.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunPricing inicia una transacción con los repos del motor de precios y hace
// Commit o Rollback: el run, sus líneas y el evento de creación son una sola
// unidad; un run parcial nunca queda visible.
func (r *TxRunner) RunPricing(ctx context.Context, fn func(
	runRepo repository.PricingRunRepository,
	eventRepo repository.ApprovalEventRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewPricingRunRepository(tx), NewApprovalEventRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunApproval inicia una transacción con los repos de la máquina de aprobación
// (run + eventos + candidatos) y hace Commit o Rollback.
func (r *TxRunner) RunApproval(ctx context.Context, fn func(
	runRepo repository.PricingRunRepository,
	eventRepo repository.ApprovalEventRepository,
	candidateRepo repository.QuoteCandidateRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewPricingRunRepository(tx), NewApprovalEventRepository(tx), NewQuoteCandidateRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
