package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.QuoteCandidateRepository = (*QuoteCandidateRepo)(nil)

// QuoteCandidateRepo implementación de QuoteCandidateRepository (usable con
// pool o tx). La FK única sobre run_id garantiza exactamente un candidato por
// run aprobado.
type QuoteCandidateRepo struct {
	q Querier
}

// NewQuoteCandidateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuoteCandidateRepository(q Querier) *QuoteCandidateRepo {
	return &QuoteCandidateRepo{q: q}
}

// Create inserta el candidato; un run que ya tiene candidato viola el unique.
func (r *QuoteCandidateRepo) Create(ctx context.Context, c *entity.QuoteCandidate) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quote_candidates (id, tenant_id, run_id, rfq_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, c.ID, c.TenantID, c.RunID, c.RFQID, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %s ya tiene candidato: %w", c.RunID, domain.ErrConflict)
		}
		return fmt.Errorf("insert quote candidate: %w", err)
	}
	return nil
}

const candidateColumns = `id, tenant_id, run_id, rfq_id, status, created_at, updated_at`

func scanCandidate(row pgx.Row) (*entity.QuoteCandidate, error) {
	var c entity.QuoteCandidate
	err := row.Scan(&c.ID, &c.TenantID, &c.RunID, &c.RFQID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID obtiene un candidato acotado por tenant.
func (r *QuoteCandidateRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.QuoteCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM quote_candidates WHERE tenant_id = $1 AND id = $2`
	c, err := scanCandidate(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote candidate: %w", err)
	}
	return c, nil
}

// GetByRunID obtiene el candidato de un run.
func (r *QuoteCandidateRepo) GetByRunID(ctx context.Context, tenantID, runID string) (*entity.QuoteCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM quote_candidates WHERE tenant_id = $1 AND run_id = $2`
	c, err := scanCandidate(r.q.QueryRow(ctx, query, tenantID, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote candidate by run: %w", err)
	}
	return c, nil
}

// List candidatos del tenant, opcionalmente por estado, del más reciente al más antiguo.
func (r *QuoteCandidateRepo) List(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.QuoteCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM quote_candidates WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $2`
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quote candidates: %w", err)
	}
	defer rows.Close()
	var list []*entity.QuoteCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote candidate: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdateStatus transiciona el estado del candidato con compare-and-set.
func (r *QuoteCandidateRepo) UpdateStatus(ctx context.Context, tenantID, id, expectStatus, newStatus string) (bool, error) {
	query := `
		UPDATE quote_candidates SET status = $4, updated_at = $5
		WHERE tenant_id = $1 AND id = $2 AND status = $3`
	tag, err := r.q.Exec(ctx, query, tenantID, id, expectStatus, newStatus, time.Now())
	if err != nil {
		return false, fmt.Errorf("update quote candidate: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
