// Package candidate implementa el puente de candidatos a cotización: los runs
// aprobados quedan expuestos para su conversión posterior (el destino de la
// conversión es externo al core).
package candidate

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// QuotePDFGenerator puerto de generación del documento de cotización.
type QuotePDFGenerator interface {
	GenerateQuotePDF(ctx context.Context, tenant *entity.Tenant, run *entity.PricingRun, items []*entity.PricingRunItem, cand *entity.QuoteCandidate) ([]byte, error)
}

// UseCase operaciones sobre candidatos a cotización.
type UseCase struct {
	candidateRepo repository.QuoteCandidateRepository
	runRepo       repository.PricingRunRepository
	tenantRepo    repository.TenantRepository
	pdf           QuotePDFGenerator
	guard         *tenantctx.Guard
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	candidateRepo repository.QuoteCandidateRepository,
	runRepo repository.PricingRunRepository,
	tenantRepo repository.TenantRepository,
	pdf QuotePDFGenerator,
	guard *tenantctx.Guard,
) *UseCase {
	return &UseCase{
		candidateRepo: candidateRepo,
		runRepo:       runRepo,
		tenantRepo:    tenantRepo,
		pdf:           pdf,
		guard:         guard,
	}
}

// List candidatos del tenant, opcionalmente por estado.
func (uc *UseCase) List(ctx context.Context, tc tenantctx.Context, status string, limit, offset int) ([]*entity.QuoteCandidate, error) {
	tenantID := tc.Scope()
	if err := uc.guard.CheckRead(tc, tenantID, "quote_candidate"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return uc.candidateRepo.List(ctx, tenantID, status, limit, offset)
}

// Dismiss descarta un candidato pendiente (pending → dismissed).
func (uc *UseCase) Dismiss(ctx context.Context, tc tenantctx.Context, id string) (*entity.QuoteCandidate, error) {
	return uc.transition(ctx, tc, id, entity.CandidateDismissed)
}

// MarkConverted marca un candidato como convertido (pending → converted).
func (uc *UseCase) MarkConverted(ctx context.Context, tc tenantctx.Context, id string) (*entity.QuoteCandidate, error) {
	return uc.transition(ctx, tc, id, entity.CandidateConverted)
}

func (uc *UseCase) transition(ctx context.Context, tc tenantctx.Context, id, newStatus string) (*entity.QuoteCandidate, error) {
	tenantID := tc.Scope()
	if err := uc.guard.CheckWrite(tc, tenantID, "quote_candidate"); err != nil {
		return nil, err
	}
	cand, err := uc.candidateRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		return nil, domain.ErrNotFound
	}
	ok, err := uc.candidateRepo.UpdateStatus(ctx, tenantID, id, entity.CandidatePending, newStatus)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict
	}
	cand.Status = newStatus
	cand.UpdatedAt = time.Now()
	return cand, nil
}

// Document genera el PDF de cotización de un candidato (run aprobado).
func (uc *UseCase) Document(ctx context.Context, tc tenantctx.Context, id string) ([]byte, error) {
	tenantID := tc.Scope()
	if err := uc.guard.CheckRead(tc, tenantID, "quote_candidate"); err != nil {
		return nil, err
	}
	cand, err := uc.candidateRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		return nil, domain.ErrNotFound
	}
	run, err := uc.runRepo.GetByID(ctx, tenantID, cand.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.runRepo.ListItems(ctx, tenantID, cand.RunID)
	if err != nil {
		return nil, err
	}
	tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	return uc.pdf.GenerateQuotePDF(ctx, tenant, run, items, cand)
}
