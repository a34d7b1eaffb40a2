package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.RFQRepository = (*RFQRepo)(nil)

// RFQRepo implementación de RFQRepository (usable con pool o tx).
type RFQRepo struct {
	q Querier
}

// NewRFQRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRFQRepository(q Querier) *RFQRepo {
	return &RFQRepo{q: q}
}

// GetByID obtiene un RFQ acotado por tenant; un id de otro tenant devuelve nil.
func (r *RFQRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.RFQ, error) {
	query := `
		SELECT id, tenant_id, client_id, COALESCE(reference, ''), status, created_at, updated_at
		FROM rfqs WHERE tenant_id = $1 AND id = $2`
	var rfq entity.RFQ
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&rfq.ID, &rfq.TenantID, &rfq.ClientID, &rfq.Reference, &rfq.Status,
		&rfq.CreatedAt, &rfq.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rfq: %w", err)
	}
	return &rfq, nil
}

// ListItems obtiene las líneas resueltas de un RFQ en orden de línea.
func (r *RFQRepo) ListItems(ctx context.Context, tenantID, rfqID string) ([]*entity.RFQItem, error) {
	query := `
		SELECT id, rfq_id, tenant_id, line_no, COALESCE(description, ''), quantity, unit,
		       material_id, COALESCE(material_category, ''), COALESCE(origin_country, ''),
		       COALESCE(origin_type, ''), supplier_option_id, supplier_unit_cost, needs_review
		FROM rfq_items
		WHERE tenant_id = $1 AND rfq_id = $2
		ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, tenantID, rfqID)
	if err != nil {
		return nil, fmt.Errorf("list rfq items: %w", err)
	}
	defer rows.Close()
	var list []*entity.RFQItem
	for rows.Next() {
		var it entity.RFQItem
		if err := rows.Scan(
			&it.ID, &it.RFQID, &it.TenantID, &it.LineNo, &it.Description, &it.Quantity, &it.Unit,
			&it.MaterialID, &it.MaterialCategory, &it.OriginCountry,
			&it.OriginType, &it.SupplierOptionID, &it.SupplierUnitCost, &it.NeedsReview,
		); err != nil {
			return nil, fmt.Errorf("scan rfq item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
