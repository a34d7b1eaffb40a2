package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación de TenantRepository (usable con pool o tx).
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

// GetByID obtiene un tenant con su configuración de aprobación, redondeo y
// tabla logística (JSONB validado al leer; NULL = no configurado).
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	query := `
		SELECT id, code, name, active, demo, home_country, allowed_import_countries,
		       approval_levels, approval_sla_hours, COALESCE(backup_approver_id, ''),
		       rounding_method, rounding_increment, logistics_config,
		       created_at, updated_at
		FROM tenants WHERE id = $1`
	var t entity.Tenant
	var logisticsRaw []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Code, &t.Name, &t.Active, &t.Demo, &t.HomeCountry, &t.AllowedImportCountries,
		&t.ApprovalLevels, &t.ApprovalSLAHours, &t.BackupApproverID,
		&t.Rounding.Method, &t.Rounding.Increment, &logisticsRaw,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	cfg, err := entity.DecodeLogisticsConfig(logisticsRaw)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", id, err)
	}
	t.Logistics = cfg
	return &t, nil
}
