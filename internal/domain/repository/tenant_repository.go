package repository

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// TenantRepository puerto de lectura de tenants. La configuración del tenant
// (niveles, SLA, redondeo, tabla logística) es de solo lectura para el core;
// su mutación pertenece al tooling externo de configuración.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
}
