// Package tenantctx implementa el guardián de contexto de tenant: un objeto
// explícito que viaja por cada llamada (nunca estado ambiente/global) y que se
// verifica en cada frontera de acceso a datos.
package tenantctx

import (
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// Roles reconocidos por el core.
const (
	RoleTrader   = "trader"
	RoleApprover = "approver"
	// RolePlatform identidad administrativa "all-tenant": lectura cross-tenant
	// permitida; escritura solo con tenant objetivo explícito.
	RolePlatform = "platform"
	// RoleSystem identidad interna del sweeper y las transiciones automáticas.
	RoleSystem = "system"
)

// Context identidad de tenant + actor activa para una operación.
type Context struct {
	TenantID      string // tenant al que pertenece el actor; vacío para platform/system
	UserID        string
	Name          string
	Role          string
	ApprovalLevel int
	// ActingTenant tenant objetivo explícito de una identidad de plataforma
	// (header X-Acting-Tenant). Requerido para cualquier escritura de plataforma.
	ActingTenant string
}

// IsPlatform indica si el contexto es la identidad administrativa all-tenant.
func (c Context) IsPlatform() bool { return c.Role == RolePlatform }

// IsSystem indica si el contexto es la identidad interna de sistema.
func (c Context) IsSystem() bool { return c.Role == RoleSystem }

// Scope devuelve el tenant efectivo del contexto: el propio, o el objetivo
// explícito cuando es una identidad de plataforma o de sistema.
func (c Context) Scope() string {
	if c.IsPlatform() || c.IsSystem() {
		return c.ActingTenant
	}
	return c.TenantID
}

// System devuelve el contexto interno del sweeper, acotado al tenant dado.
func System(tenantID string) Context {
	return Context{Role: RoleSystem, UserID: "system", Name: "system", ActingTenant: tenantID}
}

// Guard verifica cada acceso contra el contexto activo. Todo intento de acceso
// cruzado se registra (nunca se permite en silencio) y se rechaza con
// CrossTenantAccessError.
type Guard struct {
	log *logger.Logger
}

// NewGuard construye el guardián.
func NewGuard(log *logger.Logger) *Guard {
	return &Guard{log: log}
}

// CheckRead verifica una lectura sobre una fila del tenant dado. La identidad
// de plataforma y la de sistema pueden leer cualquier tenant.
func (g *Guard) CheckRead(tc Context, rowTenant, resource string) error {
	if tc.IsPlatform() || tc.IsSystem() {
		return nil
	}
	if tc.TenantID != "" && tc.TenantID == rowTenant {
		return nil
	}
	return g.deny(tc, rowTenant, resource, "read")
}

// CheckWrite verifica una escritura sobre el tenant objetivo. La identidad de
// plataforma nunca escribe cross-tenant sin tenant objetivo explícito
// (ActingTenant); la de sistema opera siempre sobre su ActingTenant.
func (g *Guard) CheckWrite(tc Context, targetTenant, resource string) error {
	if targetTenant == "" {
		return g.deny(tc, targetTenant, resource, "write")
	}
	if tc.IsPlatform() || tc.IsSystem() {
		if tc.ActingTenant == targetTenant {
			return nil
		}
		return g.deny(tc, targetTenant, resource, "write")
	}
	if tc.TenantID == targetTenant {
		return nil
	}
	return g.deny(tc, targetTenant, resource, "write")
}

// deny registra el intento para revisión de seguridad y devuelve el error fatal.
func (g *Guard) deny(tc Context, target, resource, op string) error {
	g.log.Warn().
		Str("component", "tenant_guard").
		Str("op", op).
		Str("context_tenant", tc.TenantID).
		Str("acting_tenant", tc.ActingTenant).
		Str("target_tenant", target).
		Str("actor_id", tc.UserID).
		Str("role", tc.Role).
		Str("resource", resource).
		Msg("intento de acceso cruzado de tenant")
	return &domain.CrossTenantAccessError{
		ContextTenant: tc.TenantID,
		TargetTenant:  target,
		Resource:      resource,
	}
}
