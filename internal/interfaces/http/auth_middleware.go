package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/pkg/jwt"
)

// Locals keys para la identidad resuelta en Fiber.
const (
	LocalUserID        = "user_id"
	LocalTenantID      = "tenant_id"
	LocalName          = "name"
	LocalRole          = "role"
	LocalApprovalLevel = "approval_level"
	LocalActingTenant  = "acting_tenant"

	// HeaderActingTenant tenant objetivo explícito de una identidad de
	// plataforma. Sin él, una identidad de plataforma solo puede leer.
	HeaderActingTenant = "X-Acting-Tenant"
)

// AuthMiddleware valida el Bearer Token JWT y extrae la identidad a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		// fasthttp recorta el espacio final del header: "Bearer " llega como
		// "Bearer" a secas, que sigue siendo un token ausente, no uno inválido.
		scheme, tokenString, _ := strings.Cut(authHeader, " ")
		if !strings.EqualFold(scheme, "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString = strings.TrimSpace(tokenString)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalTenantID, id.TenantID)
		c.Locals(LocalName, id.Name)
		c.Locals(LocalRole, id.Role)
		c.Locals(LocalApprovalLevel, id.ApprovalLevel)
		if id.Role == tenantctx.RolePlatform {
			c.Locals(LocalActingTenant, c.Get(HeaderActingTenant))
		}
		return c.Next()
	}
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// TenantContext arma el contexto de tenant de la petición (después del
// middleware de auth).
func TenantContext(c *fiber.Ctx) tenantctx.Context {
	level, _ := c.Locals(LocalApprovalLevel).(int)
	return tenantctx.Context{
		TenantID:      localString(c, LocalTenantID),
		UserID:        localString(c, LocalUserID),
		Name:          localString(c, LocalName),
		Role:          localString(c, LocalRole),
		ApprovalLevel: level,
		ActingTenant:  localString(c, LocalActingTenant),
	}
}

// RequestActor arma el actor auditado de la petición (identidad + IP + user agent).
func RequestActor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{
		ID:        localString(c, LocalUserID),
		Name:      localString(c, LocalName),
		Role:      localString(c, LocalRole),
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}
