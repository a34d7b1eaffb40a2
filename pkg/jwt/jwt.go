package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity identidad ya resuelta que el core consume del token: usuario,
// tenant, rol y nivel máximo de aprobación. La emisión de sesiones es externa;
// el core solo valida y extrae.
type Identity struct {
	UserID        string
	TenantID      string // vacío solo para el rol de plataforma
	Name          string
	Role          string // "trader" | "approver" | "platform"
	ApprovalLevel int    // nivel máximo que el actor puede aprobar (0 = ninguno)
}

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
type Claims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	TenantID      string `json:"tenant_id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	ApprovalLevel int    `json:"approval_level"`
}

// Generate genera un token JWT firmado con la identidad dada (usado por tests
// y tooling; en producción el emisor es el servicio de autenticación externo).
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:        id.UserID,
		TenantID:      id.TenantID,
		Name:          id.Name,
		Role:          id.Role,
		ApprovalLevel: id.ApprovalLevel,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad resuelta.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	return Identity{
		UserID:        claims.UserID,
		TenantID:      claims.TenantID,
		Name:          claims.Name,
		Role:          claims.Role,
		ApprovalLevel: claims.ApprovalLevel,
	}, nil
}
