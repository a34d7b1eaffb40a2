package repository

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// RFQRepository puerto de lectura de RFQs y sus líneas resueltas.
// Toda consulta está acotada por tenant en el WHERE; un id de otro tenant
// devuelve nil, nunca la fila ajena.
type RFQRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.RFQ, error)
	ListItems(ctx context.Context, tenantID, rfqID string) ([]*entity.RFQItem, error)
}
