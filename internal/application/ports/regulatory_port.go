package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// HSDuty mapeo arancelario resuelto para (categoría, origen).
type HSDuty struct {
	HSCode   string
	DutyRate decimal.Decimal // fracción, ej. 0.05
}

// RegulatoryLookup puerto del colaborador externo regulatorio/tributario.
// found=false cuando no existe mapeo para el material: el motor aplica
// arancel cero, nunca un error.
type RegulatoryLookup interface {
	DutyFor(ctx context.Context, category, originCountry, originType string) (duty HSDuty, found bool, err error)
}
