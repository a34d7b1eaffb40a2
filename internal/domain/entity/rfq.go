package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFQ solicitud de cotización de un cliente (lista de materiales a cotizar).
type RFQ struct {
	ID        string
	TenantID  string
	ClientID  string
	Reference string // referencia externa del cliente
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RFQItem línea de un RFQ. Llega ya resuelta por el colaborador externo de
// materiales/proveedores; si la resolución falla, NeedsReview queda en true
// y la línea bloquea el cálculo de precios.
type RFQItem struct {
	ID               string
	RFQID            string
	TenantID         string
	LineNo           int
	Description      string
	Quantity         decimal.Decimal
	Unit             string // "ton", "m", "un"
	MaterialID       *string
	MaterialCategory string // "pipe", "beam", "coil", ...
	OriginCountry    string
	OriginType       string // domestic | import
	SupplierOptionID *string // opción de proveedor elegida; nil bloquea el cálculo
	SupplierUnitCost decimal.Decimal
	NeedsReview      bool
}
