package ports

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// Notifier puerto del despacho de notificaciones. La entrega es best-effort y
// externa al core: los errores se registran, nunca se propagan a la transición.
type Notifier interface {
	// RunRequiresAction un run quedó pendiente de acción de un aprobador.
	RunRequiresAction(ctx context.Context, run *entity.PricingRun) error
	// RunResolved un run llegó a estado terminal.
	RunResolved(ctx context.Context, run *entity.PricingRun) error
}
