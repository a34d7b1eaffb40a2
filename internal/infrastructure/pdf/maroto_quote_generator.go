// Package pdf implementa la generación del documento de cotización comercial.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social tenant  │  N° Cotización + Fecha      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Línea | Cant | Unit | Landed | Precio               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Costo landed / Margen / TOTAL COTIZADO            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: referencia del run + leyenda de validez            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appcandidate "github.com/jhoicas/Cotizador-api/internal/application/candidate"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 30, Green: 60, Blue: 90}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoQuoteGenerator implementa candidate.QuotePDFGenerator usando Maroto v2.
type MarotoQuoteGenerator struct{}

// Verificación en tiempo de compilación.
var _ appcandidate.QuotePDFGenerator = (*MarotoQuoteGenerator)(nil)

// NewMarotoQuoteGenerator construye el generador.
func NewMarotoQuoteGenerator() *MarotoQuoteGenerator { return &MarotoQuoteGenerator{} }

// GenerateQuotePDF genera el PDF de la cotización y devuelve sus bytes.
func (g *MarotoQuoteGenerator) GenerateQuotePDF(
	_ context.Context,
	tenant *entity.Tenant,
	run *entity.PricingRun,
	items []*entity.PricingRunItem,
	cand *entity.QuoteCandidate,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Cotización Comercial", true).
		WithAuthor(tenant.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(tenant, run, cand))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(run))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(run))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social del tenant (izq) y referencia + fecha (der).
func headerRow(tenant *entity.Tenant, run *entity.PricingRun, cand *entity.QuoteCandidate) core.Row {
	fecha := cand.CreatedAt.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(tenant.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+tenant.Code, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COTIZACIÓN COMERCIAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(shortRef(cand.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha+"   |   Moneda: "+run.Currency, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Línea", 1, align.Center),
		h("Cantidad", 2, align.Right),
		h("Costo Unit.", 3, align.Right),
		h("Costo Landed", 3, align.Right),
		h("Precio Venta", 3, align.Right),
	)
}

// tableItemRows: una fila por línea del run.
func tableItemRows(items []*entity.PricingRunItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for i, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", i+1),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				it.Quantity.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				it.UnitCost.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				it.LandedCost.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				it.SellPrice.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(run *entity.PricingRun) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Costo landed total:"),
			label("Margen:"),
			grandLabel("TOTAL COTIZADO:"),
		),
		col.New(3).Add(
			value(run.TotalCost.StringFixed(2)+" "+run.Currency),
			value(run.MarginPct.StringFixed(2)+"%"),
			grandValue(run.TotalPrice.StringFixed(2)+" "+run.Currency),
		),
		col.New(3),
	)
}

// footerRow: referencia del run y leyenda de validez.
func footerRow(run *entity.PricingRun) core.Row {
	return row.New(12).Add(col.New(12).Add(
		text.New("Run de precios: "+run.ID+"   |   Estado: "+run.Status, props.Text{
			Size: 7, Color: colorGray, Top: 1,
		}),
		text.New(
			"Cotización sujeta a disponibilidad de material y a variación de tarifas de "+
				"importación. Precios válidos por 15 días calendario.",
			props.Text{Size: 6.5, Color: colorGray, Top: 6},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

// shortRef acorta un UUID a una referencia legible (primeros 8 caracteres).
func shortRef(id string) string {
	if len(id) > 8 {
		return "COT-" + id[:8]
	}
	return "COT-" + id
}
