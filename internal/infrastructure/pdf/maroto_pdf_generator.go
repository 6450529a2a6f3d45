// Package pdf genera el documento de la orden de compra que se envía al proveedor.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: ORDEN DE COMPRA + N°  │  Estado + Fechas            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PROVEEDOR: Nombre / Email / Tel                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Código | Descripción | P.Unit | Subtotal      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL                                                      │
//	│  FOOTER: QR con la referencia de la orden                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/reposicion-api/internal/application/purchasing"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

var _ purchasing.PDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa purchasing.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	printer *message.Printer
}

// NewMarotoPDFGenerator construye el generador. Los montos se formatean según locale
// (p. ej. "es-CO" → 1.250.000,50); con un locale inválido se usa español.
func NewMarotoPDFGenerator(locale string) *MarotoPDFGenerator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return &MarotoPDFGenerator{printer: message.NewPrinter(tag)}
}

// PurchaseOrderPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) PurchaseOrderPDF(_ context.Context, doc purchasing.OrderDocument) ([]byte, error) {
	if doc.Order == nil || doc.Provider == nil {
		return nil, fmt.Errorf("pdf: orden o proveedor ausente")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de compra "+orderNumber(doc.Order), true).
		WithAuthor(doc.Provider.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc.Order))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(providerRow(doc.Provider))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.lineRows(doc)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalRow(doc.Order))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(doc.Order))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(o *entity.PurchaseOrder) core.Row {
	dates := "Creada: " + o.CreatedAt.Format("02/01/2006")
	if o.SentAt != nil {
		dates += "   Enviada: " + o.SentAt.Format("02/01/2006")
	}
	if o.ReceivedAt != nil {
		dates += "   Recibida: " + o.ReceivedAt.Format("02/01/2006")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("ORDEN DE COMPRA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+orderNumber(o), props.Text{Size: 10, Top: 9}),
		),
		col.New(5).Add(
			text.New(stateLabel(o.State), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(dates, props.Text{Size: 8, Align: align.Right, Top: 9, Color: colorGray}),
		),
	)
}

func providerRow(p *entity.Provider) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PROVEEDOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(p.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Email: %s   |   Tel: %s", nonEmpty(p.Email, "N/D"), nonEmpty(p.Phone, "N/D")),
				props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Código", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func (g *MarotoPDFGenerator) lineRows(doc purchasing.OrderDocument) []core.Row {
	rows := make([]core.Row, 0, len(doc.Order.Lines))
	for _, l := range doc.Order.Lines {
		sku, desc := l.ProductID, ""
		if p, ok := doc.Products[l.ProductID]; ok && p != nil {
			sku, desc = p.Code, p.Description
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(g.printer.Sprintf("%d", l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(sku, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(desc, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.money(l.Price), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(g.money(l.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func (g *MarotoPDFGenerator) totalRow(o *entity.PurchaseOrder) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("TOTAL:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(g.money(o.Total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

func footerRow(o *entity.PurchaseOrder) core.Row {
	return row.New(35).Add(
		col.New(3).Add(code.NewQr("PO:"+o.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Referencia de la orden:", props.Text{Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3}),
			text.New(o.ID, props.Text{Size: 8, Top: 10, Left: 3, Color: colorGray}),
			text.New("Incluya esta referencia en la remisión de entrega.", props.Text{
				Size: 7, Top: 18, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// money formatea con separador de miles del locale y dos decimales.
func (g *MarotoPDFGenerator) money(d decimal.Decimal) string {
	return "$" + g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// orderNumber primeros 8 caracteres del ID en mayúsculas.
func orderNumber(o *entity.PurchaseOrder) string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func stateLabel(s entity.PurchaseOrderState) string {
	switch s {
	case entity.OrderStatePending:
		return "PENDIENTE"
	case entity.OrderStateSent:
		return "ENVIADA"
	case entity.OrderStateCancelled:
		return "CANCELADA"
	case entity.OrderStateFinalized:
		return "FINALIZADA"
	}
	return string(s)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
