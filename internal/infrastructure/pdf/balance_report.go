// Package pdf genera la representación imprimible del reporte de saldos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + nombre de la app │ Fecha + versión         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Nombre | Ubicación | Nombre | Cantidad    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: filas y unidades por producto                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

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

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorNegative = &props.Color{Red: 170, Green: 20, Blue: 20}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.ReportExporter = (*BalanceReportPDF)(nil)

// BalanceReportPDF genera el reporte de saldos en PDF con Maroto v2.
type BalanceReportPDF struct {
	appName string
}

// NewBalanceReportPDF construye el generador. appName aparece como autor y en el encabezado.
func NewBalanceReportPDF(appName string) *BalanceReportPDF {
	return &BalanceReportPDF{appName: appName}
}

// ContentType implementa inventory.ReportExporter.
func (g *BalanceReportPDF) ContentType() string { return "application/pdf" }

// Export genera el PDF y devuelve sus bytes.
func (g *BalanceReportPDF) Export(_ context.Context, report *dto.BalanceReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de saldos", true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.appName, report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	if len(report.Rows) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Sin saldos distintos de cero.", props.Text{
				Size: 9, Align: align.Center, Color: colorGray, Top: 3,
			}),
		)))
	}
	m.AddRows(tableDetailRows(report.Rows)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(report.Rows)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(appName string, report *dto.BalanceReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("REPORTE DE SALDOS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(appName, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04 MST"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Versión del ledger: %d", report.Version), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
			text.New("Estrategia: "+report.Strategy, props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
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
		h("Producto", 2, align.Left),
		h("Nombre", 3, align.Left),
		h("Ubicación", 2, align.Left),
		h("Nombre", 3, align.Left),
		h("Cantidad", 2, align.Right),
	)
}

func tableDetailRows(rows []dto.BalanceRow) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		qtyProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if r.Quantity < 0 {
			qtyProps.Color = colorNegative
		}
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(r.ProductID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(r.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(r.LocationID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(r.LocationName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatQty(r.Quantity), qtyProps)),
		))
	}
	return result
}

// totalsRows: una línea por producto con la suma de sus saldos, en el orden del reporte.
func totalsRows(rows []dto.BalanceRow) []core.Row {
	var order []string
	names := map[string]string{}
	totals := map[string]int64{}
	for _, r := range rows {
		if _, ok := totals[r.ProductID]; !ok {
			order = append(order, r.ProductID)
			names[r.ProductID] = r.ProductName
		}
		totals[r.ProductID] += r.Quantity
	}

	result := []core.Row{row.New(6).Add(col.New(12).Add(
		text.New(fmt.Sprintf("TOTALES POR PRODUCTO (%d filas)", len(rows)), props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}),
	))}
	for _, id := range order {
		result = append(result, row.New(5).Add(
			col.New(5),
			col.New(5).Add(text.New(id+" · "+names[id], props.Text{Size: 8, Align: align.Right, Right: 2})),
			col.New(2).Add(text.New(formatQty(totals[id]), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatQty inserta puntos de miles. Ej: 1000000 → "1.000.000", -2500 → "-2.500".
func formatQty(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
