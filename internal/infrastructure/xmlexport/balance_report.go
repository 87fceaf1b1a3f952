// Package xmlexport serializa el reporte de saldos a XML para integraciones que no consumen JSON.
package xmlexport

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// Namespace del documento de saldos.
const Namespace = "urn:kardex:balance-report:1"

var _ inventory.ReportExporter = (*BalanceReportXML)(nil)

// BalanceReportXML genera:
//
//	<BalanceReport xmlns="..." version="7" strategy="incremental" generatedAt="...">
//	  <Balance productId="PROD1" locationId="LOC_A" quantity="70">
//	    <ProductName>Tornillo</ProductName>
//	    <LocationName>Bodega A</LocationName>
//	  </Balance>
//	</BalanceReport>
type BalanceReportXML struct {
	indent int
}

// NewBalanceReportXML construye el exportador. indent = espacios por nivel (0 = sin indentar).
func NewBalanceReportXML(indent int) *BalanceReportXML {
	return &BalanceReportXML{indent: indent}
}

// ContentType implementa inventory.ReportExporter.
func (x *BalanceReportXML) ContentType() string { return "application/xml" }

// Export arma el documento con etree.
func (x *BalanceReportXML) Export(_ context.Context, report *dto.BalanceReport) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("BalanceReport")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("version", strconv.FormatInt(report.Version, 10))
	root.CreateAttr("strategy", report.Strategy)
	root.CreateAttr("generatedAt", report.GeneratedAt.UTC().Format(time.RFC3339))
	root.CreateAttr("rows", strconv.Itoa(len(report.Rows)))

	for _, r := range report.Rows {
		el := root.CreateElement("Balance")
		el.CreateAttr("productId", r.ProductID)
		el.CreateAttr("locationId", r.LocationID)
		el.CreateAttr("quantity", strconv.FormatInt(r.Quantity, 10))
		el.CreateElement("ProductName").SetText(r.ProductName)
		el.CreateElement("LocationName").SetText(r.LocationName)
	}

	if x.indent > 0 {
		doc.Indent(x.indent)
	}
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("xmlexport: escribir documento: %w", err)
	}
	return out.Bytes(), nil
}
