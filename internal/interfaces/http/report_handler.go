package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// ReportHandler expone saldos, el reporte de saldos y sus exportaciones.
type ReportHandler struct {
	uc  *inventory.BalanceUseCase
	pdf inventory.ReportExporter
	xml inventory.ReportExporter
}

// NewReportHandler construye el handler. pdf y xml pueden ser nil (ruta responde 404).
func NewReportHandler(uc *inventory.BalanceUseCase, pdf, xml inventory.ReportExporter) *ReportHandler {
	return &ReportHandler{uc: uc, pdf: pdf, xml: xml}
}

// Balances godoc
// @Summary      Consultar saldos
// @Description  Con product_id y location_id devuelve el saldo puntual (puede ser 0).
// @Description  Con uno o ninguno devuelve los saldos distintos de cero que coinciden.
// @Tags         balances
// @Produce      json
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {array}   dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/balances [get]
func (h *ReportHandler) Balances(c *fiber.Ctx) error {
	var filter dto.BalanceFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	out, err := h.uc.ListBalances(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte de saldos
// @Description  Productos (ID ascendente) por ubicaciones (ID ascendente), solo saldos distintos de cero.
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.BalanceReport
// @Router       /api/reports/balance [get]
func (h *ReportHandler) Report(c *fiber.Ctx) error {
	report, err := h.uc.GenerateReport(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	c.Set("X-Ledger-Version", fmt.Sprintf("%d", report.Version))
	return c.JSON(report)
}

// ReportPDF godoc
// @Summary      Reporte de saldos en PDF
// @Tags         reports
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/reports/balance.pdf [get]
func (h *ReportHandler) ReportPDF(c *fiber.Ctx) error {
	return h.export(c, h.pdf, "pdf")
}

// ReportXML godoc
// @Summary      Reporte de saldos en XML
// @Tags         reports
// @Produce      application/xml
// @Success      200  {string}  string
// @Router       /api/reports/balance.xml [get]
func (h *ReportHandler) ReportXML(c *fiber.Ctx) error {
	return h.export(c, h.xml, "xml")
}

func (h *ReportHandler) export(c *fiber.Ctx, exporter inventory.ReportExporter, ext string) error {
	if exporter == nil {
		return fiber.ErrNotFound
	}
	report, err := h.uc.GenerateReport(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	body, err := exporter.Export(c.UserContext(), report)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, exporter.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="saldos-v%d.%s"`, report.Version, ext))
	c.Set("X-Ledger-Version", fmt.Sprintf("%d", report.Version))
	return c.Send(body)
}

// Verify godoc
// @Summary      Verificar agregado de saldos
// @Description  Recalcula todos los saldos desde el historial y los compara con el agregado incremental.
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.VerifyResponse
// @Router       /api/reports/balance/verify [get]
func (h *ReportHandler) Verify(c *fiber.Ctx) error {
	out, err := h.uc.Verify(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Rebuild godoc
// @Summary      Reconstruir agregado de saldos
// @Description  Reemplaza el agregado incremental por el recálculo completo desde el historial.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/balance/rebuild [post]
func (h *ReportHandler) Rebuild(c *fiber.Ctx) error {
	out, err := h.uc.Rebuild(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
