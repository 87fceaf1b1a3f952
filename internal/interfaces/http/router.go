package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *usecase.ProductUseCase
	LocationUC *usecase.LocationUseCase
	LedgerUC   *inventory.LedgerUseCase
	BalanceUC  *inventory.BalanceUseCase
	PDF        inventory.ReportExporter
	XML        inventory.ReportExporter
	JWTSecret  string // vacío = escrituras sin autenticación
}

// Router registra las rutas de la API. Las lecturas son públicas; las escrituras
// exigen rol admin o bodeguero cuando hay JWTSecret.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	writers := func(h fiber.Handler) []fiber.Handler {
		return append(Protect(deps.JWTSecret, jwt.RoleAdmin, jwt.RoleBodeguero), h)
	}
	admins := func(h fiber.Handler) []fiber.Handler {
		return append(Protect(deps.JWTSecret, jwt.RoleAdmin), h)
	}

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.BalanceUC)
	products.Get("/", productHandler.List)
	products.Post("/", writers(productHandler.Create)...)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", writers(productHandler.Update)...)
	products.Get("/:id/detail", productHandler.Detail)

	// Locations
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC, deps.BalanceUC)
	locations.Get("/", locationHandler.List)
	locations.Post("/", writers(locationHandler.Create)...)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Put("/:id", writers(locationHandler.Update)...)
	locations.Get("/:id/detail", locationHandler.Detail)

	// Movements (sin DELETE: el historial es inmutable salvo enmiendas)
	movements := api.Group("/movements")
	movementHandler := NewMovementHandler(deps.LedgerUC)
	movements.Get("/", movementHandler.List)
	movements.Post("/", writers(movementHandler.Record)...)
	movements.Get("/:id", movementHandler.GetByID)
	movements.Put("/:id", writers(movementHandler.Amend)...)
	movements.Get("/:id/revisions", movementHandler.Revisions)

	// Balances y reportes
	reportHandler := NewReportHandler(deps.BalanceUC, deps.PDF, deps.XML)
	api.Get("/balances", reportHandler.Balances)
	reports := api.Group("/reports")
	reports.Get("/balance", reportHandler.Report)
	reports.Get("/balance.pdf", reportHandler.ReportPDF)
	reports.Get("/balance.xml", reportHandler.ReportXML)
	reports.Get("/balance/verify", reportHandler.Verify)
	reports.Post("/balance/rebuild", admins(reportHandler.Rebuild)...)
}
