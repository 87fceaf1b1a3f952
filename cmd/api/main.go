// @title        Kardex API
// @version      1.0
// @description  Ledger de movimientos de inventario y motor de saldos por producto y ubicación.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	_ "github.com/jhoicas/kardex-api/docs"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/internal/infrastructure/xmlexport"
	httpRouter "github.com/jhoicas/kardex-api/internal/interfaces/http"
	"github.com/jhoicas/kardex-api/internal/observability"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("strategy", cfg.Balance.Strategy).
		Msg("iniciando aplicación")

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	// Caché del reporte: opcional, si Redis no responde se sigue sin caché.
	var reportCache inventory.ReportCache
	if cfg.Redis.Addr != "" {
		client, err := cache.New(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, reporte sin caché")
		} else {
			defer client.Close()
			reportCache = cache.NewReportCache(client, cfg.Redis.ReportTTL)
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.ReportTTL).Msg("caché de reportes en redis")
		}
	}

	metrics := observability.NewMetrics()

	productUC := usecase.NewProductUseCase(backend.Runner, log)
	locationUC := usecase.NewLocationUseCase(backend.Runner, log)
	ledgerUC := inventory.NewLedgerUseCase(backend.Runner, metrics, log)
	balanceUC := inventory.NewBalanceUseCase(backend.Runner, inventory.BalanceOptions{
		Strategy: cfg.Balance.Strategy,
		Cache:    reportCache,
		Metrics:  metrics,
		Logger:   log,
	})

	if !cfg.JWT.Enabled() {
		log.Warn().Msg("JWT_SECRET vacío: las escrituras no requieren autenticación")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		Immutable:    true,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(httpRouter.RequestLogger(log))
	app.Use(metrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kardex API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": backend.Driver})
	})
	app.Get("/metrics", metrics.Handler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:  productUC,
		LocationUC: locationUC,
		LedgerUC:   ledgerUC,
		BalanceUC:  balanceUC,
		PDF:        infrapdf.NewBalanceReportPDF(cfg.App.Name),
		XML:        xmlexport.NewBalanceReportXML(2),
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
