// seed registra datos de ejemplo (4 productos, 4 ubicaciones y 20 movimientos) usando
// los mismos casos de uso que el API, y al final imprime los saldos positivos.
//
// Uso: go run ./cmd/seed
// Lee la misma configuración que cmd/api (STORAGE_DRIVER, DATABASE_URL, ...).
// Los registros que ya existen se omiten, así que puede ejecutarse más de una vez.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

type sampleMovement struct {
	product string
	from    string
	to      string
	qty     int64
	day     int
}

var sampleProducts = []dto.CreateProductRequest{
	{ID: "PROD001", Name: "Portátil", Description: "Portátil empresarial de alto rendimiento"},
	{ID: "PROD002", Name: "Mouse inalámbrico", Description: "Mouse óptico inalámbrico ergonómico"},
	{ID: "PROD003", Name: "Silla de oficina", Description: "Silla ergonómica ajustable"},
	{ID: "PROD004", Name: "Monitor 24\"", Description: "Monitor LED de 24 pulgadas con HDMI"},
}

var sampleLocations = []dto.CreateLocationRequest{
	{ID: "WH001", Name: "Bodega principal", Description: "Centro de almacenamiento principal"},
	{ID: "WH002", Name: "Bodega secundaria", Description: "Almacenamiento de excedentes"},
	{ID: "STORE01", Name: "Tienda", Description: "Punto de venta al público"},
	{ID: "OFFICE", Name: "Oficina", Description: "Suministros internos de oficina"},
}

// Entradas, traslados y salidas; day es el desplazamiento desde la fecha base.
var sampleMovements = []sampleMovement{
	{"PROD001", "", "WH001", 50, 1},
	{"PROD002", "", "WH001", 100, 1},
	{"PROD003", "", "WH001", 25, 2},
	{"PROD004", "", "WH001", 40, 2},
	{"PROD001", "", "WH002", 30, 3},
	{"PROD002", "", "WH002", 75, 3},

	{"PROD001", "WH001", "WH002", 10, 5},
	{"PROD002", "WH001", "STORE01", 20, 6},
	{"PROD003", "WH001", "STORE01", 5, 7},
	{"PROD004", "WH001", "STORE01", 8, 8},
	{"PROD001", "WH002", "STORE01", 5, 10},
	{"PROD002", "WH002", "OFFICE", 15, 12},
	{"PROD003", "WH001", "OFFICE", 3, 14},
	{"PROD004", "WH001", "WH002", 12, 15},

	{"PROD001", "STORE01", "", 3, 16},
	{"PROD002", "STORE01", "", 8, 17},
	{"PROD003", "STORE01", "", 2, 18},
	{"PROD004", "STORE01", "", 4, 19},
	{"PROD002", "OFFICE", "", 5, 20},
	{"PROD001", "WH001", "", 7, 22},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "warn"})

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir almacenamiento: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	if err := seed(ctx, backend.Runner, log, time.Now().UTC().AddDate(0, 0, -30)); err != nil {
		fmt.Fprintf(os.Stderr, "Poblar datos: %v\n", err)
		backend.Close()
		os.Exit(1)
	}
}

func seed(ctx context.Context, runner inventory.TxRunner, log *logger.Logger, base time.Time) error {
	products := usecase.NewProductUseCase(runner, log)
	locations := usecase.NewLocationUseCase(runner, log)
	ledger := inventory.NewLedgerUseCase(runner, nil, log)
	balances := inventory.NewBalanceUseCase(runner, inventory.BalanceOptions{Logger: log})

	created := 0
	for _, p := range sampleProducts {
		if _, err := products.Create(ctx, p); skip(err) != nil {
			return fmt.Errorf("producto %s: %w", p.ID, err)
		} else if err == nil {
			created++
		}
	}
	fmt.Printf("Productos creados: %d\n", created)

	created = 0
	for _, l := range sampleLocations {
		if _, err := locations.Create(ctx, l); skip(err) != nil {
			return fmt.Errorf("ubicación %s: %w", l.ID, err)
		} else if err == nil {
			created++
		}
	}
	fmt.Printf("Ubicaciones creadas: %d\n", created)

	created = 0
	for i, m := range sampleMovements {
		_, err := ledger.RecordMovement(ctx, inventory.MovementInput{
			ID:           fmt.Sprintf("MOV%03d", i+1),
			ProductID:    m.product,
			FromLocation: m.from,
			ToLocation:   m.to,
			Qty:          m.qty,
			Timestamp:    base.AddDate(0, 0, m.day),
			Actor:        "seed",
		})
		if skip(err) != nil {
			return fmt.Errorf("movimiento MOV%03d: %w", i+1, err)
		} else if err == nil {
			created++
		}
	}
	fmt.Printf("Movimientos creados: %d\n", created)

	report, err := balances.GenerateReport(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\nSaldos actuales:")
	current := ""
	for _, row := range report.Rows {
		if row.Quantity <= 0 {
			continue
		}
		if row.ProductID != current {
			current = row.ProductID
			fmt.Printf("\n%s - %s:\n", row.ProductID, row.ProductName)
		}
		fmt.Printf("  %s: %d unidades\n", row.LocationID, row.Quantity)
	}
	return nil
}

// skip ignora los registros que ya existen.
func skip(err error) error {
	if errors.Is(err, domain.ErrDuplicateID) {
		return nil
	}
	return err
}
