// Package storage elige el backend del ledger según la configuración.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Backend TxRunner listo para usar más la función que libera sus recursos.
type Backend struct {
	Runner inventory.TxRunner
	Driver string
	Close  func()
}

// Open abre el almacenamiento configurado. Con postgres también aplica el esquema.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &Backend{Runner: memory.NewStore(), Driver: "memory", Close: func() {}}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
		log.Info().Msg("conexión a PostgreSQL establecida y esquema aplicado")
		return &Backend{Runner: postgres.NewTxRunner(pool), Driver: "postgres", Close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("storage: driver desconocido %q", cfg.Storage.Driver)
	}
}
