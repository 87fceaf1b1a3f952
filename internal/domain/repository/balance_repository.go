package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// BalanceRepository mantiene el agregado incremental de saldos por (producto, ubicación).
// Es una vista materializada: siempre se puede reconstruir desde los movimientos.
type BalanceRepository interface {
	Apply(ctx context.Context, key entity.BalanceKey, delta int64) error
	Get(ctx context.Context, key entity.BalanceKey) (int64, error)
	// ListNonZero devuelve los saldos distintos de cero ordenados por producto y ubicación.
	ListNonZero(ctx context.Context) ([]entity.Balance, error)
	// Reset reemplaza el agregado completo (usado al reconstruir).
	Reset(ctx context.Context, balances map[entity.BalanceKey]int64) error
}

// VersionRepository expone un contador que aumenta con cada escritura confirmada.
// Junto con Epoch sirve como clave de caché del reporte: un par (epoch, versión) nunca se reutiliza.
type VersionRepository interface {
	Current(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
	// Epoch identifica la instancia del almacenamiento. Dos ledgers distintos pueden
	// estar en la misma versión, nunca en el mismo epoch.
	Epoch(ctx context.Context) (string, error)
}
