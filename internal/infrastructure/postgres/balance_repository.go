package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var (
	_ repository.BalanceRepository = (*BalanceRepo)(nil)
	_ repository.VersionRepository = (*VersionRepo)(nil)
)

// BalanceRepo agregado incremental de saldos. Las filas en cero se conservan y se filtran al listar.
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el repositorio (pool o tx).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Apply suma delta al saldo del par (upsert).
func (r *BalanceRepo) Apply(ctx context.Context, key entity.BalanceKey, delta int64) error {
	if delta == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO balances (product_id, location_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = balances.quantity + EXCLUDED.quantity`,
		key.ProductID, key.LocationID, delta,
	)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	return nil
}

// Get devuelve el saldo del par; 0 si no hay fila.
func (r *BalanceRepo) Get(ctx context.Context, key entity.BalanceKey) (int64, error) {
	var qty int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE((SELECT quantity FROM balances WHERE product_id = $1 AND location_id = $2), 0)`,
		key.ProductID, key.LocationID,
	).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return qty, nil
}

// ListNonZero lista los saldos distintos de cero ordenados por producto y ubicación.
func (r *BalanceRepo) ListNonZero(ctx context.Context) ([]entity.Balance, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, location_id, quantity FROM balances
		WHERE quantity <> 0
		ORDER BY product_id, location_id`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []entity.Balance
	for rows.Next() {
		var b entity.Balance
		if err := rows.Scan(&b.ProductID, &b.LocationID, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Reset borra el agregado y carga los saldos dados con COPY.
func (r *BalanceRepo) Reset(ctx context.Context, balances map[entity.BalanceKey]int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM balances`); err != nil {
		return fmt.Errorf("clear balances: %w", err)
	}
	rows := make([][]any, 0, len(balances))
	for k, v := range balances {
		if v == 0 {
			continue
		}
		rows = append(rows, []any{k.ProductID, k.LocationID, v})
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"balances"},
		[]string{"product_id", "location_id", "quantity"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy balances: %w", err)
	}
	return nil
}

// VersionRepo contador de escrituras del ledger (fila única en ledger_state).
type VersionRepo struct {
	q Querier
}

// NewVersionRepository construye el repositorio (pool o tx).
func NewVersionRepository(q Querier) *VersionRepo {
	return &VersionRepo{q: q}
}

// Current devuelve la versión actual.
func (r *VersionRepo) Current(ctx context.Context) (int64, error) {
	var v int64
	if err := r.q.QueryRow(ctx, `SELECT version FROM ledger_state WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("get ledger version: %w", err)
	}
	return v, nil
}

// Bump incrementa la versión y devuelve el nuevo valor.
func (r *VersionRepo) Bump(ctx context.Context) (int64, error) {
	var v int64
	if err := r.q.QueryRow(ctx, `UPDATE ledger_state SET version = version + 1 WHERE id = 1 RETURNING version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("bump ledger version: %w", err)
	}
	return v, nil
}

// Epoch devuelve el identificador de esta base, generado al crear ledger_state.
func (r *VersionRepo) Epoch(ctx context.Context) (string, error) {
	var epoch string
	if err := r.q.QueryRow(ctx, `SELECT epoch::text FROM ledger_state WHERE id = 1`).Scan(&epoch); err != nil {
		return "", fmt.Errorf("get ledger epoch: %w", err)
	}
	return epoch, nil
}
