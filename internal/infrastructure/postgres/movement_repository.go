package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var (
	_ repository.MovementRepository         = (*MovementRepo)(nil)
	_ repository.MovementRevisionRepository = (*MovementRevisionRepo)(nil)
)

const movementColumns = `id, seq, ts, product_id, from_location, to_location, qty, created_at, updated_at`

// MovementRepo persistencia de movimientos. Orden de listados: ts DESC, seq ASC.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el repositorio (pool o tx).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento y asigna Seq desde la secuencia.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO movements (id, ts, product_id, from_location, to_location, qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`,
		m.ID, m.Timestamp, m.ProductID, nullable(m.FromLocation), nullable(m.ToLocation), m.Qty, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicateID, m.ID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert movement: referencia inválida: %w", err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Update reemplaza todos los campos menos id, seq y created_at.
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE movements
		SET ts = $2, product_id = $3, from_location = $4, to_location = $5, qty = $6, updated_at = $7
		WHERE id = $1`,
		m.ID, m.Timestamp, m.ProductID, nullable(m.FromLocation), nullable(m.ToLocation), m.Qty, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, m.ID)
	}
	return nil
}

// ListAll lista todo el historial.
func (r *MovementRepo) ListAll(ctx context.Context) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements ORDER BY ts DESC, seq ASC`)
}

// ListByProduct lista los movimientos de un producto.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements WHERE product_id = $1 ORDER BY ts DESC, seq ASC`, productID)
}

// ListByLocation lista los movimientos donde la ubicación es origen o destino.
func (r *MovementRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.Movement, error) {
	return r.list(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE from_location = $1 OR to_location = $1
		ORDER BY ts DESC, seq ASC`, locationID)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var from, to *string
	if err := row.Scan(&m.ID, &m.Seq, &m.Timestamp, &m.ProductID, &from, &to, &m.Qty, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.FromLocation = deref(from)
	m.ToLocation = deref(to)
	m.Timestamp = m.Timestamp.UTC()
	return &m, nil
}

// MovementRevisionRepo historial de enmiendas; previous/current se guardan como JSONB.
type MovementRevisionRepo struct {
	q Querier
}

// NewMovementRevisionRepository construye el repositorio (pool o tx).
func NewMovementRevisionRepository(q Querier) *MovementRevisionRepo {
	return &MovementRevisionRepo{q: q}
}

// Create inserta una revisión.
func (r *MovementRevisionRepo) Create(ctx context.Context, rev *entity.MovementRevision) error {
	prev, err := json.Marshal(rev.Previous)
	if err != nil {
		return fmt.Errorf("marshal previous: %w", err)
	}
	curr, err := json.Marshal(rev.Current)
	if err != nil {
		return fmt.Errorf("marshal current: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO movement_revisions (id, movement_id, previous, current, amended_at, amended_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rev.ID, rev.MovementID, prev, curr, rev.AmendedAt, rev.AmendedBy,
	)
	if err != nil {
		return fmt.Errorf("insert movement revision: %w", err)
	}
	return nil
}

// ListByMovement devuelve las revisiones de un movimiento, la más antigua primero.
func (r *MovementRevisionRepo) ListByMovement(ctx context.Context, movementID string) ([]*entity.MovementRevision, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, movement_id, previous, current, amended_at, amended_by
		FROM movement_revisions WHERE movement_id = $1
		ORDER BY amended_at, id`, movementID)
	if err != nil {
		return nil, fmt.Errorf("list movement revisions: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovementRevision
	for rows.Next() {
		var rev entity.MovementRevision
		var prev, curr []byte
		if err := rows.Scan(&rev.ID, &rev.MovementID, &prev, &curr, &rev.AmendedAt, &rev.AmendedBy); err != nil {
			return nil, fmt.Errorf("scan movement revision: %w", err)
		}
		if err := json.Unmarshal(prev, &rev.Previous); err != nil {
			return nil, fmt.Errorf("unmarshal previous: %w", err)
		}
		if err := json.Unmarshal(curr, &rev.Current); err != nil {
			return nil, fmt.Errorf("unmarshal current: %w", err)
		}
		list = append(list, &rev)
	}
	return list, rows.Err()
}
