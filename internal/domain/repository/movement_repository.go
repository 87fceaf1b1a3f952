package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia para movimientos.
// Todos los listados van por Timestamp descendente y, a igual Timestamp, por orden de inserción.
type MovementRepository interface {
	// Create asigna Seq y persiste. Devuelve domain.ErrDuplicateID si el ID ya existe.
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	Update(ctx context.Context, movement *entity.Movement) error
	ListAll(ctx context.Context) ([]*entity.Movement, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Movement, error)
	// ListByLocation incluye movimientos donde la ubicación es origen o destino.
	ListByLocation(ctx context.Context, locationID string) ([]*entity.Movement, error)
}

// MovementRevisionRepository guarda el historial de enmiendas (solo inserción).
type MovementRevisionRepository interface {
	Create(ctx context.Context, revision *entity.MovementRevision) error
	ListByMovement(ctx context.Context, movementID string) ([]*entity.MovementRevision, error)
}
