package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/pkg/logger"
	"github.com/jhoicas/kardex-api/pkg/textnorm"
)

// Operaciones del ledger (etiquetas de métricas).
const (
	OpRecord = "record"
	OpAmend  = "amend"
)

// LedgerUseCase registra y enmienda movimientos. Cada escritura valida contra el catálogo
// y las ubicaciones, actualiza el agregado de saldos y sube la versión en la misma transacción.
type LedgerUseCase struct {
	txRunner TxRunner
	metrics  Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso. metrics puede ser nil.
func NewLedgerUseCase(txRunner TxRunner, metrics Metrics, log *logger.Logger) *LedgerUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner: txRunner,
		metrics:  metrics,
		log:      log.Named("ledger"),
		now:      func() time.Time { return time.Now().UTC().Truncate(entity.TimestampPrecision) },
	}
}

// MovementInput entrada para registrar o enmendar un movimiento.
// Timestamp cero: en Record se usa la hora actual; en Amend se conserva el existente.
type MovementInput struct {
	ID           string
	ProductID    string
	FromLocation string
	ToLocation   string
	Qty          int64
	Timestamp    time.Time
	Actor        string
}

// RecordFromRequest adapta el request HTTP al caso de uso RecordMovement.
func (uc *LedgerUseCase) RecordFromRequest(ctx context.Context, actor string, in dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInput{
		ID:           in.ID,
		ProductID:    in.ProductID,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		Qty:          in.Qty,
		Actor:        actor,
	}
	if in.Timestamp != nil {
		input.Timestamp = *in.Timestamp
	}
	return uc.RecordMovement(ctx, input)
}

// AmendFromRequest adapta el request HTTP al caso de uso AmendMovement.
func (uc *LedgerUseCase) AmendFromRequest(ctx context.Context, actor, id string, in dto.AmendMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInput{
		ID:           id,
		ProductID:    in.ProductID,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		Qty:          in.Qty,
		Actor:        actor,
	}
	if in.Timestamp != nil {
		input.Timestamp = *in.Timestamp
	}
	return uc.AmendMovement(ctx, input)
}

// RecordMovement valida y agrega un movimiento nuevo.
// Orden de validación: ID duplicado, producto, ubicaciones (origen y luego destino), cantidad, al menos una ubicación.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input MovementInput) (*dto.MovementResponse, error) {
	now := uc.now()
	mov := normalize(input)
	if mov.ID == "" {
		return nil, uc.reject(OpRecord, mov, fmt.Errorf("%w: id del movimiento", domain.ErrValidation))
	}
	if mov.Timestamp.IsZero() {
		mov.Timestamp = now
	}
	mov.CreatedAt = now
	mov.UpdatedAt = now

	err := uc.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		existing, err := r.Movements.GetByID(ctx, mov.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicateID, mov.ID)
		}
		if err := validateMovement(ctx, r, mov); err != nil {
			return err
		}
		if err := r.Movements.Create(ctx, mov); err != nil {
			return err
		}
		if err := applyDeltas(ctx, r, inventory.Contribution(mov)); err != nil {
			return err
		}
		_, err = r.Versions.Bump(ctx)
		return err
	})
	if err != nil {
		return nil, uc.reject(OpRecord, mov, err)
	}

	uc.metrics.MovementCommitted(OpRecord)
	uc.logCommitted(OpRecord, mov)
	out := ToMovementResponse(mov)
	return &out, nil
}

// AmendMovement reemplaza todos los campos del movimiento salvo el ID.
// El agregado de saldos recibe en un solo paso la resta de la contribución anterior y la suma de la nueva,
// y se guarda una revisión con los valores previos.
func (uc *LedgerUseCase) AmendMovement(ctx context.Context, input MovementInput) (*dto.MovementResponse, error) {
	now := uc.now()
	next := normalize(input)
	if next.ID == "" {
		return nil, uc.reject(OpAmend, next, fmt.Errorf("%w: id del movimiento", domain.ErrValidation))
	}

	err := uc.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		prev, err := r.Movements.GetByID(ctx, next.ID)
		if err != nil {
			return err
		}
		if prev == nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, next.ID)
		}
		next.Seq = prev.Seq
		next.CreatedAt = prev.CreatedAt
		next.UpdatedAt = now
		if next.Timestamp.IsZero() {
			next.Timestamp = prev.Timestamp
		}
		if err := validateMovement(ctx, r, next); err != nil {
			return err
		}
		if err := r.Movements.Update(ctx, next); err != nil {
			return err
		}
		if err := applyDeltas(ctx, r, inventory.AmendmentDeltas(prev, next)); err != nil {
			return err
		}
		rev := &entity.MovementRevision{
			ID:         uuid.New().String(),
			MovementID: next.ID,
			Previous:   *prev,
			Current:    *next,
			AmendedAt:  now,
			AmendedBy:  input.Actor,
		}
		if err := r.Revisions.Create(ctx, rev); err != nil {
			return err
		}
		_, err = r.Versions.Bump(ctx)
		return err
	})
	if err != nil {
		return nil, uc.reject(OpAmend, next, err)
	}

	uc.metrics.MovementCommitted(OpAmend)
	uc.logCommitted(OpAmend, next)
	out := ToMovementResponse(next)
	return &out, nil
}

// GetMovement obtiene un movimiento por ID.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	id = textnorm.ID(id)
	var out *dto.MovementResponse
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
		}
		resp := ToMovementResponse(m)
		out = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMovements lista movimientos, más reciente primero.
// Filtro vacío = todos; con ProductID y LocationID a la vez se devuelve la intersección.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	productID := textnorm.ID(filter.ProductID)
	locationID := textnorm.ID(filter.LocationID)

	var list []*entity.Movement
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		var err error
		switch {
		case productID != "":
			list, err = r.Movements.ListByProduct(ctx, productID)
			if err == nil && locationID != "" {
				list = filterByLocation(list, locationID)
			}
		case locationID != "":
			list, err = r.Movements.ListByLocation(ctx, locationID)
		default:
			list, err = r.Movements.ListAll(ctx)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	items := toMovementList(list)
	return &dto.MovementListResponse{Items: items, Meta: dto.ListMeta{Total: len(items)}}, nil
}

// ListRevisions devuelve el historial de enmiendas de un movimiento (más antigua primero).
func (uc *LedgerUseCase) ListRevisions(ctx context.Context, movementID string) ([]dto.MovementRevisionResponse, error) {
	movementID = textnorm.ID(movementID)
	var out []dto.MovementRevisionResponse
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetByID(ctx, movementID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, movementID)
		}
		revs, err := r.Revisions.ListByMovement(ctx, movementID)
		if err != nil {
			return err
		}
		out = make([]dto.MovementRevisionResponse, 0, len(revs))
		for _, rev := range revs {
			out = append(out, toRevisionResponse(rev))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// validateMovement aplica las reglas de integridad referencial y de forma.
func validateMovement(ctx context.Context, r Repos, m *entity.Movement) error {
	product, err := r.Products.GetByID(ctx, m.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProduct, m.ProductID)
	}
	for _, locationID := range []string{m.FromLocation, m.ToLocation} {
		if locationID == "" {
			continue
		}
		loc, err := r.Locations.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return fmt.Errorf("%w: %q", domain.ErrUnknownLocation, locationID)
		}
	}
	if m.Qty <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, m.Qty)
	}
	if m.Qty > entity.MaxQuantity {
		return fmt.Errorf("%w: %d supera el máximo %d", domain.ErrInvalidQuantity, m.Qty, entity.MaxQuantity)
	}
	if m.FromLocation == "" && m.ToLocation == "" {
		return domain.ErrNoLocationSpecified
	}
	return nil
}

func applyDeltas(ctx context.Context, r Repos, deltas []inventory.Delta) error {
	for _, d := range deltas {
		if err := r.Balances.Apply(ctx, d.Key, d.Qty); err != nil {
			return err
		}
	}
	return nil
}

func normalize(in MovementInput) *entity.Movement {
	return &entity.Movement{
		ID:           textnorm.ID(in.ID),
		ProductID:    textnorm.ID(in.ProductID),
		FromLocation: textnorm.ID(in.FromLocation),
		ToLocation:   textnorm.ID(in.ToLocation),
		Qty:          in.Qty,
		Timestamp:    in.Timestamp.UTC().Truncate(entity.TimestampPrecision),
	}
}

func filterByLocation(list []*entity.Movement, locationID string) []*entity.Movement {
	out := list[:0]
	for _, m := range list {
		if m.FromLocation == locationID || m.ToLocation == locationID {
			out = append(out, m)
		}
	}
	return out
}

func (uc *LedgerUseCase) reject(op string, m *entity.Movement, err error) error {
	reason := rejectReason(err)
	uc.metrics.MovementRejected(op, reason)
	if isDomainError(err) {
		uc.log.Debug().Str("op", op).Str("movement_id", m.ID).Str("reason", reason).Err(err).Msg("movimiento rechazado")
	} else {
		uc.log.Error().Str("op", op).Str("movement_id", m.ID).Err(err).Msg("fallo al escribir movimiento")
	}
	return err
}

func (uc *LedgerUseCase) logCommitted(op string, m *entity.Movement) {
	if m.IsSelfTransfer() {
		uc.log.Warn().Str("movement_id", m.ID).Str("location", m.FromLocation).Msg("traslado con origen y destino iguales")
	}
	uc.log.Info().
		Str("op", op).
		Str("movement_id", m.ID).
		Str("product_id", m.ProductID).
		Str("from", m.FromLocation).
		Str("to", m.ToLocation).
		Int64("qty", m.Qty).
		Msg("movimiento confirmado")
}
