package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/logger"
	"github.com/jhoicas/kardex-api/pkg/textnorm"
)

// LocationUseCase casos de uso CRUD para ubicaciones (bodegas, tiendas, oficinas).
type LocationUseCase struct {
	txRunner inventory.TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(txRunner inventory.TxRunner, log *logger.Logger) *LocationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LocationUseCase{
		txRunner: txRunner,
		log:      log.Named("topology"),
		now:      func() time.Time { return time.Now().UTC().Truncate(entity.TimestampPrecision) },
	}
}

// Create registra una ubicación.
func (uc *LocationUseCase) Create(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	id := textnorm.ID(in.ID)
	name := textnorm.Clean(in.Name)
	if id == "" {
		return nil, fmt.Errorf("%w: id de la ubicación", domain.ErrValidation)
	}
	now := uc.now()
	location := &entity.Location{
		ID:          id,
		Name:        name,
		Description: textnorm.Clean(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		existing, err := r.Locations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicateID, id)
		}
		if name == "" {
			return fmt.Errorf("%w: nombre de la ubicación", domain.ErrValidation)
		}
		if err := r.Locations.Create(ctx, location); err != nil {
			return err
		}
		_, err = r.Versions.Bump(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("location_id", id).Msg("ubicación registrada")
	out := inventory.ToLocationResponse(location)
	return &out, nil
}

// GetByID obtiene una ubicación por ID.
func (uc *LocationUseCase) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	id = textnorm.ID(id)
	var out *dto.LocationResponse
	err := uc.txRunner.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		location, err := r.Locations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if location == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
		resp := inventory.ToLocationResponse(location)
		out = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update actualiza una ubicación.
func (uc *LocationUseCase) Update(ctx context.Context, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	id = textnorm.ID(id)
	name := textnorm.Clean(in.Name)
	var location *entity.Location
	err := uc.txRunner.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		var err error
		location, err = r.Locations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if location == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
		if name == "" {
			return fmt.Errorf("%w: nombre de la ubicación", domain.ErrValidation)
		}
		location.Name = name
		location.Description = textnorm.Clean(in.Description)
		location.UpdatedAt = uc.now()
		if err := r.Locations.Update(ctx, location); err != nil {
			return err
		}
		_, err = r.Versions.Bump(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("location_id", id).Msg("ubicación actualizada")
	out := inventory.ToLocationResponse(location)
	return &out, nil
}

// List lista ubicaciones ordenadas por ID.
func (uc *LocationUseCase) List(ctx context.Context) (*dto.LocationListResponse, error) {
	var list []*entity.Location
	err := uc.txRunner.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		var err error
		list, err = r.Locations.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, inventory.ToLocationResponse(l))
	}
	return &dto.LocationListResponse{Items: items, Meta: dto.ListMeta{Total: len(items)}}, nil
}
