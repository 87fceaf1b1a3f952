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

// ProductUseCase casos de uso del catálogo de productos. Los productos no se eliminan:
// los movimientos los referencian para siempre.
type ProductUseCase struct {
	txRunner inventory.TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner inventory.TxRunner, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{
		txRunner: txRunner,
		log:      log.Named("catalog"),
		now:      func() time.Time { return time.Now().UTC().Truncate(entity.TimestampPrecision) },
	}
}

// Create registra un producto. ID vacío -> ErrValidation; ID existente -> ErrDuplicateID; nombre vacío -> ErrValidation.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	id := textnorm.ID(in.ID)
	name := textnorm.Clean(in.Name)
	if id == "" {
		return nil, fmt.Errorf("%w: id del producto", domain.ErrValidation)
	}
	now := uc.now()
	product := &entity.Product{
		ID:          id,
		Name:        name,
		Description: textnorm.Clean(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		existing, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicateID, id)
		}
		if name == "" {
			return fmt.Errorf("%w: nombre del producto", domain.ErrValidation)
		}
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		_, err = r.Versions.Bump(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", id).Msg("producto registrado")
	out := inventory.ToProductResponse(product)
	return &out, nil
}

// GetByID obtiene un producto por ID. ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	id = textnorm.ID(id)
	var out *dto.ProductResponse
	err := uc.txRunner.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		product, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		resp := inventory.ToProductResponse(product)
		out = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update reemplaza nombre y descripción. El ID no cambia.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	id = textnorm.ID(id)
	name := textnorm.Clean(in.Name)
	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		var err error
		product, err = r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		if name == "" {
			return fmt.Errorf("%w: nombre del producto", domain.ErrValidation)
		}
		product.Name = name
		product.Description = textnorm.Clean(in.Description)
		product.UpdatedAt = uc.now()
		if err := r.Products.Update(ctx, product); err != nil {
			return err
		}
		_, err = r.Versions.Bump(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", id).Msg("producto actualizado")
	out := inventory.ToProductResponse(product)
	return &out, nil
}

// List lista todos los productos ordenados por ID.
func (uc *ProductUseCase) List(ctx context.Context) (*dto.ProductListResponse, error) {
	var list []*entity.Product
	err := uc.txRunner.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		var err error
		list, err = r.Products.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, inventory.ToProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Meta: dto.ListMeta{Total: len(items)}}, nil
}
