package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

func TestProductUseCase(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := usecase.NewProductUseCase(store, nil)

	created, err := uc.Create(ctx, dto.CreateProductRequest{ID: " PROD2 ", Name: " Tuerca ", Description: "M8"})
	require.NoError(t, err)
	assert.Equal(t, "PROD2", created.ID)
	assert.Equal(t, "Tuerca", created.Name)

	_, err = uc.Create(ctx, dto.CreateProductRequest{ID: "PROD1", Name: "Tornillo"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, dto.CreateProductRequest{ID: "PROD1", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	_, err = uc.Create(ctx, dto.CreateProductRequest{ID: "PROD3", Name: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.Create(ctx, dto.CreateProductRequest{ID: "", Name: "Sin id"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, list.Meta.Total)
	assert.Equal(t, "PROD1", list.Items[0].ID)
	assert.Equal(t, "PROD2", list.Items[1].ID)

	updated, err := uc.Update(ctx, "PROD1", dto.UpdateProductRequest{Name: "Tornillo 1/4", Description: "acero"})
	require.NoError(t, err)
	assert.Equal(t, "PROD1", updated.ID)
	assert.Equal(t, "Tornillo 1/4", updated.Name)
	assert.False(t, updated.CreatedAt.IsZero())

	_, err = uc.Update(ctx, "GHOST", dto.UpdateProductRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(ctx, "PROD1", dto.UpdateProductRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := uc.GetByID(ctx, "PROD1")
	require.NoError(t, err)
	assert.Equal(t, "Tornillo 1/4", got.Name)
	_, err = uc.GetByID(ctx, "GHOST")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_UnicodeIDsNormalize(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewProductUseCase(memory.NewStore(), nil)

	_, err := uc.Create(ctx, dto.CreateProductRequest{ID: "CA\u00d1O", Name: "Ca\u00f1o"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateProductRequest{ID: "CAN\u0303O", Name: "Can\u0303o"})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestLocationUseCase(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := usecase.NewLocationUseCase(store, nil)

	_, err := uc.Create(ctx, dto.CreateLocationRequest{ID: "LOC_B", Name: "Bodega B"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateLocationRequest{ID: "LOC_A", Name: "Bodega A"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateLocationRequest{ID: "LOC_A", Name: "Repetida"})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	_, err = uc.Create(ctx, dto.CreateLocationRequest{ID: "LOC_C"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "LOC_A", list.Items[0].ID)

	updated, err := uc.Update(ctx, "LOC_B", dto.UpdateLocationRequest{Name: "Tienda Centro"})
	require.NoError(t, err)
	assert.Equal(t, "Tienda Centro", updated.Name)
	_, err = uc.Update(ctx, "GHOST", dto.UpdateLocationRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.GetByID(ctx, "GHOST")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogWritesBumpVersion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	products := usecase.NewProductUseCase(store, nil)
	locations := usecase.NewLocationUseCase(store, nil)

	_, err := products.Create(ctx, dto.CreateProductRequest{ID: "P", Name: "P"})
	require.NoError(t, err)
	_, err = locations.Create(ctx, dto.CreateLocationRequest{ID: "L", Name: "L"})
	require.NoError(t, err)
	_, err = products.Create(ctx, dto.CreateProductRequest{ID: "P", Name: "P"})
	require.Error(t, err)

	err = store.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		v, err := r.Versions.Current(ctx)
		assert.Equal(t, int64(2), v)
		return err
	})
	require.NoError(t, err)
}
