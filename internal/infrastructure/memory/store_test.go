package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Run(context.Background(), func(ctx context.Context, r inventory.Repos) error {
		if err := r.Products.Create(ctx, &entity.Product{ID: "PROD1", Name: "Tornillo"}); err != nil {
			return err
		}
		if err := r.Locations.Create(ctx, &entity.Location{ID: "LOC_A", Name: "Bodega A"}); err != nil {
			return err
		}
		return r.Locations.Create(ctx, &entity.Location{ID: "LOC_B", Name: "Bodega B"})
	})
	require.NoError(t, err)
}

func TestStore_RunRollsBackOnError(t *testing.T) {
	s := NewStore()
	seed(t, s)
	boom := errors.New("boom")
	ctx := context.Background()

	err := s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		m := &entity.Movement{ID: "M1", ProductID: "PROD1", ToLocation: "LOC_A", Qty: 10, Timestamp: time.Now()}
		require.NoError(t, r.Movements.Create(ctx, m))
		require.NoError(t, r.Balances.Apply(ctx, entity.BalanceKey{ProductID: "PROD1", LocationID: "LOC_A"}, 10))
		p := &entity.Product{ID: "PROD1", Name: "Cambiado"}
		require.NoError(t, r.Products.Update(ctx, p))
		_, err := r.Versions.Bump(ctx)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		m, err := r.Movements.GetByID(ctx, "M1")
		require.NoError(t, err)
		assert.Nil(t, m)
		qty, err := r.Balances.Get(ctx, entity.BalanceKey{ProductID: "PROD1", LocationID: "LOC_A"})
		require.NoError(t, err)
		assert.Zero(t, qty)
		p, err := r.Products.GetByID(ctx, "PROD1")
		require.NoError(t, err)
		assert.Equal(t, "Tornillo", p.Name)
		v, err := r.Versions.Current(ctx)
		require.NoError(t, err)
		assert.Zero(t, v)
		return nil
	})
	require.NoError(t, err)

	// La secuencia también se restaura: el siguiente movimiento recibe Seq 1.
	err = s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		m := &entity.Movement{ID: "M2", ProductID: "PROD1", ToLocation: "LOC_A", Qty: 1}
		require.NoError(t, r.Movements.Create(ctx, m))
		assert.Equal(t, int64(1), m.Seq)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	s := NewStore()
	err := s.View(context.Background(), func(ctx context.Context, r inventory.Repos) error {
		return r.Products.Create(ctx, &entity.Product{ID: "X", Name: "X"})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestStore_DuplicateIDs(t *testing.T) {
	s := NewStore()
	seed(t, s)
	err := s.Run(context.Background(), func(ctx context.Context, r inventory.Repos) error {
		return r.Products.Create(ctx, &entity.Product{ID: "PROD1", Name: "Otro"})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestStore_MovementOrdering(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	err := s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		for _, m := range []*entity.Movement{
			{ID: "old", ProductID: "PROD1", ToLocation: "LOC_A", Qty: 1, Timestamp: t0},
			{ID: "tie1", ProductID: "PROD1", ToLocation: "LOC_A", Qty: 1, Timestamp: t0.Add(time.Hour)},
			{ID: "tie2", ProductID: "PROD1", FromLocation: "LOC_A", ToLocation: "LOC_B", Qty: 1, Timestamp: t0.Add(time.Hour)},
			{ID: "new", ProductID: "PROD1", FromLocation: "LOC_B", Qty: 1, Timestamp: t0.Add(2 * time.Hour)},
		} {
			if err := r.Movements.Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = s.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		all, err := r.Movements.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "tie1", "tie2", "old"}, ids(all))

		byLoc, err := r.Movements.ListByLocation(ctx, "LOC_B")
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "tie2"}, ids(byLoc))
		return nil
	})
	require.NoError(t, err)
}

func TestStore_BalanceApplyDropsZero(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	key := entity.BalanceKey{ProductID: "P", LocationID: "L"}
	err := s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		require.NoError(t, r.Balances.Apply(ctx, key, 5))
		require.NoError(t, r.Balances.Apply(ctx, key, -5))
		list, err := r.Balances.ListNonZero(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_ConcurrentWritersAreSerialized(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()
	key := entity.BalanceKey{ProductID: "PROD1", LocationID: "LOC_A"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
				if err := r.Balances.Apply(ctx, key, 2); err != nil {
					return err
				}
				_, err := r.Versions.Bump(ctx)
				return err
			})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.View(ctx, func(ctx context.Context, r inventory.Repos) error {
				qty, _ := r.Balances.Get(ctx, key)
				v, _ := r.Versions.Current(ctx)
				// Cada escritura suma 2 y sube la versión en el mismo paso.
				assert.Equal(t, 2*v, qty)
				return nil
			})
		}()
	}
	wg.Wait()

	err := s.View(ctx, func(ctx context.Context, r inventory.Repos) error {
		qty, _ := r.Balances.Get(ctx, key)
		assert.Equal(t, int64(100), qty)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_CanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Run(ctx, func(context.Context, inventory.Repos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_IndexesFollowAmendAndRollback(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		if err := r.Products.Create(ctx, &entity.Product{ID: "PROD2", Name: "Tuerca"}); err != nil {
			return err
		}
		if err := r.Movements.Create(ctx, &entity.Movement{ID: "M1", ProductID: "PROD1", ToLocation: "LOC_A", Qty: 5, Timestamp: t0}); err != nil {
			return err
		}
		return r.Movements.Create(ctx, &entity.Movement{ID: "M2", ProductID: "PROD1", FromLocation: "LOC_A", ToLocation: "LOC_A", Qty: 1, Timestamp: t0})
	})
	require.NoError(t, err)

	lists := func() (prod1, prod2, locA, locB []string) {
		require.NoError(t, s.View(ctx, func(ctx context.Context, r inventory.Repos) error {
			p1, _ := r.Movements.ListByProduct(ctx, "PROD1")
			p2, _ := r.Movements.ListByProduct(ctx, "PROD2")
			a, _ := r.Movements.ListByLocation(ctx, "LOC_A")
			b, _ := r.Movements.ListByLocation(ctx, "LOC_B")
			prod1, prod2, locA, locB = ids(p1), ids(p2), ids(a), ids(b)
			return nil
		}))
		return
	}

	// Enmienda M1 a otro producto y otra ubicación.
	err = s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		return r.Movements.Update(ctx, &entity.Movement{ID: "M1", ProductID: "PROD2", FromLocation: "LOC_B", Qty: 5, Timestamp: t0})
	})
	require.NoError(t, err)
	prod1, prod2, locA, locB := lists()
	assert.Equal(t, []string{"M2"}, prod1)
	assert.Equal(t, []string{"M1"}, prod2)
	assert.Equal(t, []string{"M2"}, locA)
	assert.Equal(t, []string{"M1"}, locB)

	// Una enmienda y una creación deshechas no dejan rastro en los índices.
	err = s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		if err := r.Movements.Update(ctx, &entity.Movement{ID: "M1", ProductID: "PROD1", ToLocation: "LOC_A", Qty: 5, Timestamp: t0}); err != nil {
			return err
		}
		if err := r.Movements.Create(ctx, &entity.Movement{ID: "M3", ProductID: "PROD2", ToLocation: "LOC_B", Qty: 2, Timestamp: t0}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	prod1, prod2, locA, locB = lists()
	assert.Equal(t, []string{"M2"}, prod1)
	assert.Equal(t, []string{"M1"}, prod2)
	assert.Equal(t, []string{"M2"}, locA)
	assert.Equal(t, []string{"M1"}, locB)
	assert.Empty(t, s.byLocation["LOC_Z"])
	assert.Len(t, s.byProduct, 2)
}

func TestStore_EpochIsPerStore(t *testing.T) {
	a, b := NewStore(), NewStore()
	ctx := context.Background()
	epoch := func(s *Store) string {
		var out string
		require.NoError(t, s.View(ctx, func(ctx context.Context, r inventory.Repos) error {
			var err error
			out, err = r.Versions.Epoch(ctx)
			return err
		}))
		return out
	}
	assert.NotEmpty(t, epoch(a))
	assert.Equal(t, epoch(a), epoch(a))
	assert.NotEqual(t, epoch(a), epoch(b))
}

func ids(list []*entity.Movement) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}
