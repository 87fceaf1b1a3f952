package inventory_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]*dto.BalanceReport
	sets int
}

func (c *mapCache) Get(_ context.Context, epoch string, version int64) (*dto.BalanceReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[fmt.Sprintf("%s:%d", epoch, version)]
	return r, ok, nil
}

func (c *mapCache) Set(_ context.Context, epoch string, version int64, report *dto.BalanceReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]*dto.BalanceReport{}
	}
	c.data[fmt.Sprintf("%s:%d", epoch, version)] = report
	c.sets++
	return nil
}

func (c *mapCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// gatedRunner detiene la construcción del reporte (segunda vista) hasta que se cierra gate
// y, como pgx, falla si el contexto ya fue cancelado al continuar.
type gatedRunner struct {
	inventory.TxRunner
	views   atomic.Int32
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedRunner) View(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	if g.views.Add(1) == 2 {
		close(g.entered)
		<-g.gate
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return g.TxRunner.View(ctx, fn)
}

func TestBalance_EmptyReport(t *testing.T) {
	f := newFixture(t, "")
	report, err := f.balances.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, report.Rows)
	assert.Empty(t, report.Rows)
}

func TestBalance_ReportOrderingAndZeroFilter(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.products.Create(ctx, dto.CreateProductRequest{ID: "AAA", Name: "Primero"})
	require.NoError(t, err)

	f.record(t, "M1", "", "LOC_B", 10)
	f.record(t, "M2", "", "LOC_A", 5)
	f.record(t, "M3", "LOC_A", "", 5)
	_, err = f.ledger.RecordMovement(ctx, inventory.MovementInput{ID: "M4", ProductID: "AAA", ToLocation: "LOC_B", Qty: 1})
	require.NoError(t, err)

	report, err := f.balances.GenerateReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "AAA", report.Rows[0].ProductID)
	assert.Equal(t, "PROD1", report.Rows[1].ProductID)
	assert.Equal(t, "LOC_B", report.Rows[1].LocationID)
}

func TestBalance_BalanceOfUnknown(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.balances.BalanceOf(ctx, "GHOST", "LOC_A")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.balances.BalanceOf(ctx, "PROD1", "GHOST")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, int64(0), f.balance(t, "PROD1", "LOC_A"))
}

func TestBalance_ListBalances(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.record(t, "M1", "", "LOC_A", 100)
	f.record(t, "M2", "LOC_A", "LOC_B", 30)

	all, err := f.balances.ListBalances(ctx, dto.BalanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byLoc, err := f.balances.ListBalances(ctx, dto.BalanceFilter{LocationID: "LOC_B"})
	require.NoError(t, err)
	assert.Equal(t, []dto.BalanceResponse{{ProductID: "PROD1", LocationID: "LOC_B", Quantity: 30}}, byLoc)

	point, err := f.balances.ListBalances(ctx, dto.BalanceFilter{ProductID: "PROD1", LocationID: "LOC_A"})
	require.NoError(t, err)
	assert.Equal(t, []dto.BalanceResponse{{ProductID: "PROD1", LocationID: "LOC_A", Quantity: 70}}, point)
}

func TestBalance_ReportCacheByVersion(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	cache := &mapCache{}
	balances := inventory.NewBalanceUseCase(f.store, inventory.BalanceOptions{Cache: cache, Metrics: f.metrics})

	f.record(t, "M1", "", "LOC_A", 100)

	first, err := balances.GenerateReport(ctx)
	require.NoError(t, err)
	second, err := balances.GenerateReport(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, f.metrics.served[inventory.ReportSourceCache])

	// Una escritura cambia la versión y el reporte se reconstruye.
	f.record(t, "M2", "LOC_A", "LOC_B", 30)
	third, err := balances.GenerateReport(ctx)
	require.NoError(t, err)
	assert.Greater(t, third.Version, first.Version)
	assert.Len(t, third.Rows, 2)
	assert.Equal(t, 2, cache.sets)
}

func TestBalance_ReportCacheSeparatesLedgers(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{}

	first := newFixture(t, "")
	first.record(t, "M1", "", "LOC_A", 50)
	second := newFixture(t, "")
	second.record(t, "M1", "", "LOC_A", 7)

	a, err := inventory.NewBalanceUseCase(first.store, inventory.BalanceOptions{Cache: cache}).GenerateReport(ctx)
	require.NoError(t, err)
	b, err := inventory.NewBalanceUseCase(second.store, inventory.BalanceOptions{Cache: cache}).GenerateReport(ctx)
	require.NoError(t, err)

	// Misma versión en ambos ledgers; el epoch evita que el segundo lea el reporte del primero.
	require.Equal(t, a.Version, b.Version)
	assert.NotEqual(t, a.Epoch, b.Epoch)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, int64(7), b.Rows[0].Quantity)
	assert.Equal(t, int64(50), a.Rows[0].Quantity)
	assert.Equal(t, 2, cache.setCount())
}

func TestBalance_CancelledCallerDoesNotAbortSharedBuild(t *testing.T) {
	f := newFixture(t, "")
	f.record(t, "M1", "", "LOC_A", 100)
	cache := &mapCache{}
	runner := &gatedRunner{TxRunner: f.store, entered: make(chan struct{}), gate: make(chan struct{})}
	balances := inventory.NewBalanceUseCase(runner, inventory.BalanceOptions{Cache: cache})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := balances.GenerateReport(ctx)
		done <- err
	}()

	<-runner.entered
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	close(runner.gate)

	// La construcción sigue sin el contexto cancelado y deja el reporte en caché.
	require.Eventually(t, func() bool { return cache.setCount() == 1 }, time.Second, 5*time.Millisecond)
	report, err := balances.GenerateReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, int64(100), report.Rows[0].Quantity)
	assert.Equal(t, 1, cache.setCount())
}

func TestBalance_CatalogRenameInvalidatesReport(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	cache := &mapCache{}
	balances := inventory.NewBalanceUseCase(f.store, inventory.BalanceOptions{Cache: cache})
	f.record(t, "M1", "", "LOC_A", 1)

	_, err := balances.GenerateReport(ctx)
	require.NoError(t, err)
	_, err = f.products.Update(ctx, "PROD1", dto.UpdateProductRequest{Name: "Tornillo 3/8"})
	require.NoError(t, err)

	report, err := balances.GenerateReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tornillo 3/8", report.Rows[0].ProductName)
}

func TestBalance_StrategiesAgree(t *testing.T) {
	f := newFixture(t, inventory.StrategyIncremental)
	ctx := context.Background()
	recompute := inventory.NewBalanceUseCase(f.store, inventory.BalanceOptions{Strategy: inventory.StrategyRecompute})

	f.record(t, "M1", "", "LOC_A", 100)
	f.record(t, "M2", "LOC_A", "LOC_B", 30)
	f.record(t, "M3", "LOC_B", "", 10)
	f.record(t, "M4", "LOC_B", "LOC_A", 25)
	_, err := f.ledger.AmendMovement(ctx, inventory.MovementInput{ID: "M3", ProductID: "PROD1", FromLocation: "LOC_A", Qty: 7})
	require.NoError(t, err)

	a, err := f.balances.GenerateReport(ctx)
	require.NoError(t, err)
	b, err := recompute.GenerateReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, a.Version, b.Version)
}

func TestBalance_VerifyAndRebuild(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.record(t, "M1", "", "LOC_A", 100)
	f.record(t, "M2", "LOC_A", "LOC_B", 30)

	// Corrompe el agregado por fuera del ledger.
	err := f.store.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		return r.Balances.Apply(ctx, entity.BalanceKey{ProductID: "PROD1", LocationID: "LOC_B"}, 5)
	})
	require.NoError(t, err)

	verify, err := f.balances.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, verify.Consistent)
	assert.Equal(t, []dto.BalanceMismatch{{ProductID: "PROD1", LocationID: "LOC_B", Aggregated: 35, Recomputed: 30}}, verify.Mismatches)

	rebuilt, err := f.balances.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt.Movements)
	assert.Equal(t, 2, rebuilt.Pairs)

	verify, err = f.balances.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, verify.Consistent)
	assert.Equal(t, int64(30), f.balance(t, "PROD1", "LOC_B"))
}

func TestBalance_ProductDetail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.record(t, "M1", "", "LOC_A", 100)
	f.record(t, "M2", "LOC_A", "LOC_B", 30)

	detail, err := f.balances.ProductDetail(ctx, "PROD1")
	require.NoError(t, err)
	assert.Equal(t, "Tornillo", detail.Product.Name)
	assert.Len(t, detail.Movements, 2)
	assert.Len(t, detail.Balances, 2)
	assert.Equal(t, int64(100), detail.TotalStock)

	_, err = f.balances.ProductDetail(ctx, "GHOST")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBalance_LocationDetail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.record(t, "M1", "", "LOC_A", 100)
	f.record(t, "M2", "LOC_A", "LOC_B", 30)
	f.record(t, "M3", "LOC_B", "", 10)

	detail, err := f.balances.LocationDetail(ctx, "LOC_B")
	require.NoError(t, err)
	assert.Equal(t, []string{"M2"}, movementIDs(detail.Incoming))
	assert.Equal(t, []string{"M3"}, movementIDs(detail.Outgoing))
	require.Len(t, detail.Balances, 1)
	assert.Equal(t, int64(20), detail.Balances[0].Quantity)

	_, err = f.balances.LocationDetail(ctx, "GHOST")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
