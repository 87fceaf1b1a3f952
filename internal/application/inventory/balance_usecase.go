package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/pkg/logger"
	"github.com/jhoicas/kardex-api/pkg/textnorm"
)

// Estrategias de cálculo de saldos.
const (
	StrategyIncremental = "incremental" // lee el agregado mantenido en cada escritura
	StrategyRecompute   = "recompute"   // recorre todo el historial en cada consulta
)

// Origen de un reporte servido (etiqueta de métricas).
const (
	ReportSourceCache = "cache"
	ReportSourceBuild = "build"
)

// BalanceUseCase consultas de saldos, reporte, verificación e historial por producto/ubicación.
type BalanceUseCase struct {
	txRunner TxRunner
	strategy string
	cache    ReportCache
	group    singleflight.Group
	metrics  Metrics
	log      *logger.Logger
	now      func() time.Time
}

// BalanceOptions dependencias opcionales del caso de uso.
type BalanceOptions struct {
	Strategy string      // vacío = incremental
	Cache    ReportCache // nil = sin caché
	Metrics  Metrics
	Logger   *logger.Logger
}

// NewBalanceUseCase construye el caso de uso.
func NewBalanceUseCase(txRunner TxRunner, opts BalanceOptions) *BalanceUseCase {
	uc := &BalanceUseCase{
		txRunner: txRunner,
		strategy: opts.Strategy,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if uc.strategy == "" {
		uc.strategy = StrategyIncremental
	}
	if uc.metrics == nil {
		uc.metrics = nopMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	uc.log = uc.log.Named("balance")
	return uc
}

// Strategy devuelve la estrategia configurada.
func (uc *BalanceUseCase) Strategy() string { return uc.strategy }

// BalanceOf saldo neto de un producto en una ubicación. Ambos deben estar registrados.
func (uc *BalanceUseCase) BalanceOf(ctx context.Context, productID, locationID string) (*dto.BalanceResponse, error) {
	productID = textnorm.ID(productID)
	locationID = textnorm.ID(locationID)
	var qty int64
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		if err := requireProduct(ctx, r, productID); err != nil {
			return err
		}
		if err := requireLocation(ctx, r, locationID); err != nil {
			return err
		}
		key := entity.BalanceKey{ProductID: productID, LocationID: locationID}
		if uc.strategy == StrategyRecompute {
			movs, err := r.Movements.ListByProduct(ctx, productID)
			if err != nil {
				return err
			}
			qty = inventory.BalanceOf(movs, productID, locationID)
			return nil
		}
		var err error
		qty, err = r.Balances.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.BalanceResponse{ProductID: productID, LocationID: locationID, Quantity: qty}, nil
}

// ListBalances con producto y ubicación devuelve el saldo puntual; en otro caso
// las filas del reporte que coinciden con el filtro.
func (uc *BalanceUseCase) ListBalances(ctx context.Context, filter dto.BalanceFilter) ([]dto.BalanceResponse, error) {
	productID := textnorm.ID(filter.ProductID)
	locationID := textnorm.ID(filter.LocationID)
	if productID != "" && locationID != "" {
		b, err := uc.BalanceOf(ctx, productID, locationID)
		if err != nil {
			return nil, err
		}
		return []dto.BalanceResponse{*b}, nil
	}
	report, err := uc.GenerateReport(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BalanceResponse, 0, len(report.Rows))
	for _, row := range report.Rows {
		if productID != "" && row.ProductID != productID {
			continue
		}
		if locationID != "" && row.LocationID != locationID {
			continue
		}
		out = append(out, dto.BalanceResponse{ProductID: row.ProductID, LocationID: row.LocationID, Quantity: row.Quantity})
	}
	return out, nil
}

// GenerateReport devuelve todos los saldos distintos de cero: productos por ID y, dentro, ubicaciones por ID.
// El resultado se cachea por epoch y versión del ledger y las construcciones concurrentes de un mismo
// estado se comparten. La construcción compartida no depende de la cancelación de ningún llamador.
func (uc *BalanceUseCase) GenerateReport(ctx context.Context) (*dto.BalanceReport, error) {
	start := time.Now()
	var (
		epoch   string
		version int64
	)
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		var err error
		if epoch, err = r.Versions.Epoch(ctx); err != nil {
			return err
		}
		version, err = r.Versions.Current(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		report, ok, err := uc.cache.Get(ctx, epoch, version)
		if err != nil {
			uc.log.Warn().Err(err).Str("epoch", epoch).Int64("version", version).Msg("caché de reporte no disponible")
		} else if ok {
			uc.metrics.ReportServed(ReportSourceCache, time.Since(start))
			return report, nil
		}
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := uc.group.DoChan(epoch+":"+strconv.FormatInt(version, 10), func() (interface{}, error) {
		report, err := uc.buildReport(buildCtx)
		if err != nil {
			return nil, err
		}
		if uc.cache != nil {
			if err := uc.cache.Set(buildCtx, report.Epoch, report.Version, report); err != nil {
				uc.log.Warn().Err(err).Int64("version", report.Version).Msg("no se pudo guardar el reporte en caché")
			}
		}
		return report, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		uc.metrics.ReportServed(ReportSourceBuild, time.Since(start))
		return res.Val.(*dto.BalanceReport), nil
	}
}

// buildReport arma el reporte dentro de una sola vista; el epoch y la versión leídos ahí identifican el resultado.
func (uc *BalanceUseCase) buildReport(ctx context.Context) (*dto.BalanceReport, error) {
	report := &dto.BalanceReport{Strategy: uc.strategy, Rows: []dto.BalanceRow{}}
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		epoch, err := r.Versions.Epoch(ctx)
		if err != nil {
			return err
		}
		version, err := r.Versions.Current(ctx)
		if err != nil {
			return err
		}
		products, err := r.Products.List(ctx)
		if err != nil {
			return err
		}
		locations, err := r.Locations.List(ctx)
		if err != nil {
			return err
		}
		balances, err := uc.snapshot(ctx, r)
		if err != nil {
			return err
		}
		rows := inventory.BuildReport(products, locations, func(k entity.BalanceKey) int64 { return balances[k] })
		report.Epoch = epoch
		report.Version = version
		report.Rows = toBalanceRows(rows, productNames(products), locationNames(locations))
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.GeneratedAt = uc.now()
	uc.log.Debug().Int64("version", report.Version).Int("rows", len(report.Rows)).Msg("reporte de saldos generado")
	return report, nil
}

// snapshot devuelve los saldos distintos de cero según la estrategia configurada.
func (uc *BalanceUseCase) snapshot(ctx context.Context, r Repos) (map[entity.BalanceKey]int64, error) {
	if uc.strategy == StrategyRecompute {
		movs, err := r.Movements.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return inventory.Recompute(movs), nil
	}
	return aggregated(ctx, r)
}

// Verify recalcula los saldos desde el historial completo y los compara con el agregado incremental.
func (uc *BalanceUseCase) Verify(ctx context.Context) (*dto.VerifyResponse, error) {
	out := &dto.VerifyResponse{Mismatches: []dto.BalanceMismatch{}}
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		version, err := r.Versions.Current(ctx)
		if err != nil {
			return err
		}
		movs, err := r.Movements.ListAll(ctx)
		if err != nil {
			return err
		}
		agg, err := aggregated(ctx, r)
		if err != nil {
			return err
		}
		for _, m := range inventory.Diff(agg, inventory.Recompute(movs)) {
			out.Mismatches = append(out.Mismatches, dto.BalanceMismatch{
				ProductID:  m.Key.ProductID,
				LocationID: m.Key.LocationID,
				Aggregated: m.Aggregated,
				Recomputed: m.Recomputed,
			})
		}
		out.Version = version
		out.CheckedMovements = len(movs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Consistent = len(out.Mismatches) == 0
	if !out.Consistent {
		uc.log.Error().Int("mismatches", len(out.Mismatches)).Int64("version", out.Version).Msg("agregado de saldos inconsistente")
	}
	return out, nil
}

// Rebuild reemplaza el agregado incremental por el recálculo completo.
func (uc *BalanceUseCase) Rebuild(ctx context.Context) (*dto.RebuildResponse, error) {
	out := &dto.RebuildResponse{}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		movs, err := r.Movements.ListAll(ctx)
		if err != nil {
			return err
		}
		balances := inventory.Recompute(movs)
		if err := r.Balances.Reset(ctx, balances); err != nil {
			return err
		}
		version, err := r.Versions.Bump(ctx)
		if err != nil {
			return err
		}
		out.Movements = len(movs)
		out.Pairs = len(balances)
		out.Version = version
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int("movements", out.Movements).Int("pairs", out.Pairs).Msg("agregado de saldos reconstruido")
	return out, nil
}

// ProductDetail producto con sus movimientos (más reciente primero) y sus saldos por ubicación.
func (uc *BalanceUseCase) ProductDetail(ctx context.Context, productID string) (*dto.ProductDetailResponse, error) {
	productID = textnorm.ID(productID)
	var out *dto.ProductDetailResponse
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		p, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		movs, err := r.Movements.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		locations, err := r.Locations.List(ctx)
		if err != nil {
			return err
		}
		balances, err := uc.snapshot(ctx, r)
		if err != nil {
			return err
		}
		rows := inventory.BuildReport([]*entity.Product{p}, locations, func(k entity.BalanceKey) int64 { return balances[k] })
		out = &dto.ProductDetailResponse{
			Product:   ToProductResponse(p),
			Movements: toMovementList(movs),
			Balances:  toBalanceRows(rows, productNames([]*entity.Product{p}), locationNames(locations)),
		}
		for _, row := range rows {
			out.TotalStock += row.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LocationDetail ubicación con movimientos entrantes y salientes por separado y sus saldos por producto.
func (uc *BalanceUseCase) LocationDetail(ctx context.Context, locationID string) (*dto.LocationDetailResponse, error) {
	locationID = textnorm.ID(locationID)
	var out *dto.LocationDetailResponse
	err := uc.txRunner.View(ctx, func(ctx context.Context, r Repos) error {
		l, err := r.Locations.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		if l == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, locationID)
		}
		movs, err := r.Movements.ListByLocation(ctx, locationID)
		if err != nil {
			return err
		}
		products, err := r.Products.List(ctx)
		if err != nil {
			return err
		}
		balances, err := uc.snapshot(ctx, r)
		if err != nil {
			return err
		}
		out = &dto.LocationDetailResponse{
			Location: ToLocationResponse(l),
			Incoming: []dto.MovementResponse{},
			Outgoing: []dto.MovementResponse{},
		}
		for _, m := range movs {
			if m.ToLocation == locationID {
				out.Incoming = append(out.Incoming, ToMovementResponse(m))
			}
			if m.FromLocation == locationID {
				out.Outgoing = append(out.Outgoing, ToMovementResponse(m))
			}
		}
		rows := inventory.BuildReport(products, []*entity.Location{l}, func(k entity.BalanceKey) int64 { return balances[k] })
		out.Balances = toBalanceRows(rows, productNames(products), locationNames([]*entity.Location{l}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func aggregated(ctx context.Context, r Repos) (map[entity.BalanceKey]int64, error) {
	list, err := r.Balances.ListNonZero(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[entity.BalanceKey]int64, len(list))
	for _, b := range list {
		out[entity.BalanceKey{ProductID: b.ProductID, LocationID: b.LocationID}] = b.Quantity
	}
	return out, nil
}

func requireProduct(ctx context.Context, r Repos, id string) error {
	p, err := r.Products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return nil
}

func requireLocation(ctx context.Context, r Repos, id string) error {
	l, err := r.Locations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return nil
}

func productNames(list []*entity.Product) map[string]string {
	out := make(map[string]string, len(list))
	for _, p := range list {
		out[p.ID] = p.Name
	}
	return out
}

func locationNames(list []*entity.Location) map[string]string {
	out := make(map[string]string, len(list))
	for _, l := range list {
		out[l.ID] = l.Name
	}
	return out
}

func toBalanceRows(rows []entity.Balance, products, locations map[string]string) []dto.BalanceRow {
	out := make([]dto.BalanceRow, 0, len(rows))
	for _, b := range rows {
		out = append(out, dto.BalanceRow{
			ProductID:    b.ProductID,
			ProductName:  products[b.ProductID],
			LocationID:   b.LocationID,
			LocationName: locations[b.LocationID],
			Quantity:     b.Quantity,
		})
	}
	return out
}
