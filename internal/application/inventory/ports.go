package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción (o a una misma vista de lectura).
type Repos struct {
	Products  repository.ProductRepository
	Locations repository.LocationRepository
	Movements repository.MovementRepository
	Revisions repository.MovementRevisionRepository
	Balances  repository.BalanceRepository
	Versions  repository.VersionRepository
}

// TxRunner ejecuta funciones sobre el almacenamiento garantizando atomicidad y aislamiento.
//   - Run: transacción de escritura serializada. Commit si fn devuelve nil, Rollback en otro caso.
//   - View: lectura sobre una vista consistente; nunca observa una escritura a medias.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
	View(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// ReportCache guarda reportes de saldos por epoch y versión del ledger.
// Como la versión cambia con cada escritura, una entrada nunca queda desactualizada;
// el epoch separa ledgers distintos que comparten la misma caché.
type ReportCache interface {
	Get(ctx context.Context, epoch string, version int64) (*dto.BalanceReport, bool, error)
	Set(ctx context.Context, epoch string, version int64, report *dto.BalanceReport) error
}

// ReportExporter convierte el reporte de saldos a un formato descargable (PDF, XML).
type ReportExporter interface {
	Export(ctx context.Context, report *dto.BalanceReport) ([]byte, error)
	ContentType() string
}

// Metrics recibe eventos del ledger para observabilidad. Implementación en internal/observability.
type Metrics interface {
	MovementCommitted(op string)
	MovementRejected(op, reason string)
	ReportServed(source string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) MovementCommitted(string)           {}
func (nopMetrics) MovementRejected(string, string)    {}
func (nopMetrics) ReportServed(string, time.Duration) {}
