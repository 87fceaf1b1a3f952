// Package cache guarda en Redis los reportes de saldos ya construidos.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

const reportKeyPrefix = "kardex:report:balance:"

// New crea el cliente Redis y verifica la conexión.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

var _ inventory.ReportCache = (*ReportCache)(nil)

// ReportCache implementa inventory.ReportCache. La clave incluye epoch y versión del ledger,
// así que una escritura deja las entradas anteriores sin uso y el TTL las limpia.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache construye la caché. ttl <= 0 = sin expiración.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ReportCache{client: client, ttl: ttl}
}

// Get devuelve el reporte del epoch y la versión dados si está en caché.
func (c *ReportCache) Get(ctx context.Context, epoch string, version int64) (*dto.BalanceReport, bool, error) {
	payload, err := c.client.Get(ctx, reportKey(epoch, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get report: %w", err)
	}
	var report dto.BalanceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("cache: decode report: %w", err)
	}
	return &report, true, nil
}

// Set guarda el reporte bajo su epoch y versión.
func (c *ReportCache) Set(ctx context.Context, epoch string, version int64, report *dto.BalanceReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("cache: encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(epoch, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set report: %w", err)
	}
	return nil
}

func reportKey(epoch string, version int64) string {
	return fmt.Sprintf("%s%s:v%d", reportKeyPrefix, epoch, version)
}
