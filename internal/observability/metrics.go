// Package observability registra métricas Prometheus del API y del ledger.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

var _ inventory.Metrics = (*Metrics)(nil)

// Metrics agrupa el registry y los colectores de la aplicación.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	movementsTotal  *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
}

// NewMetrics crea un registry propio (no el global) con métricas de proceso y Go.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kardex_http_requests_total",
			Help: "Peticiones HTTP por ruta, método y código.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kardex_http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP por ruta.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		movementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kardex_movements_committed_total",
			Help: "Movimientos confirmados por operación (record, amend).",
		}, []string{"op"}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kardex_movements_rejected_total",
			Help: "Movimientos rechazados por operación y motivo.",
		}, []string{"op", "reason"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kardex_balance_report_duration_seconds",
			Help:    "Tiempo para servir el reporte de saldos según su origen (cache, build).",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal, m.requestDuration, m.movementsTotal, m.rejectionsTotal, m.reportDuration,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler expone /metrics como handler de fiber.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(m.handler)
}

// Middleware registra conteo y duración de cada petición usando el patrón de ruta de fiber.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		if route == "" {
			route = "unknown"
		}
		m.requestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// Registerer expone el registry para métricas adicionales.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// MovementCommitted implementa inventory.Metrics.
func (m *Metrics) MovementCommitted(op string) {
	m.movementsTotal.WithLabelValues(op).Inc()
}

// MovementRejected implementa inventory.Metrics.
func (m *Metrics) MovementRejected(op, reason string) {
	m.rejectionsTotal.WithLabelValues(op, reason).Inc()
}

// ReportServed implementa inventory.Metrics.
func (m *Metrics) ReportServed(source string, elapsed time.Duration) {
	m.reportDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
