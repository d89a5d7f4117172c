package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded by the metrics middleware.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the store collectors and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tessera_store_operations_total",
				Help: "Total number of page store operations",
			},
			[]string{"op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tessera_store_operation_duration_seconds",
				Help:    "Duration of page store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	for _, c := range []prometheus.Collector{m.ops, m.duration} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}
	return m, nil
}

// Middleware returns a store middleware recording into m.
func (m *Metrics) Middleware() Middleware {
	return func(next ports.SchemaStore) ports.SchemaStore {
		return &metricsMiddleware{next: next, metrics: m}
	}
}

// NewMetricsMiddleware registers fresh collectors with reg and returns the middleware.
func NewMetricsMiddleware(reg prometheus.Registerer) (Middleware, error) {
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return m.Middleware(), nil
}

type metricsMiddleware struct {
	next    ports.SchemaStore
	metrics *Metrics
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrPageNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	m.metrics.ops.WithLabelValues(op, result).Inc()
	m.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsMiddleware) Save(ctx context.Context, pageRef string, schema domain.Schema) (err error) {
	start := time.Now()
	defer func() { m.observe("save", start, err) }()
	return m.next.Save(ctx, pageRef, schema)
}

func (m *metricsMiddleware) Load(ctx context.Context, pageRef string) (schema domain.Schema, err error) {
	start := time.Now()
	defer func() { m.observe("load", start, err) }()
	return m.next.Load(ctx, pageRef)
}

func (m *metricsMiddleware) Delete(ctx context.Context, pageRef string) (err error) {
	start := time.Now()
	defer func() { m.observe("delete", start, err) }()
	return m.next.Delete(ctx, pageRef)
}

func (m *metricsMiddleware) List(ctx context.Context) (refs []string, err error) {
	start := time.Now()
	defer func() { m.observe("list", start, err) }()
	return m.next.List(ctx)
}
