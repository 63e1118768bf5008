// Package prometheus keeps the metrics of one termsim run in a private
// registry and dumps them for the node_exporter textfile collector.
package prometheus

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
)

// MetricsCollector registers metrics and exports the registry.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Gatherer() prometheus.Gatherer
	WriteTextfile(path string) error
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type Gauge interface {
	Set(value float64)
	Add(delta float64)
}

type Histogram interface {
	Observe(value float64)
}

// CounterVec, GaugeVec and HistogramVec select a child by label values.
type (
	CounterVec   interface{ WithLabelValues(lvs ...string) Counter }
	GaugeVec     interface{ WithLabelValues(lvs ...string) Gauge }
	HistogramVec interface{ WithLabelValues(lvs ...string) Histogram }
)

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Namespace string
	// Buckets is used by RegisterHistogram when it is given nil buckets.
	Buckets []float64
}

type runCollector struct {
	registry *prometheus.Registry
	config   CollectorConfig
	logger   logging.Logger

	mu     sync.Mutex
	byName map[string]prometheus.Collector
}

// NewMetricsCollector returns a collector over a fresh registry, so that
// every run starts from zero.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Buckets == nil {
		cfg.Buckets = prometheus.DefBuckets
	}
	return &runCollector{
		registry: prometheus.NewRegistry(),
		config:   cfg,
		logger:   logger.Named("metrics"),
		byName:   make(map[string]prometheus.Collector),
	}, nil
}

func (c *runCollector) Gatherer() prometheus.Gatherer { return c.registry }

// WriteTextfile writes the registry to path atomically.
func (c *runCollector) WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics textfile path is required")
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	c.logger.Debug("metrics written", logging.String("path", path))
	return nil
}

// register adds v under name, or returns the vector already registered under
// name.  ok is false when the registry rejects v or the existing vector has a
// different type; callers then fall back to a no-op vector.
func register[V prometheus.Collector](c *runCollector, name string, v V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, found := c.byName[name]; found {
		same, ok := existing.(V)
		if !ok {
			c.logger.Warn("metric already registered with another type", logging.String("name", name))
		}
		return same, ok
	}
	if err := c.registry.Register(v); err != nil {
		c.logger.Warn("metric registration failed", logging.String("name", name), logging.Err(err))
		var zero V
		return zero, false
	}
	c.byName[name] = v
	return v, true
}

func (c *runCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	cv, ok := register(c, name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace, Name: name, Help: help,
	}, labels))
	if !ok {
		return vec[Counter]{}
	}
	return vec[Counter]{with: func(lvs ...string) Counter { return cv.WithLabelValues(lvs...) }}
}

func (c *runCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	gv, ok := register(c, name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace, Name: name, Help: help,
	}, labels))
	if !ok {
		return vec[Gauge]{}
	}
	return vec[Gauge]{with: func(lvs ...string) Gauge { return gv.WithLabelValues(lvs...) }}
}

func (c *runCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = c.config.Buckets
	}
	hv, ok := register(c, name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace, Name: name, Help: help, Buckets: buckets,
	}, labels))
	if !ok {
		return vec[Histogram]{}
	}
	return vec[Histogram]{with: func(lvs ...string) Histogram { return hv.WithLabelValues(lvs...) }}
}

// vec adapts a client_golang vector.  The zero value records nothing.
type vec[M any] struct {
	with func(lvs ...string) M
}

func (v vec[M]) WithLabelValues(lvs ...string) M {
	if v.with == nil {
		var m any = noopMetric{}
		return m.(M)
	}
	return v.with(lvs...)
}

// noopMetric satisfies Counter, Gauge and Histogram.
type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Set(float64)     {}
func (noopMetric) Observe(float64) {}

// Timer observes the time since it was started.
type Timer struct {
	histogram Histogram
	start     time.Time
}

func NewTimer(histogram Histogram) *Timer {
	return &Timer{histogram: histogram, start: time.Now()}
}

// ObserveDuration records the elapsed time and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.Observe(d.Seconds())
	}
	return d
}

//Personal.AI order the ending
