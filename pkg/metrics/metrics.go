// Package metrics provides Prometheus metrics for the connector: datasets
// emitted, rows emitted, fetch latency, upstream HTTP calls and connection
// tests.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("opendota")
//	timer := metrics.NewTimer()
//	rows := fetch()
//	collector.ObserveFetch("heroes", timer.Stop())
//	collector.RecordEmission("heroes", metrics.StatusSuccess, len(rows))
//
// All metrics live on Registry rather than the process default registry so a
// CLI run can write exactly these series to a textfile with WriteTextfile.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Emission status label values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Registry holds every metric of this package
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// DatasetsEmitted counts dataset emissions by outcome
	DatasetsEmitted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opendota_datasets_emitted_total",
			Help: "Dataset emissions by connector, dataset and status",
		},
		[]string{"connector", "dataset", "status"},
	)

	// RowsEmitted counts rows in successful emissions
	RowsEmitted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opendota_rows_emitted_total",
			Help: "Rows emitted by connector and dataset",
		},
		[]string{"connector", "dataset"},
	)

	// FetchDuration tracks the time from request to decoded rows
	FetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opendota_fetch_duration_seconds",
			Help:    "Time to fetch and decode one dataset",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"connector", "dataset"},
	)

	// HTTPRequests counts upstream requests by host and status code
	HTTPRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opendota_http_requests_total",
			Help: "Upstream HTTP requests by host and status code (0 = transport error)",
		},
		[]string{"host", "code"},
	)

	// HTTPRequestDuration tracks upstream round-trip latency
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opendota_http_request_duration_seconds",
			Help:    "Upstream HTTP round-trip latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	// ConnectionTests counts reachability probes by result
	ConnectionTests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opendota_connection_tests_total",
			Help: "Connection tests by connector and result",
		},
		[]string{"connector", "result"},
	)

	// CircuitBreakerOpen is 1 while the connector's breaker is open
	CircuitBreakerOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "opendota_circuit_breaker_open",
			Help: "Whether the circuit breaker is open",
		},
		[]string{"connector"},
	)
)

// Collector records metrics for one component and keeps local totals for
// the connector's Metrics() map.
type Collector struct {
	name      string
	startTime time.Time

	emitted atomic.Int64
	failed  atomic.Int64
	rows    atomic.Int64

	mu       sync.RWMutex
	fetchSum map[string]time.Duration
}

// NewCollector creates a new metrics collector for a component.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
		fetchSum:  make(map[string]time.Duration),
	}
}

// Name returns the component name used as the connector label
func (c *Collector) Name() string {
	return c.name
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// RecordEmission counts one dataset emission
func (c *Collector) RecordEmission(dataset, status string, rows int) {
	DatasetsEmitted.WithLabelValues(c.name, dataset, status).Inc()
	switch status {
	case StatusSuccess:
		c.emitted.Add(1)
		c.rows.Add(int64(rows))
		RowsEmitted.WithLabelValues(c.name, dataset).Add(float64(rows))
	case StatusFailed:
		c.failed.Add(1)
	}
}

// ObserveFetch records how long a dataset took to fetch
func (c *Collector) ObserveFetch(dataset string, d time.Duration) {
	FetchDuration.WithLabelValues(c.name, dataset).Observe(d.Seconds())
	c.mu.Lock()
	c.fetchSum[dataset] += d
	c.mu.Unlock()
}

// RecordConnectionTest counts one reachability probe
func (c *Collector) RecordConnectionTest(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	ConnectionTests.WithLabelValues(c.name, result).Inc()
}

// SetCircuitOpen publishes the breaker state
func (c *Collector) SetCircuitOpen(open bool) {
	v := 0.0
	if open {
		v = 1
	}
	CircuitBreakerOpen.WithLabelValues(c.name).Set(v)
}

// GetAll returns the local totals
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	fetch := make(map[string]float64, len(c.fetchSum))
	for k, v := range c.fetchSum {
		fetch[k] = v.Seconds()
	}
	c.mu.RUnlock()

	return map[string]interface{}{
		"component":         c.name,
		"start_time":        c.startTime,
		"uptime":            time.Since(c.startTime).Seconds(),
		"datasets_emitted":  c.emitted.Load(),
		"datasets_failed":   c.failed.Load(),
		"rows_emitted":      c.rows.Load(),
		"fetch_seconds_sum": fetch,
	}
}

// Timer measures an elapsed duration
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// WriteTextfile writes every metric in Registry to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
