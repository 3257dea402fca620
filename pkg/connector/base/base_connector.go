// Package base provides the BaseConnector that connectors embed. It carries
// the circuit breaker, rate limiting, health status, metrics collection and
// progress reporting around upstream calls.
//
// # Usage
//
//	type MySource struct {
//	    *base.BaseConnector
//	}
//
//	func NewMySource(cfg *config.BaseConfig) (*MySource, error) {
//	    s := &MySource{BaseConnector: base.NewBaseConnector("my-source", core.ConnectorTypeSource, "1.0.0")}
//	    if err := s.Initialize(context.Background(), cfg); err != nil {
//	        return nil, err
//	    }
//	    return s, nil
//	}
//
// # Lifecycle
//
// 1. Create with NewBaseConnector
// 2. Initialize with Initialize()
// 3. Wrap upstream calls in RateLimit and ExecuteWithCircuitBreaker
// 4. Close with Close()
package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/clients"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/logger"
	"github.com/ajitpratap0/opendota-datasource/pkg/metrics"
)

// BaseConnector provides common functionality for all connectors
type BaseConnector struct {
	// Core fields
	name          string             // Unique connector identifier
	connectorType core.ConnectorType // Source or Destination
	version       string             // Connector version
	config        *config.BaseConfig // Unified configuration
	logger        *zap.Logger        // Structured logger

	// Resource management
	closed     bool       // Shutdown flag
	closeMutex sync.Mutex // Protects close operation

	// Production features
	circuitBreaker   *clients.CircuitBreaker // Failure protection, nil when disabled
	rateLimiter      clients.RateLimiter     // Request rate control, nil when unlimited
	healthChecker    *HealthChecker          // Health status
	metricsCollector *metrics.Collector      // Metrics collection

	// Progress tracking
	progressReporter *ProgressReporter
}

// NewBaseConnector creates a new base connector with the specified name, type, and version
func NewBaseConnector(name string, connectorType core.ConnectorType, version string) *BaseConnector {
	return &BaseConnector{
		name:          name,
		connectorType: connectorType,
		version:       version,
		logger:        logger.Get().With(zap.String("connector", name)),
	}
}

// SetLogger replaces the connector logger. Call it before Initialize so the
// breaker and the reporters inherit it.
func (bc *BaseConnector) SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	bc.logger = l.With(zap.String("connector", bc.name))
}

// Initialize validates cfg and sets up the circuit breaker, rate limiter,
// health status, metrics and progress reporting
func (bc *BaseConnector) Initialize(_ context.Context, cfg *config.BaseConfig) error {
	if cfg == nil {
		return errors.New(errors.ErrorTypeConfig, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	bc.config = cfg

	bc.metricsCollector = metrics.NewCollector(bc.name)

	if cfg.Reliability.CircuitBreaker {
		collector := bc.metricsCollector
		bc.circuitBreaker = clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
			FailureThreshold: cfg.Reliability.CircuitBreakerThreshold,
			SuccessThreshold: 1,
			Timeout:          cfg.Reliability.CircuitBreakerTimeout,
			OnStateChange: func(_, to clients.CircuitState) {
				collector.SetCircuitOpen(to == clients.StateOpen)
			},
		}, bc.logger)
		collector.SetCircuitOpen(false)
	}

	if cfg.Reliability.IsRateLimited() {
		bc.rateLimiter = clients.NewRateLimiter(
			float64(cfg.Reliability.RateLimitPerSec),
			cfg.Reliability.RateLimitBurst,
		)
	}

	bc.healthChecker = NewHealthChecker(bc.name, bc.logger)
	bc.progressReporter = NewProgressReporter(bc.logger, bc.metricsCollector)

	bc.logger.Info("connector initialized",
		zap.String("type", string(bc.connectorType)),
		zap.String("version", bc.version),
		zap.Bool("circuit_breaker", bc.circuitBreaker != nil),
		zap.Bool("rate_limited", bc.rateLimiter != nil))

	return nil
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// Version returns the connector version
func (bc *BaseConnector) Version() string {
	return bc.version
}

// Health returns an error when the connector is closed or the last
// recorded check failed
func (bc *BaseConnector) Health(_ context.Context) error {
	if bc.IsClosed() {
		return errors.New(errors.ErrorTypeConnection, "connector is closed")
	}
	if bc.healthChecker == nil {
		return errors.New(errors.ErrorTypeConfig, "connector is not initialized")
	}

	status := bc.healthChecker.GetStatus()
	if status.Status == StatusUnhealthy {
		return errors.Wrap(status.Error, errors.ErrorTypeConnection, "health check failed")
	}
	return nil
}

// Metrics returns current metrics
func (bc *BaseConnector) Metrics() map[string]interface{} {
	m := map[string]interface{}{}
	if bc.metricsCollector != nil {
		m = bc.metricsCollector.GetAll()
		m["uptime"] = time.Since(bc.metricsCollector.StartTime()).Seconds()
	}

	m["name"] = bc.name
	m["type"] = bc.connectorType
	m["version"] = bc.version

	if bc.circuitBreaker != nil {
		cbState := bc.circuitBreaker.GetState()
		m["circuit_breaker_state"] = cbState.State
		m["circuit_breaker_failure_rate"] = cbState.FailureRate
		m["circuit_breaker_rejected"] = cbState.RejectedRequests
	}

	if bc.rateLimiter != nil {
		rlStats := bc.rateLimiter.GetStats()
		m["rate_limit"] = rlStats.Rate
		m["rate_limit_burst"] = rlStats.Burst
		m["rate_limiter_allowed"] = rlStats.AllowedRequests
		m["rate_limiter_blocked"] = rlStats.BlockedRequests
	}

	if bc.healthChecker != nil {
		status := bc.healthChecker.GetStatus()
		m["health_status"] = status.Status
		m["health_check_count"] = bc.healthChecker.CheckCount()
		m["health_failure_count"] = bc.healthChecker.FailureCount()
	}

	if bc.progressReporter != nil {
		snap := bc.progressReporter.GetSnapshot()
		m["datasets_completed"] = snap.Completed
		m["datasets_total"] = snap.Total
	}

	return m
}

// Close shuts down the connector. It is safe to call more than once.
func (bc *BaseConnector) Close(_ context.Context) error {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()

	if bc.closed {
		return nil
	}

	bc.closed = true
	bc.logger.Info("connector closed")
	return nil
}

// IsClosed reports whether Close was called
func (bc *BaseConnector) IsClosed() bool {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()
	return bc.closed
}

// ExecuteWithCircuitBreaker executes fn with circuit breaker protection.
// If the circuit is open, fn is not called and a Connection error is
// returned. Without a breaker fn is called directly.
func (bc *BaseConnector) ExecuteWithCircuitBreaker(fn func() error) error {
	if bc.circuitBreaker == nil {
		return fn()
	}
	return bc.circuitBreaker.Execute(fn)
}

// RateLimit enforces the configured rate limit, blocking if necessary.
// Returns immediately if no rate limiter is configured.
func (bc *BaseConnector) RateLimit(ctx context.Context) error {
	if bc.rateLimiter == nil {
		return nil
	}
	return bc.rateLimiter.Wait(ctx)
}

// UpdateHealth records the outcome of a reachability check
func (bc *BaseConnector) UpdateHealth(err error, details map[string]interface{}) {
	if bc.healthChecker != nil {
		bc.healthChecker.Record(err, details)
	}
}

// IsHealthy returns true if the connector is open and its last check passed
func (bc *BaseConnector) IsHealthy() bool {
	if bc.IsClosed() || bc.healthChecker == nil {
		return false
	}
	return bc.healthChecker.IsHealthy()
}

// GetLogger returns the connector logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetConfig returns the connector configuration
func (bc *BaseConnector) GetConfig() *config.BaseConfig {
	return bc.config
}

// GetCircuitBreaker returns the circuit breaker, nil when disabled
func (bc *BaseConnector) GetCircuitBreaker() *clients.CircuitBreaker {
	return bc.circuitBreaker
}

// GetRateLimiter returns the rate limiter, nil when unlimited
func (bc *BaseConnector) GetRateLimiter() clients.RateLimiter {
	return bc.rateLimiter
}

// GetMetricsCollector returns the metrics collector
func (bc *BaseConnector) GetMetricsCollector() *metrics.Collector {
	return bc.metricsCollector
}

// GetProgressReporter returns the progress reporter
func (bc *BaseConnector) GetProgressReporter() *ProgressReporter {
	return bc.progressReporter
}
