package base

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
)

// Health status values
const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker keeps the health status derived from reachability checks.
// One failed check degrades a healthy connector; three in a row make it
// unhealthy. A connector that never passed a check is unhealthy on its
// first failure.
type HealthChecker struct {
	name             string
	status           *core.HealthStatus
	statusMutex      sync.RWMutex
	logger           *zap.Logger
	checkCount       int64
	failureCount     int64
	consecutiveFails int
}

// NewHealthChecker creates a health checker in the unknown state
func NewHealthChecker(name string, log *zap.Logger) *HealthChecker {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthChecker{
		name: name,
		status: &core.HealthStatus{
			Status:    StatusUnknown,
			Timestamp: time.Now(),
			Details:   make(map[string]interface{}),
		},
		logger: log.With(zap.String("component", "health_checker")),
	}
}

// Record stores the outcome of one check. A nil err marks the connector healthy.
func (hc *HealthChecker) Record(err error, details map[string]interface{}) {
	atomic.AddInt64(&hc.checkCount, 1)

	hc.statusMutex.Lock()
	defer hc.statusMutex.Unlock()

	hc.status.Timestamp = time.Now()

	if err != nil {
		atomic.AddInt64(&hc.failureCount, 1)
		hc.consecutiveFails++

		if hc.consecutiveFails >= 3 || hc.status.Status == StatusUnknown || hc.status.Status == StatusUnhealthy {
			hc.status.Status = StatusUnhealthy
		} else {
			hc.status.Status = StatusDegraded
		}

		hc.status.Error = err
		hc.status.Details["consecutive_failures"] = hc.consecutiveFails
		hc.status.Details["last_error"] = err.Error()

		hc.logger.Warn("health check failed",
			zap.Error(err),
			zap.String("status", hc.status.Status),
			zap.Int("consecutive_failures", hc.consecutiveFails))
	} else {
		hc.consecutiveFails = 0
		hc.status.Status = StatusHealthy
		hc.status.Error = nil
		delete(hc.status.Details, "consecutive_failures")
		delete(hc.status.Details, "last_error")

		hc.logger.Debug("health check passed")
	}

	for k, v := range details {
		hc.status.Details[k] = v
	}
	hc.status.Details["check_count"] = atomic.LoadInt64(&hc.checkCount)
	hc.status.Details["failure_count"] = atomic.LoadInt64(&hc.failureCount)
}

// GetStatus returns a copy of the current health status
func (hc *HealthChecker) GetStatus() *core.HealthStatus {
	hc.statusMutex.RLock()
	defer hc.statusMutex.RUnlock()

	statusCopy := &core.HealthStatus{
		Status:    hc.status.Status,
		Timestamp: hc.status.Timestamp,
		Details:   make(map[string]interface{}, len(hc.status.Details)),
		Error:     hc.status.Error,
	}
	for k, v := range hc.status.Details {
		statusCopy.Details[k] = v
	}
	return statusCopy
}

// CheckCount returns the total number of health checks performed
func (hc *HealthChecker) CheckCount() int64 {
	return atomic.LoadInt64(&hc.checkCount)
}

// FailureCount returns the total number of failed health checks
func (hc *HealthChecker) FailureCount() int64 {
	return atomic.LoadInt64(&hc.failureCount)
}

// IsHealthy returns true if the last check passed
func (hc *HealthChecker) IsHealthy() bool {
	hc.statusMutex.RLock()
	defer hc.statusMutex.RUnlock()
	return hc.status.Status == StatusHealthy
}
