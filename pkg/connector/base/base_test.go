package base

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/metrics"
)

func newInitialized(t *testing.T, name string, mutate func(*config.BaseConfig)) (*BaseConnector, *observer.ObservedLogs) {
	t.Helper()
	obsCore, logs := observer.New(zap.DebugLevel)

	cfg := config.NewBaseConfig(name, "source")
	if mutate != nil {
		mutate(cfg)
	}
	bc := NewBaseConnector(name, "source", "1.0.0")
	bc.SetLogger(zap.New(obsCore))
	require.NoError(t, bc.Initialize(context.Background(), cfg))
	return bc, logs
}

func TestInitialize(t *testing.T) {
	bc, logs := newInitialized(t, "base-init", nil)

	assert.Equal(t, "base-init", bc.Name())
	assert.Equal(t, core.ConnectorTypeSource, bc.Type())
	assert.Equal(t, "1.0.0", bc.Version())
	assert.NotNil(t, bc.GetCircuitBreaker())
	assert.Nil(t, bc.GetRateLimiter())
	assert.NotNil(t, bc.GetMetricsCollector())
	assert.NotNil(t, bc.GetProgressReporter())

	entries := logs.FilterMessage("connector initialized").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "base-init", entries[0].ContextMap()["connector"])
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	bc := NewBaseConnector("bad", "source", "1.0.0")
	err := bc.Initialize(context.Background(), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	cfg := config.NewBaseConfig("bad", "source")
	cfg.Performance.MaxConcurrency = 0
	err = bc.Initialize(context.Background(), cfg)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCircuitBreakerDisabled(t *testing.T) {
	bc, _ := newInitialized(t, "base-nocb", func(c *config.BaseConfig) {
		c.Reliability.CircuitBreaker = false
		c.Reliability.RateLimitPerSec = 10
		c.Reliability.RateLimitBurst = 2
	})
	assert.Nil(t, bc.GetCircuitBreaker())
	require.NotNil(t, bc.GetRateLimiter())
	assert.NoError(t, bc.RateLimit(context.Background()))

	netErr := errors.New(errors.ErrorTypeNetwork, "down")
	for i := 0; i < 10; i++ {
		assert.Equal(t, netErr, bc.ExecuteWithCircuitBreaker(func() error { return netErr }))
	}
	assert.Equal(t, 2, bc.Metrics()["rate_limit_burst"])
}

func TestCircuitBreakerOpensAndPublishesGauge(t *testing.T) {
	bc, _ := newInitialized(t, "base-cb", func(c *config.BaseConfig) {
		c.Reliability.CircuitBreakerThreshold = 2
	})

	gauge := metrics.CircuitBreakerOpen.WithLabelValues("base-cb")
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))

	netErr := errors.New(errors.ErrorTypeTimeout, "slow")
	_ = bc.ExecuteWithCircuitBreaker(func() error { return netErr })
	_ = bc.ExecuteWithCircuitBreaker(func() error { return netErr })
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))

	called := false
	err := bc.ExecuteWithCircuitBreaker(func() error { called = true; return nil })
	assert.False(t, called)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Equal(t, "open", bc.Metrics()["circuit_breaker_state"])
}

func TestHealth(t *testing.T) {
	bc, _ := newInitialized(t, "base-health", nil)
	ctx := context.Background()

	assert.NoError(t, bc.Health(ctx), "unknown is not unhealthy")
	assert.False(t, bc.IsHealthy())

	bc.UpdateHealth(nil, map[string]interface{}{"endpoint": "/heroes"})
	assert.True(t, bc.IsHealthy())
	assert.NoError(t, bc.Health(ctx))

	probeErr := errors.New(errors.ErrorTypeNetwork, "refused")
	bc.UpdateHealth(probeErr, nil)
	assert.Equal(t, StatusDegraded, bc.Metrics()["health_status"])
	assert.NoError(t, bc.Health(ctx))

	bc.UpdateHealth(probeErr, nil)
	bc.UpdateHealth(probeErr, nil)
	err := bc.Health(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, probeErr)
	assert.Equal(t, int64(4), bc.Metrics()["health_check_count"])
	assert.Equal(t, int64(3), bc.Metrics()["health_failure_count"])

	require.NoError(t, bc.Close(ctx))
	require.NoError(t, bc.Close(ctx))
	assert.True(t, errors.IsType(bc.Health(ctx), errors.ErrorTypeConnection))
	assert.False(t, bc.IsHealthy())
}

func TestHealthUnknownThenFailureIsUnhealthy(t *testing.T) {
	hc := NewHealthChecker("x", nil)
	assert.Equal(t, StatusUnknown, hc.GetStatus().Status)
	hc.Record(errors.New(errors.ErrorTypeNetwork, "refused"), nil)
	status := hc.GetStatus()
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, "network: refused", status.Details["last_error"])
	assert.Equal(t, 1, status.Details["consecutive_failures"])
}

func TestProgressReporter(t *testing.T) {
	coreLogs, logs := observer.New(zap.InfoLevel)
	collector := metrics.NewCollector("base-progress")
	pr := NewProgressReporter(zap.New(coreLogs), collector)

	pr.Start(3)
	pr.DatasetDone("heroes", 2, nil)
	pr.DatasetDone("heroStats", 0, errors.New(errors.ErrorTypeParse, "bad"))
	pr.DatasetSkipped("pro_matches")

	snap := pr.GetSnapshot()
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, int64(2), snap.Rows)
	assert.InDelta(t, 66.6, snap.Percentage, 0.1)

	pr.Finish()
	entries := logs.FilterMessage("processing completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["datasets"])
	assert.Equal(t, int64(1), entries[0].ContextMap()["skipped"])

	pr.Start(2)
	assert.Zero(t, pr.GetSnapshot().Skipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetsEmitted.WithLabelValues("base-progress", "pro_matches", metrics.StatusSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsEmitted.WithLabelValues("base-progress", "heroes")))
	all := collector.GetAll()
	assert.Equal(t, int64(1), all["datasets_failed"])
}
