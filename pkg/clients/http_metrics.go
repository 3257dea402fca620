// Package clients provides HTTP metrics tracking
package clients

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/opendota-datasource/pkg/metrics"
)

// HTTPMetrics tracks request counts and latencies locally and mirrors them
// into the Prometheus registry
type HTTPMetrics struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64

	mu             sync.Mutex
	latencySamples []time.Duration
	sampleIndex    int
	maxSamples     int
	filled         bool
}

// NewHTTPMetrics creates a new HTTP metrics tracker keeping the last 256 samples
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		latencySamples: make([]time.Duration, 256),
		maxSamples:     256,
	}
}

// RecordRequest records one round trip. status is 0 when no response arrived.
// Non-2xx responses count as failed requests.
func (hm *HTTPMetrics) RecordRequest(host string, status int, latency time.Duration, err error) {
	atomic.AddInt64(&hm.totalRequests, 1)
	if err != nil || status < 200 || status > 299 {
		atomic.AddInt64(&hm.failedRequests, 1)
	} else {
		atomic.AddInt64(&hm.successfulRequests, 1)
	}

	metrics.HTTPRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(host).Observe(latency.Seconds())

	hm.mu.Lock()
	hm.latencySamples[hm.sampleIndex] = latency
	hm.sampleIndex = (hm.sampleIndex + 1) % hm.maxSamples
	if hm.sampleIndex == 0 {
		hm.filled = true
	}
	hm.mu.Unlock()
}

func (hm *HTTPMetrics) samples() []time.Duration {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	n := hm.sampleIndex
	if hm.filled {
		n = hm.maxSamples
	}
	out := make([]time.Duration, n)
	copy(out, hm.latencySamples[:n])
	return out
}

// Stats returns a snapshot of the counters and latency percentiles
func (hm *HTTPMetrics) Stats() HTTPStats {
	total := atomic.LoadInt64(&hm.totalRequests)
	failed := atomic.LoadInt64(&hm.failedRequests)

	stats := HTTPStats{
		TotalRequests:      total,
		SuccessfulRequests: atomic.LoadInt64(&hm.successfulRequests),
		FailedRequests:     failed,
	}
	if total > 0 {
		stats.SuccessRate = float64(total-failed) / float64(total) * 100
	}

	samples := hm.samples()
	if len(samples) == 0 {
		return stats
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	var sum time.Duration
	for _, s := range samples {
		sum += s
	}
	stats.AverageLatency = sum / time.Duration(len(samples))
	stats.P95Latency = percentile(samples, 0.95)
	stats.P99Latency = percentile(samples, 0.99)
	return stats
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// HTTPStats represents HTTP client statistics
type HTTPStats struct {
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	SuccessRate        float64       `json:"success_rate"`
	AverageLatency     time.Duration `json:"average_latency"`
	P95Latency         time.Duration `json:"p95_latency"`
	P99Latency         time.Duration `json:"p99_latency"`
}
