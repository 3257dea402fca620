package base

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/metrics"
)

// ProgressReporter tracks the datasets of one run and logs a summary when
// the run finishes
type ProgressReporter struct {
	logger           *zap.Logger
	metricsCollector *metrics.Collector

	mu        sync.Mutex
	total     int
	completed int
	failed    int
	skipped   int
	rows      int64
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(logger *zap.Logger, collector *metrics.Collector) *ProgressReporter {
	return &ProgressReporter{
		logger:           logger,
		metricsCollector: collector,
		startTime:        time.Now(),
	}
}

// Start resets the counters for a run of total datasets
func (pr *ProgressReporter) Start(total int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.total = total
	pr.completed = 0
	pr.failed = 0
	pr.skipped = 0
	pr.rows = 0
	pr.startTime = time.Now()
}

// DatasetDone records one emitted dataset
func (pr *ProgressReporter) DatasetDone(dataset string, rows int, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailed
	}
	if pr.metricsCollector != nil {
		pr.metricsCollector.RecordEmission(dataset, status, rows)
	}

	pr.mu.Lock()
	pr.completed++
	if err != nil {
		pr.failed++
	} else {
		pr.rows += int64(rows)
	}
	completed, total := pr.completed, pr.total
	pr.mu.Unlock()

	pr.logger.Debug("dataset emitted",
		zap.String("dataset", dataset),
		zap.String("status", status),
		zap.Int("rows", rows),
		zap.Int("completed", completed),
		zap.Int("total", total))
}

// DatasetSkipped records a dataset that was never fetched because the run
// stopped early
func (pr *ProgressReporter) DatasetSkipped(dataset string) {
	if pr.metricsCollector != nil {
		pr.metricsCollector.RecordEmission(dataset, metrics.StatusSkipped, 0)
	}

	pr.mu.Lock()
	pr.skipped++
	pr.mu.Unlock()

	pr.logger.Debug("dataset skipped", zap.String("dataset", dataset))
}

// Finish logs the run summary
func (pr *ProgressReporter) Finish() {
	snap := pr.GetSnapshot()
	pr.logger.Info("processing completed",
		zap.Int("datasets", snap.Completed),
		zap.Int("expected", snap.Total),
		zap.Int("failed", snap.Failed),
		zap.Int("skipped", snap.Skipped),
		zap.Int64("rows", snap.Rows),
		zap.Duration("total_time", snap.ElapsedTime))
}

// ProgressSnapshot represents a point-in-time progress snapshot
type ProgressSnapshot struct {
	Timestamp   time.Time
	Total       int
	Completed   int
	Failed      int
	Skipped     int
	Rows        int64
	Percentage  float64
	ElapsedTime time.Duration
}

// GetSnapshot returns a progress snapshot
func (pr *ProgressReporter) GetSnapshot() *ProgressSnapshot {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	snapshot := &ProgressSnapshot{
		Timestamp:   time.Now(),
		Total:       pr.total,
		Completed:   pr.completed,
		Failed:      pr.failed,
		Skipped:     pr.skipped,
		Rows:        pr.rows,
		ElapsedTime: time.Since(pr.startTime),
	}
	if pr.total > 0 {
		snapshot.Percentage = float64(pr.completed) / float64(pr.total) * 100
	}
	return snapshot
}
