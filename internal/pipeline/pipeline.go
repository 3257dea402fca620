// Package pipeline drains a dataset stream into a destination and reports
// the outcome of every dataset.
//
// # Basic Usage
//
//	stream, err := source.ProcessSource(ctx, opts, files, nil)
//	if err != nil {
//	    return err
//	}
//	report, err := pipeline.Run(ctx, stream, destination, logger)
//
// Failed emissions are recorded in the report and do not stop the run. Run
// returns an error when the destination fails or when every dataset failed.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// DatasetResult is the outcome of one emission
type DatasetResult struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	// Err is the source error of a failed emission
	Err error `json:"-"`
	// Error mirrors Err for JSON output
	Error string `json:"error,omitempty"`
}

// Report summarizes one run
type Report struct {
	Datasets  []DatasetResult `json:"datasets"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Rows      int64           `json:"rows"`
	Duration  time.Duration   `json:"duration"`
}

// Fields returns the report as log fields
func (r *Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("datasets", len(r.Datasets)),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Int64("rows", r.Rows),
		zap.Duration("duration", r.Duration),
	}
}

// Run writes every successful emission of stream to dest, in emission
// order. The report is returned even when Run fails.
func Run(ctx context.Context, stream *core.DatasetStream, dest core.Destination, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stream == nil || dest == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "stream and destination are required")
	}

	report := &Report{}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	logger = logger.With(zap.String("destination", dest.Name()))
	logger.Info("starting pipeline")

	for {
		var (
			e  core.Emission
			ok bool
		)
		select {
		case <-ctx.Done():
			drain(stream)
			return report, errors.Wrap(ctx.Err(), errors.ErrorTypeCanceled, "pipeline canceled")
		case e, ok = <-stream.Emissions:
		}
		if !ok {
			break
		}

		result := DatasetResult{Index: e.Index, Name: e.Name}
		if e.Failed() {
			result.Err = e.Err
			result.Error = e.Err.Error()
			report.Failed++
			report.Datasets = append(report.Datasets, result)
			logger.Warn("dataset failed", zap.String("dataset", e.Name), zap.Error(e.Err))
			continue
		}

		result.Rows = e.Dataset.RowCount()
		if err := dest.Write(ctx, e.Dataset); err != nil {
			drain(stream)
			return report, errors.Wrap(err, errors.GetType(err), "destination write failed").
				WithDetail("dataset", e.Name)
		}
		report.Succeeded++
		report.Rows += int64(result.Rows)
		report.Datasets = append(report.Datasets, result)
		logger.Debug("dataset written", zap.String("dataset", e.Name), zap.Int("rows", result.Rows))
	}

	report.Duration = time.Since(start)
	logger.Info("pipeline completed", report.Fields()...)

	if report.Succeeded == 0 && report.Failed > 0 {
		return report, errors.New(errors.ErrorTypeData, "every dataset failed").
			WithDetail("failed", report.Failed)
	}
	return report, nil
}

// drain discards the rest of the stream so the producer can finish
func drain(stream *core.DatasetStream) {
	go func() {
		for range stream.Emissions {
		}
	}()
}
