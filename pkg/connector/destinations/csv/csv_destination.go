// Package csv writes every emitted dataset to its own CSV file. The header
// follows the declared column order; null values are written as empty
// fields and nested values as their JSON text.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/compression"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/base"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/destinations/compressed"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// KeyDelimiter is the optional single-character field separator credential
const KeyDelimiter = "delimiter"

// CSVDestination writes <dir>/<dataset>.csv per dataset
type CSVDestination struct {
	*base.BaseConnector

	cfg       *config.FileDestinationConfig
	delimiter rune
	algorithm compression.Algorithm
	level     compression.Level

	mu              sync.Mutex
	files           []string
	datasetsWritten int64
	recordsWritten  int64
}

// NewCSVDestination creates a CSV destination from the security.credentials
// keys path and delimiter
func NewCSVDestination(cfg *config.BaseConfig) (core.Destination, error) {
	fileCfg, err := config.NewFileDestinationConfig(cfg, "csv")
	if err != nil {
		return nil, err
	}

	delim := fileCfg.Security.Credential(KeyDelimiter, ",")
	r, size := utf8.DecodeRuneInString(delim)
	if size != len(delim) || r == utf8.RuneError || r == '"' || r == '\n' || r == '\r' {
		return nil, errors.New(errors.ErrorTypeConfig, "delimiter must be a single character").
			WithDetail("delimiter", delim)
	}
	alg, level, err := compressed.Settings(fileCfg)
	if err != nil {
		return nil, err
	}

	d := &CSVDestination{
		BaseConnector: base.NewBaseConnector("csv", core.ConnectorTypeDestination, "1.0.0"),
		cfg:           fileCfg,
		delimiter:     r,
		algorithm:     alg,
		level:         level,
	}
	if err := d.Initialize(context.Background(), cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// Write writes the header and rows of ds, then its schema file
func (d *CSVDestination) Write(ctx context.Context, ds *core.DatasetSpec) error {
	if d.IsClosed() {
		return errors.New(errors.ErrorTypeConnection, "destination is closed")
	}
	if ds == nil {
		return errors.New(errors.ErrorTypeValidation, "dataset is required")
	}

	out, err := compressed.Create(d.cfg.Directory, ds.Name, ".csv", d.algorithm, d.level)
	if err != nil {
		return err
	}

	w := stdcsv.NewWriter(out)
	w.Comma = d.delimiter

	header := ds.ColumnNames()
	if err := w.Write(header); err != nil {
		out.Abort()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write csv header").WithDetail("dataset", ds.Name)
	}

	fields := make([]string, len(header))
	for i, row := range ds.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				out.Abort()
				return errors.Wrap(err, errors.ErrorTypeCanceled, "write canceled").WithDetail("dataset", ds.Name)
			}
		}
		for j, col := range header {
			fields[j] = row[col].String()
		}
		if err := w.Write(fields); err != nil {
			out.Abort()
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write csv row").
				WithDetail("dataset", ds.Name).
				WithDetail("row", i)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Abort()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush csv file").WithDetail("dataset", ds.Name)
	}
	if err := out.Close(); err != nil {
		return err
	}

	files := []string{out.Path()}
	if d.cfg.WriteSchema {
		path, err := compressed.WriteSchema(d.cfg.Directory, ds)
		if err != nil {
			return err
		}
		files = append(files, path)
	}

	d.mu.Lock()
	d.files = append(d.files, files...)
	d.mu.Unlock()
	atomic.AddInt64(&d.datasetsWritten, 1)
	atomic.AddInt64(&d.recordsWritten, int64(ds.RowCount()))

	d.GetLogger().Debug("dataset written",
		zap.String("dataset", ds.Name),
		zap.String("path", out.Path()),
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", len(header)))
	return nil
}

// Files returns the paths written so far
func (d *CSVDestination) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

// Metrics adds the write counters to the base metrics
func (d *CSVDestination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	m["datasets_written"] = atomic.LoadInt64(&d.datasetsWritten)
	m["records_written"] = atomic.LoadInt64(&d.recordsWritten)
	return m
}
