// Package json writes every emitted dataset to its own JSON file, either as
// one array or as line-delimited JSON
package json

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/compression"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/base"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/destinations/compressed"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	jsonpool "github.com/ajitpratap0/opendota-datasource/pkg/json"
)

// JSONFormat represents the JSON file format
type JSONFormat string

const (
	// JSONArray represents a file containing a JSON array of objects
	JSONArray JSONFormat = "array"
	// JSONLines represents line-delimited JSON (JSONL/NDJSON)
	JSONLines JSONFormat = "lines"
)

// JSONDestination writes <dir>/<dataset>.json per dataset
type JSONDestination struct {
	*base.BaseConnector

	cfg       *config.FileDestinationConfig
	format    JSONFormat
	algorithm compression.Algorithm
	level     compression.Level
	indent    string

	mu              sync.Mutex
	files           []string
	datasetsWritten int64
	recordsWritten  int64
	bytesWritten    int64
}

// NewJSONDestination creates a JSON destination from the security.credentials
// keys path, format (array or lines) and pretty
func NewJSONDestination(cfg *config.BaseConfig) (core.Destination, error) {
	fileCfg, err := config.NewFileDestinationConfig(cfg, string(JSONArray))
	if err != nil {
		return nil, err
	}

	format := JSONFormat(fileCfg.Format)
	if format != JSONArray && format != JSONLines {
		return nil, errors.New(errors.ErrorTypeConfig, "json format must be array or lines").
			WithDetail("format", fileCfg.Format)
	}
	alg, level, err := compressed.Settings(fileCfg)
	if err != nil {
		return nil, err
	}

	d := &JSONDestination{
		BaseConnector: base.NewBaseConnector("json", core.ConnectorTypeDestination, "1.0.0"),
		cfg:           fileCfg,
		format:        format,
		algorithm:     alg,
		level:         level,
		indent:        fileCfg.Security.Credential("indent", "  "),
	}
	if err := d.Initialize(context.Background(), cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// Write writes the rows of ds, then its schema file
func (d *JSONDestination) Write(ctx context.Context, ds *core.DatasetSpec) error {
	if d.IsClosed() {
		return errors.New(errors.ErrorTypeConnection, "destination is closed")
	}
	if ds == nil {
		return errors.New(errors.ErrorTypeValidation, "dataset is required")
	}

	out, err := compressed.Create(d.cfg.Directory, ds.Name, ".json", d.algorithm, d.level)
	if err != nil {
		return err
	}

	enc := jsonpool.NewStreamingEncoder(out, d.format == JSONArray)
	enc.SetPretty(d.cfg.Pretty, d.indent)
	for i, row := range ds.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				out.Abort()
				return errors.Wrap(err, errors.ErrorTypeCanceled, "write canceled").WithDetail("dataset", ds.Name)
			}
		}
		if err := enc.Encode(row); err != nil {
			out.Abort()
			return errors.Wrap(err, errors.GetType(err), "failed to encode row").
				WithDetail("dataset", ds.Name).
				WithDetail("row", i)
		}
	}
	if err := enc.Close(); err != nil {
		out.Abort()
		return errors.Wrap(err, errors.GetType(err), "failed to finish json file").WithDetail("dataset", ds.Name)
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
	atomic.AddInt64(&d.bytesWritten, out.BytesWritten())

	d.GetLogger().Debug("dataset written",
		zap.String("dataset", ds.Name),
		zap.String("path", out.Path()),
		zap.Int("rows", ds.RowCount()))
	return nil
}

// Files returns the paths written so far
func (d *JSONDestination) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

// Metrics adds the write counters to the base metrics
func (d *JSONDestination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	m["datasets_written"] = atomic.LoadInt64(&d.datasetsWritten)
	m["records_written"] = atomic.LoadInt64(&d.recordsWritten)
	m["bytes_written"] = atomic.LoadInt64(&d.bytesWritten)
	return m
}
