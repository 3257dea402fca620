// Package compressed opens the per-dataset output files of the file
// destinations, compressing them when the configuration asks for it
package compressed

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ajitpratap0/opendota-datasource/pkg/compression"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
)

const bufferSize = 64 * 1024

// Settings resolves the compression algorithm and level of cfg
func Settings(cfg *config.FileDestinationConfig) (compression.Algorithm, compression.Level, error) {
	alg, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return "", 0, err
	}
	level, err := compression.ParseLevel(cfg.Level)
	if err != nil {
		return "", 0, err
	}
	return alg, level, nil
}

// ValidateName rejects dataset names that cannot be used as a file name
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.New(errors.ErrorTypeValidation, "dataset name is not a valid file name").
			WithDetail("dataset", name)
	}
	return nil
}

// Output is one data file. Bytes written through it are buffered, then
// compressed, then written to disk.
type Output struct {
	path       string
	file       *os.File
	compressor io.WriteCloser
	buf        *bufio.Writer
	written    int64
}

// Create opens <dir>/<name><ext> plus the compression suffix, truncating any
// existing file
func Create(dir, name, ext string, alg compression.Algorithm, level compression.Level) (*Output, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
			WithDetail("path", dir)
	}

	path := filepath.Join(dir, name+ext+alg.Extension())
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}

	cw, err := compression.NewWriter(file, alg, level)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, err
	}

	return &Output{
		path:       path,
		file:       file,
		compressor: cw,
		buf:        bufio.NewWriterSize(cw, bufferSize),
	}, nil
}

// Write implements io.Writer
func (o *Output) Write(p []byte) (int, error) {
	n, err := o.buf.Write(p)
	atomic.AddInt64(&o.written, int64(n))
	if err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to write output file").
			WithDetail("path", o.path)
	}
	return n, nil
}

// Path returns the file path including the compression suffix
func (o *Output) Path() string {
	return o.path
}

// BytesWritten returns the uncompressed byte count
func (o *Output) BytesWritten() int64 {
	return atomic.LoadInt64(&o.written)
}

// Close flushes the buffer and the compressor, then closes the file
func (o *Output) Close() error {
	err := o.buf.Flush()
	if cerr := o.compressor.Close(); err == nil {
		err = cerr
	}
	if ferr := o.file.Close(); err == nil {
		err = ferr
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file").
			WithDetail("path", o.path)
	}
	return nil
}

// Abort closes the file and removes it
func (o *Output) Abort() {
	_ = o.compressor.Close()
	_ = o.file.Close()
	_ = os.Remove(o.path)
}

// schemaFile is the layout of <name>.schema.json
type schemaFile struct {
	Name        string            `json:"name"`
	Content     string            `json:"content"`
	RowCount    int               `json:"rowCount"`
	ColumnTypes []core.ColumnType `json:"columnTypes"`
}

// WriteSchema writes the column types of ds to <dir>/<name>.schema.json,
// uncompressed, and returns the path
func WriteSchema(dir string, ds *core.DatasetSpec) (string, error) {
	if err := ValidateName(ds.Name); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(schemaFile{
		Name:        ds.Name,
		Content:     ds.Content,
		RowCount:    ds.RowCount(),
		ColumnTypes: ds.ColumnTypes,
	}, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeData, "failed to encode schema")
	}

	path := filepath.Join(dir, ds.Name+".schema.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to write schema file").
			WithDetail("path", path)
	}
	return path, nil
}
