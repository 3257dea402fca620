package core

import (
	"context"
	"sort"
	"time"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// Options are the connection options the host passes on every call
type Options map[string]string

// Get returns an option or def when unset
func (o Options) Get(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

// OptionType is the input kind the host renders for an option
type OptionType string

const (
	OptionTypeString  OptionType = "string"
	OptionTypeNumber  OptionType = "number"
	OptionTypeBoolean OptionType = "boolean"
	OptionTypeSelect  OptionType = "select"
)

// OptionSpec declares one connection option for the host settings UI
type OptionSpec struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        OptionType `json:"type"`
	Default     string     `json:"default,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Secret      bool       `json:"secret,omitempty"`
}

// OptionsSchema maps option keys to their declarations
type OptionsSchema map[string]OptionSpec

// Keys returns the option keys in sorted order
func (s OptionsSchema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks opts against the schema: required options must be set.
// It returns the keys of opts the schema does not declare.
func (s OptionsSchema) Validate(opts Options) ([]string, error) {
	for _, key := range s.Keys() {
		if spec := s[key]; spec.Required && opts[key] == "" {
			return nil, errors.New(errors.ErrorTypeValidation, "required option is not set").WithDetail("option", key)
		}
	}
	var unknown []string
	for k := range opts {
		if _, ok := s[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown, nil
}

// SourceFiles enumerates the files of the host source directory
type SourceFiles interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// StaticFiles is an in-memory SourceFiles
type StaticFiles map[string][]byte

// List returns the file names in sorted order
func (f StaticFiles) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// Read returns a file's content
func (f StaticFiles) Read(_ context.Context, name string) ([]byte, error) {
	data, ok := f[name]
	if !ok {
		return nil, errors.New(errors.ErrorTypeNotFound, "source file not found").WithDetail("file", name)
	}
	return data, nil
}

// UtilFuncs carries host helper functions. Connectors may ignore it and it
// may be nil.
type UtilFuncs map[string]interface{}

// Runner answers a single query against a source file
type Runner interface {
	Run(ctx context.Context, query, path string) (*QueryResult, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, query, path string) (*QueryResult, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, query, path string) (*QueryResult, error) {
	return f(ctx, query, path)
}

// Datasource is the interface a host-facing data source implements
type Datasource interface {
	// Metadata
	Name() string
	Version() string

	// Options declares the connection options
	Options() OptionsSchema
	// TestConnection reports whether the upstream is reachable with opts
	TestConnection(ctx context.Context, opts Options) (bool, error)
	// GetRunner returns the simple, one-query-in one-result-out runner
	GetRunner(ctx context.Context, opts Options) (Runner, error)
	// ProcessSource produces every dataset of the source as a stream
	ProcessSource(ctx context.Context, opts Options, files SourceFiles, utils UtilFuncs) (*DatasetStream, error)

	// Health and metrics
	Health(ctx context.Context) error
	Metrics() map[string]interface{}
	Close(ctx context.Context) error
}

// Destination receives finished datasets
type Destination interface {
	Name() string
	Write(ctx context.Context, dataset *DatasetSpec) error
	Close(ctx context.Context) error
}

// HealthStatus represents the health status of a connector
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy", "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
	Error     error                  `json:"-"`
}

// ConnectorMetadata provides metadata about a connector
type ConnectorMetadata struct {
	Name         string        `json:"name"`
	Type         ConnectorType `json:"type"`
	Version      string        `json:"version"`
	Description  string        `json:"description"`
	Capabilities []string      `json:"capabilities"`
}
