// Package config provides the unified configuration system for the connector.
// It defines a single BaseConfig structure that the source and every
// destination use, so the CLI and the host options map onto one shape.
//
// The configuration is organized into logical sections:
//   - Performance: concurrency and emission buffering
//   - Timeouts: per-request and connection-probe deadlines
//   - Reliability: fail-fast mode, circuit breaker, rate limiting
//   - Security: TLS settings and the credentials/options map
//   - Observability: metrics, tracing, logging
//   - Advanced: output compression
//
// Example usage:
//
//	cfg := config.NewBaseConfig("opendota", "source")
//	cfg.Performance.MaxConcurrency = 4
//	cfg.Reliability.FailFast = true
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"time"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// BaseConfig is the single unified configuration structure used by every
// connector. Connector-specific configs embed it with the yaml inline tag.
type BaseConfig struct {
	// Name identifies the connector instance
	Name string `yaml:"name" json:"name"`
	// Type specifies the connector type (e.g., "opendota", "json", "csv")
	Type string `yaml:"type" json:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	Performance   PerformanceConfig   `yaml:"performance" json:"performance"`
	Timeouts      TimeoutConfig       `yaml:"timeouts" json:"timeouts"`
	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Advanced      AdvancedConfig      `yaml:"advanced" json:"advanced"`
}

// PerformanceConfig contains concurrency settings.
type PerformanceConfig struct {
	// MaxConcurrency limits concurrent upstream requests (1 = sequential)
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
	// BufferSize sets the capacity of the emission channel
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Request bounds every upstream GET
	Request time.Duration `yaml:"request" json:"request"`
	// Connection bounds the reachability probe
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Idle timeout before closing inactive connections
	Idle time.Duration `yaml:"idle" json:"idle"`
	// KeepAlive interval for TCP keep-alive probes
	KeepAlive time.Duration `yaml:"keep_alive" json:"keep_alive"`
}

// ReliabilityConfig contains error handling settings.
type ReliabilityConfig struct {
	// FailFast stops emitting after the first failed dataset
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
	// CircuitBreaker enables the circuit breaker around upstream calls
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	// CircuitBreakerThreshold is the failure count that opens the breaker
	CircuitBreakerThreshold int `yaml:"circuit_breaker_threshold" json:"circuit_breaker_threshold"`
	// CircuitBreakerTimeout is how long the breaker stays open
	CircuitBreakerTimeout time.Duration `yaml:"circuit_breaker_timeout" json:"circuit_breaker_timeout"`
	// RateLimitPerSec limits requests per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	// RateLimitBurst allows short bursts above the steady rate
	RateLimitBurst int `yaml:"rate_limit_burst" json:"rate_limit_burst"`
	// SkipSchemaCheck disables the conformance check at emission
	SkipSchemaCheck bool `yaml:"skip_schema_check" json:"skip_schema_check"`
}

// SecurityConfig contains TLS settings and the credentials map.
type SecurityConfig struct {
	// TLSSkipVerify disables certificate verification (insecure)
	TLSSkipVerify bool `yaml:"tls_skip_verify" json:"tls_skip_verify"`
	// Credentials stores connector options such as base_url or api_key
	// (use ${ENV} substitution for secrets)
	Credentials map[string]string `yaml:"credentials" json:"credentials"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// EnableMetrics activates metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// MetricsFile, when set, receives the metrics in text exposition format
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
	// EnableTracing activates tracing spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFormat selects json or console output
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// AdvancedConfig contains optional output features.
type AdvancedConfig struct {
	// EnableCompression activates output compression
	EnableCompression bool `yaml:"enable_compression" json:"enable_compression"`
	// CompressionAlgorithm selects compression type (gzip, snappy, lz4, zstd)
	CompressionAlgorithm string `yaml:"compression_algorithm" json:"compression_algorithm"`
	// CompressionLevel selects fastest, default or best
	CompressionLevel string `yaml:"compression_level" json:"compression_level"`
}

// NewBaseConfig creates a new BaseConfig with defaults that suit the public
// OpenDota API: sequential requests, 30s request timeout, no rate limit.
//
// Example:
//
//	cfg := config.NewBaseConfig("opendota", "source")
//	cfg.Timeouts.Request = 5 * time.Second
func NewBaseConfig(name, connectorType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    connectorType,
		Version: "1.0.0",
		Performance: PerformanceConfig{
			MaxConcurrency: 1,
			BufferSize:     4,
		},
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Idle:       90 * time.Second,
			KeepAlive:  30 * time.Second,
		},
		Reliability: ReliabilityConfig{
			FailFast:                false,
			CircuitBreaker:          true,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   30 * time.Second,
			RateLimitPerSec:         0,
			RateLimitBurst:          1,
		},
		Security: SecurityConfig{
			Credentials: make(map[string]string),
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 1.0,
			LogLevel:          "info",
			LogFormat:         "json",
		},
		Advanced: AdvancedConfig{
			EnableCompression:    false,
			CompressionAlgorithm: "gzip",
			CompressionLevel:     "default",
		},
	}
}

// Validate checks required fields and value ranges.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}
	if bc.Type == "" {
		return errors.New(errors.ErrorTypeConfig, "type is required")
	}
	if bc.Performance.MaxConcurrency <= 0 {
		return errors.New(errors.ErrorTypeConfig, "max_concurrency must be positive").
			WithDetail("value", bc.Performance.MaxConcurrency)
	}
	if bc.Performance.BufferSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "buffer_size cannot be negative")
	}
	if bc.Timeouts.Request < 0 || bc.Timeouts.Connection < 0 {
		return errors.New(errors.ErrorTypeConfig, "timeouts cannot be negative")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return errors.New(errors.ErrorTypeConfig, "rate_limit_per_sec cannot be negative")
	}
	if bc.Observability.TracingSampleRate < 0 || bc.Observability.TracingSampleRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "tracing_sample_rate must be between 0 and 1")
	}
	return nil
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// HasCredentials returns true if credentials are configured
func (s *SecurityConfig) HasCredentials() bool {
	return len(s.Credentials) > 0
}

// Credential returns the credential for key or def when it is unset or blank
func (s *SecurityConfig) Credential(key, def string) string {
	if v, ok := s.Credentials[key]; ok && v != "" {
		return v
	}
	return def
}

// ApplyOptions merges host-supplied options into the credentials map.
// Options win over values loaded from a file.
func (s *SecurityConfig) ApplyOptions(opts map[string]string) {
	if len(opts) == 0 {
		return
	}
	if s.Credentials == nil {
		s.Credentials = make(map[string]string, len(opts))
	}
	for k, v := range opts {
		s.Credentials[k] = v
	}
}

// IsCompressionEnabled returns true if compression should be used
func (a *AdvancedConfig) IsCompressionEnabled() bool {
	return a.EnableCompression && a.CompressionAlgorithm != "" && a.CompressionAlgorithm != "none"
}

// Clone returns a deep copy so per-run option merges do not leak
func (bc *BaseConfig) Clone() *BaseConfig {
	c := *bc
	c.Security.Credentials = make(map[string]string, len(bc.Security.Credentials))
	for k, v := range bc.Security.Credentials {
		c.Security.Credentials[k] = v
	}
	return &c
}
