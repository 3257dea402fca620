// Package opendota implements the OpenDota data source: a fixed catalog of
// API endpoints, each one mapped to a table with hand-declared column types.
package opendota

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/clients"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/base"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/logger"
	"github.com/ajitpratap0/opendota-datasource/pkg/observability"
)

const (
	// ConnectorName is the registry name of the source
	ConnectorName = "opendota"
	// Version of the source
	Version = "1.0.0"
)

// connectionProbePath is a small, unauthenticated endpoint
const connectionProbePath = "/heroes"

// OpenDotaSource fetches the catalog datasets from the OpenDota API
type OpenDotaSource struct {
	*base.BaseConnector

	client *clients.HTTPClient
	tracer *observability.ConnectorTracer
}

// NewOpenDotaSource is the registry factory for the source
func NewOpenDotaSource(cfg *config.BaseConfig) (core.Datasource, error) {
	return New(cfg, nil)
}

// New creates an initialized source. A nil cfg uses the defaults; a nil log
// uses the global logger.
func New(cfg *config.BaseConfig, log *zap.Logger) (*OpenDotaSource, error) {
	if cfg == nil {
		cfg = config.NewBaseConfig(ConnectorName, ConnectorName)
	}
	if _, err := config.NewOpenDotaSourceConfig(cfg); err != nil {
		return nil, err
	}

	s := &OpenDotaSource{
		BaseConnector: base.NewBaseConnector(ConnectorName, core.ConnectorTypeSource, Version),
		tracer:        observability.NewConnectorTracer(string(core.ConnectorTypeSource), ConnectorName),
	}
	s.SetLogger(log)
	if err := s.Initialize(context.Background(), cfg); err != nil {
		return nil, err
	}
	s.client = clients.NewHTTPClient(clients.HTTPConfigFromBase(cfg), s.GetLogger())

	return s, nil
}

// Options declares the connection options shown in the host settings UI
func (s *OpenDotaSource) Options() core.OptionsSchema {
	return core.OptionsSchema{
		config.KeySomeOption: {
			Title:       "Some Option",
			Description: "This object defines how SomeOption should be displayed and configured in the Settings UI",
			Type:        core.OptionTypeString,
		},
	}
}

// GetRunner has no query backend: it always fails with a NotImplemented error
func (s *OpenDotaSource) GetRunner(ctx context.Context, opts core.Options) (core.Runner, error) {
	logger.FromContext(ctx, s.GetLogger()).Debug("get runner",
		zap.String(config.KeySomeOption, opts.Get(config.KeySomeOption, "")))

	return nil, errors.New(errors.ErrorTypeNotImplemented, "getRunner not implemented")
}

// TestConnection probes the API with a GET bounded by timeouts.connection.
// It returns true with a nil error when the API answers with a 2xx status.
func (s *OpenDotaSource) TestConnection(ctx context.Context, opts core.Options) (bool, error) {
	cfg, err := s.resolve(opts)
	if err != nil {
		return false, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "test_connection")
	defer span.End()

	if cfg.Timeouts.Connection > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeouts.Connection)
		defer cancel()
	}

	probe := Dataset{Path: connectionProbePath}
	endpoint := clients.RedactURL(probe.URL(cfg))
	span.SetAttribute("endpoint", endpoint)

	err = s.RateLimit(ctx)
	if err == nil {
		err = s.ExecuteWithCircuitBreaker(func() error {
			return s.client.Probe(ctx, probe.URL(cfg))
		})
	}
	span.RecordResult(err)

	s.UpdateHealth(err, map[string]interface{}{"endpoint": endpoint})
	s.GetMetricsCollector().RecordConnectionTest(err == nil)

	log := logger.FromContext(ctx, s.GetLogger())
	if err != nil {
		log.Warn("connection test failed", zap.String("endpoint", endpoint), zap.Error(err))
		return false, errors.Wrap(err, errors.GetType(err), "connection test failed").
			WithDetail("endpoint", endpoint)
	}
	log.Info("connection test passed", zap.String("endpoint", endpoint))
	return true, nil
}

// Metrics adds the HTTP client statistics to the base metrics
func (s *OpenDotaSource) Metrics() map[string]interface{} {
	m := s.BaseConnector.Metrics()
	stats := s.client.GetStats()
	m["http_requests"] = stats.TotalRequests
	m["http_failed_requests"] = stats.FailedRequests
	m["http_p95_latency_ms"] = stats.P95Latency.Milliseconds()
	return m
}

// Close releases idle connections and closes the connector
func (s *OpenDotaSource) Close(ctx context.Context) error {
	if err := s.client.Close(); err != nil {
		s.GetLogger().Warn("failed to close http client", zap.Error(err))
	}
	return s.BaseConnector.Close(ctx)
}

// knownOptions are the option keys the source reads besides the declared ones
var knownOptions = map[string]bool{
	config.KeyBaseURL:  true,
	config.KeyPlayerID: true,
	config.KeyMatchID:  true,
	config.KeyAPIKey:   true,
	config.KeyDatasets: true,
}

// resolve merges the per-call options into a copy of the connector config
func (s *OpenDotaSource) resolve(opts core.Options) (*config.OpenDotaSourceConfig, error) {
	if s.IsClosed() {
		return nil, errors.New(errors.ErrorTypeConnection, "connector is closed")
	}

	unknown, err := s.Options().Validate(opts)
	if err != nil {
		return nil, err
	}
	for _, key := range unknown {
		if !knownOptions[key] {
			s.GetLogger().Warn("ignoring unknown option", zap.String("option", key))
		}
	}

	cfg := s.GetConfig().Clone()
	cfg.Security.ApplyOptions(opts)
	return config.NewOpenDotaSourceConfig(cfg)
}

var _ core.Datasource = (*OpenDotaSource)(nil)
