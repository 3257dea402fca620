package opendota

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/clients"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
	"github.com/ajitpratap0/opendota-datasource/pkg/logger"
	"github.com/ajitpratap0/opendota-datasource/pkg/metrics"
	"github.com/ajitpratap0/opendota-datasource/pkg/schema"
)

// fetchDataset GETs one endpoint and turns the body into a checked dataset.
// Errors keep their type and carry the dataset and endpoint details.
func (s *OpenDotaSource) fetchDataset(ctx context.Context, cfg *config.OpenDotaSourceConfig, d Dataset) (*core.DatasetSpec, error) {
	rawURL := d.URL(cfg)
	endpoint := clients.RedactURL(rawURL)
	ctx = logger.ContextWithDataset(ctx, d.Name)

	var spec *core.DatasetSpec
	timer := metrics.NewTimer()
	err := s.tracer.TraceDataset(ctx, d.Name, func(ctx context.Context) (int, error) {
		body, err := s.fetchBody(ctx, cfg, rawURL)
		if err != nil {
			return 0, err
		}
		rows, err := rowsFromBody(body, endpoint)
		if err != nil {
			return 0, err
		}
		ds := d.Spec(rows)
		if !cfg.Reliability.SkipSchemaCheck {
			if err := schema.Check(ds); err != nil {
				return len(rows), err
			}
		}
		spec = ds
		return len(rows), nil
	})
	elapsed := timer.Stop()
	s.GetMetricsCollector().ObserveFetch(d.Name, elapsed)

	if err != nil {
		return nil, errors.Wrap(err, errors.GetType(err), "failed to fetch dataset").
			WithDetail("dataset", d.Name).
			WithDetail("endpoint", endpoint)
	}

	logger.FromContext(ctx, s.GetLogger()).Debug("dataset fetched",
		zap.String("endpoint", endpoint),
		zap.Int("rows", spec.RowCount()),
		zap.Duration("duration", elapsed))
	return spec, nil
}

// fetchBody runs one rate limited, breaker protected GET bounded by
// timeouts.request
func (s *OpenDotaSource) fetchBody(ctx context.Context, cfg *config.OpenDotaSourceConfig, rawURL string) (interface{}, error) {
	timeout := cfg.Timeouts.Request
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.RateLimit(ctx); err != nil {
		return nil, err
	}

	var body interface{}
	err := s.ExecuteWithCircuitBreaker(func() error {
		var err error
		body, err = s.client.FetchJSON(ctx, rawURL)
		return err
	})
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeTimeout) {
			return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "request timed out").
				WithDetail("timeout", timeout.String())
		}
		return nil, err
	}
	return body, nil
}

// rowsFromBody maps a decoded body to rows: an array of objects yields one
// row per element, a single object yields one row.
func rowsFromBody(body interface{}, endpoint string) ([]core.Record, error) {
	switch v := body.(type) {
	case []interface{}:
		rows := make([]core.Record, 0, len(v))
		for i, elem := range v {
			obj, ok := elem.(map[string]interface{})
			if !ok {
				return nil, errors.New(errors.ErrorTypeParse, "array element is not a JSON object").
					WithDetail("endpoint", endpoint).
					WithDetail("index", i).
					WithDetail("kind", jsonKind(elem))
			}
			rec, err := core.RecordFromMap(obj)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to convert row").
					WithDetail("endpoint", endpoint).
					WithDetail("index", i)
			}
			rows = append(rows, rec)
		}
		return rows, nil
	case map[string]interface{}:
		rec, err := core.RecordFromMap(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to convert row").
				WithDetail("endpoint", endpoint)
		}
		return []core.Record{rec}, nil
	default:
		return nil, errors.New(errors.ErrorTypeParse, "response body is not a JSON array or object").
			WithDetail("endpoint", endpoint).
			WithDetail("kind", jsonKind(body))
	}
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case json.Number, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
