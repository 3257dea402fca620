package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTraceDataset(t *testing.T) {
	recorder := installRecorder(t)
	ct := NewConnectorTracer("source", "opendota")

	err := ct.TraceDataset(context.Background(), "heroes", func(ctx context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)

	fetchErr := errors.New(errors.ErrorTypeNetwork, "down")
	err = ct.TraceDataset(context.Background(), "pro_matches", func(ctx context.Context) (int, error) {
		return 0, fetchErr
	})
	assert.Equal(t, fetchErr, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "source.opendota.fetch", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	rows, ok := attrValue(spans[0].Attributes(), "dataset.rows")
	require.True(t, ok)
	assert.Equal(t, int64(3), rows.AsInt64())
	name, _ := attrValue(spans[0].Attributes(), "dataset.name")
	assert.Equal(t, "heroes", name.AsString())

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1, "error recorded as event")
}

func TestNestedSpansShareTrace(t *testing.T) {
	recorder := installRecorder(t)
	ct := NewConnectorTracer("source", "opendota")

	ctx, run := ct.StartSpan(context.Background(), "process_source")
	_ = ct.TraceDataset(ctx, "heroes", func(context.Context) (int, error) { return 1, nil })
	run.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestInitTracingExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &buf

	shutdown, err := InitTracing(cfg)
	require.NoError(t, err)

	_, span := NewSpan(context.Background(), "probe")
	span.SetAttribute("endpoint", "/heroes")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"probe"`)
	assert.Contains(t, buf.String(), "opendota-datasource")
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfigFromBase(config.NewBaseConfig("opendota", "opendota")))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := NewSpan(context.Background(), "ignored")
	assert.False(t, span.span.SpanContext().IsValid())
	span.End()
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.5).Description(), samplerFor(0.5).Description())
}
