package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installTestTelemetry(t *testing.T) (*sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()
	prevMeter, prevTracer := otel.GetMeterProvider(), otel.GetTracerProvider()

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	t.Cleanup(func() {
		otel.SetMeterProvider(prevMeter)
		otel.SetTracerProvider(prevTracer)
	})
	return reader, recorder
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestCompress_RecordsTelemetry(t *testing.T) {
	reader, recorder := installTestTelemetry(t)
	uc := newTestCompressUseCase(nil)

	r := uc.Compress(context.Background(), CompressInput{Text: repeatedPython, Filename: "config.py"})
	uc.Compress(context.Background(), CompressInput{Text: repeatedPython, Filename: "config.py"})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	ops, ok := findMetric(rm, "tokentrim.compress.operations_total")
	require.True(t, ok)
	sum, ok := ops.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	lang, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("language"))
	assert.Equal(t, "Python", lang.AsString())

	saved, ok := findMetric(rm, "tokentrim.compress.tokens_saved_total")
	require.True(t, ok)
	savedSum := saved.Data.(metricdata.Sum[int64])
	require.Len(t, savedSum.DataPoints, 1)
	assert.Equal(t, int64(2*(r.OriginalTokens-r.BestTokens)), savedSum.DataPoints[0].Value)

	_, ok = findMetric(rm, "tokentrim.compress.duration_seconds")
	assert.True(t, ok)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "tokentrim.compress", spans[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "config.py", attrs["filename"].AsString())
	assert.Equal(t, r.BestLevel, attrs["best_level"].AsString())
	assert.Equal(t, int64(r.BestTokens), attrs["best_tokens"].AsInt64())
}
