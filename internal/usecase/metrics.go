package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "tokentrim/internal/usecase"

// pipelineMetrics holds the instruments recorded once per compression run.
type pipelineMetrics struct {
	operations  metric.Int64Counter
	tokensSaved metric.Int64Counter
	duration    metric.Float64Histogram
}

func newPipelineMetrics(logger *zap.Logger) *pipelineMetrics {
	meter := otel.Meter(instrumentationName)
	m := &pipelineMetrics{}

	var err error
	m.operations, err = meter.Int64Counter(
		"tokentrim.compress.operations_total",
		metric.WithDescription("Total compression pipeline runs, labeled by language and best level"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		logger.Warn("failed to create operations counter", zap.Error(err))
	}

	m.tokensSaved, err = meter.Int64Counter(
		"tokentrim.compress.tokens_saved_total",
		metric.WithDescription("Estimated tokens removed by the best compression level"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		logger.Warn("failed to create tokens saved counter", zap.Error(err))
	}

	m.duration, err = meter.Float64Histogram(
		"tokentrim.compress.duration_seconds",
		metric.WithDescription("Time spent in one compression pipeline run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0),
	)
	if err != nil {
		logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	return m
}

func (m *pipelineMetrics) record(ctx context.Context, language, level string, saved int, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("best_level", level),
	)
	if m.operations != nil {
		m.operations.Add(ctx, 1, attrs)
	}
	if m.tokensSaved != nil && saved > 0 {
		m.tokensSaved.Add(ctx, int64(saved), attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, seconds, attrs)
	}
}
