package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelDebug, Format: LogFormatJSON, Output: &buf, ServiceName: "moodlens", ServiceVersion: "test"})

	ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1")
	logger.InfoContext(ctx, "hello", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "moodlens", record["service"])
	assert.Equal(t, "test", record["version"])
	assert.Equal(t, "corr-1", record[CorrelationIDKey])
	assert.Equal(t, "req-1", record[RequestIDKey])
	assert.Equal(t, "v", record["k"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestContextIDs(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "")

	assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricClassifications, 1, T("mood", "happy"), T("source", "cli"))
	m.Counter(MetricClassifications, 2, T("source", "cli"), T("mood", "happy"))
	m.Gauge(MetricBreakerState, 2)
	m.Histogram(MetricConfidence, 0.9)
	m.Timing(MetricOperationDuration, time.Second)

	assert.Equal(t, int64(3), m.GetCounter(MetricClassifications, T("mood", "happy"), T("source", "cli")))
	assert.Equal(t, 2.0, m.GetGauge(MetricBreakerState))
	assert.Equal(t, []float64{0.9}, m.GetHistogram(MetricConfidence))
	assert.Equal(t, []time.Duration{time.Second}, m.GetTimings(MetricOperationDuration))
}

func TestTimer_StopWithError(t *testing.T) {
	m := NewInMemoryMetrics()
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelDebug, Output: &buf})

	StartTimer("journal.create").WithLogger(logger).WithMetrics(m).StopWithError(errors.New("boom"))
	StartTimer("journal.create").WithMetrics(m).Stop()

	tag := T(OperationKey, "journal.create")
	assert.Equal(t, int64(2), m.GetCounter(MetricOperationTotal, tag))
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, tag))
	assert.Contains(t, buf.String(), "operation failed")
}

func TestHealthRegistry(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))
	registry.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error { return errors.New("refused") }))

	report := registry.Check(context.Background())

	assert.Equal(t, HealthStatusDegraded, report.Status)
	assert.Equal(t, []string{"database", "redis"}, registry.Names())
	assert.Equal(t, HealthStatusHealthy, report.Checks["database"].Status)
	assert.Contains(t, report.Checks["redis"].Message, "refused")

	registry.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return errors.New("down") }))
	assert.Equal(t, HealthStatusUnhealthy, registry.Check(context.Background()).Status)
}
