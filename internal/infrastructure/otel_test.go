package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"sharkclean/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelConfigFrom(t *testing.T) {
	tel := config.Default().Telemetry
	tel.Environment = "production"
	tel.TraceExporter = "stdout"
	tel.SampleRatio = 0.25
	tel.MetricsEnabled = false

	cfg := OTelConfigFrom(tel, "1.2.0")
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "1.2.0", cfg.ServiceVersion)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.Equal(t, "none", cfg.MetricExporter)
	assert.Equal(t, tel.ServiceName, cfg.ServiceName)
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider, "default trace exporter is none")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *OTelConfig
		wantErr    bool
		wantTracer bool
		wantMeter  bool
	}{
		{
			name:       "stdout tracing",
			cfg:        &OTelConfig{ServiceName: "t", TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1},
			wantTracer: true,
		},
		{
			name:      "prometheus only",
			cfg:       &OTelConfig{ServiceName: "t", TraceExporter: "none", MetricExporter: "prometheus"},
			wantMeter: true,
		},
		{
			name:    "unknown trace exporter",
			cfg:     &OTelConfig{TraceExporter: "jaeger"},
			wantErr: true,
		},
		{
			name:    "unknown metric exporter",
			cfg:     &OTelConfig{TraceExporter: "none", MetricExporter: "statsd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.Equal(t, tt.wantTracer, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMeter, providers.MeterProvider != nil)
		})
	}
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-operation")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))

	AddSpanEvent(ctx, "cleaning.step", attribute.String("step", "time"), attribute.Int64("changed", 4))
	AddSpanEvent(context.Background(), "dropped")
	RecordError(ctx, assert.AnError)
	assert.True(t, span.IsRecording())
}

func TestBusinessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	RecordJobSubmitted(ctx, metrics, "api")
	RecordJobStarted(ctx, metrics)
	RecordJobFinished(ctx, metrics, "cancelled", 2*time.Second)
	RecordClassified(ctx, metrics, map[string]int{"M": 3, "T": 0})

	// nil metrics are ignored
	RecordJobSubmitted(ctx, nil, "api")
	RecordJobFinished(ctx, nil, "completed", time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = true
	}
	for _, want := range []string{
		"cleaning_jobs_submitted_total",
		"cleaning_jobs_finished_total",
		"cleaning_job_duration_seconds",
		"cleaning_jobs_active",
		"cleaning_job_cancellations_total",
		"time_values_classified_total",
	} {
		assert.True(t, names[want], want)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NoError(t, RegisterSystemMetrics(providers.Meter, time.Now()))

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "runtime_goroutines")
}

func TestCollectSystemStats(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	stats := CollectSystemStats(start)

	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.CPUCount)
	assert.GreaterOrEqual(t, stats.ProcessUptime, time.Minute)
}
