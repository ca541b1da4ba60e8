package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var instrumentationEnv = []string{
	"OTEL_SERVICE_NAME",
	"INSTRUMENTATION_ENABLED",
	"METRICS_EXPORTER",
	"TRACING_EXPORTER",
	"OTEL_TRACES_SAMPLER_ARG",
	"PROMETHEUS_ENDPOINT",
	"METRICS_DETAILED_LABELS",
	"AUDIT_LOGGING_ENABLED",
	"AUDIT_LOGGING_INCLUDE_PII",
	"AUDIT_LOGGING_LEVEL",
}

func TestDefaultConfig(t *testing.T) {
	for _, key := range instrumentationEnv {
		t.Setenv(key, "")
	}

	config := DefaultConfig()
	assert.Equal(t, "planner", config.ServiceName)
	assert.True(t, config.Enabled)
	assert.Equal(t, ExporterPrometheus, config.MetricsExporter)
	assert.Equal(t, ExporterNone, config.TracingExporter)
	assert.Equal(t, 0.1, config.TraceSamplingRate)
	assert.Equal(t, DefaultPrometheusEndpoint, config.PrometheusEndpoint)
	assert.False(t, config.DetailedLabels)
	assert.Equal(t, AuditLoggingConfig{Enabled: true, LogLevel: "info"}, config.AuditLogging)
	require.NoError(t, config.Validate())
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	for _, key := range instrumentationEnv {
		t.Setenv(key, "")
	}
	t.Setenv("OTEL_SERVICE_NAME", "planner-staging")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("PROMETHEUS_ENDPOINT", "/internal/metrics")
	t.Setenv("METRICS_DETAILED_LABELS", "true")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "yes please")

	config := DefaultConfig()
	assert.Equal(t, "planner-staging", config.ServiceName)
	assert.False(t, config.Enabled)
	assert.Equal(t, ExporterStdout, config.MetricsExporter)
	assert.Equal(t, ExporterStdout, config.TracingExporter)
	assert.Equal(t, 0.5, config.TraceSamplingRate)
	assert.Equal(t, "/internal/metrics", config.PrometheusEndpoint)
	assert.True(t, config.DetailedLabels)
	assert.False(t, config.AuditLogging.IncludePII, "unparsable booleans keep the default")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "prometheus",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "otlp with endpoint",
			config: Config{MetricsExporter: ExporterOTLP, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:   "empty exporters",
			config: Config{},
		},
		{
			name:        "negative sampling rate",
			config:      Config{TraceSamplingRate: -0.5},
			errContains: "sampling rate",
		},
		{
			name:        "sampling rate above 1",
			config:      Config{TraceSamplingRate: 1.5},
			errContains: "sampling rate",
		},
		{
			name:        "unknown metrics exporter",
			config:      Config{MetricsExporter: "statsd"},
			errContains: "invalid metrics exporter",
		},
		{
			name:        "unknown tracing exporter",
			config:      Config{TracingExporter: "jaeger"},
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{TracingExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "relative prometheus endpoint",
			config:      Config{PrometheusEndpoint: "metrics"},
			errContains: "must start with /",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
