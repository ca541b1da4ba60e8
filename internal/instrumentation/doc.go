// Package instrumentation provides OpenTelemetry instrumentation for the
// planner MCP server.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, backend calls, syncs and tool invocations
//   - Distributed tracing for tool invocations and collaborator backend calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//   - Audit logging of every tool invocation
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active planner sessions
//
// Backend Metrics:
//   - backend_operations_total: Counter of collaborator calls by area, operation, status
//   - backend_operation_duration_seconds: Histogram of collaborator call durations
//
// Sync Metrics:
//   - sync_attempts_total: Counter of sync attempts by outcome
//   - sync_duration_seconds: Histogram of sync durations, re-pull included
//   - sync_synced_events: Histogram of synced event counts
//
// Scheduling Metrics:
//   - placements_total: Counter of task placements by mode (explicit, auto) and status
//   - conflict_resolutions_total: Counter of conflict resolution actions
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for backend
// calls (backend.<area>.<operation>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: planner)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII: audit log behavior
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordBackendOperation(ctx, instrumentation.AreaTasks, instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
//	recorder.RecordSyncAttempt(ctx, instrumentation.OutcomeSuccess, 12, time.Since(start))
package instrumentation
