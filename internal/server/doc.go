// Package server holds the MCP server context and the HTTP surfaces of the
// planner.
//
// # Key Components
//
// ServerContext owns the collaborator client, the planner session and the
// optional auto-sync scheduler. Tools reach the session through it.
//
// HTTPServer mounts the streamable-http MCP transport at /mcp together with
// the health endpoints:
//   - /healthz: liveness
//   - /readyz: readiness, failing while shutting down
//   - /healthz/detailed: session counts, sync state and uptime
//
// MetricsServer exposes Prometheus metrics on a separate address. Every
// request to the HTTP server is recorded through MetricsMiddleware when
// instrumentation is enabled.
package server
