package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/config"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/resources"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/tools/conflict_tools"
	"github.com/teemow/planner/internal/tools/event_tools"
	"github.com/teemow/planner/internal/tools/session_tools"
	"github.com/teemow/planner/internal/tools/sync_tools"
	"github.com/teemow/planner/internal/tools/task_tools"
	"github.com/teemow/planner/internal/tools/team_tools"
)

// Supported transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string

	// Path is the scrape path, taken from the instrumentation config
	Path string
}

// serveOptions are the serve flags. Empty values leave the environment
// configuration in place.
type serveOptions struct {
	transport string
	httpAddr  string
	debug     bool
	yolo      bool
	apiURL    string
	userID    int64
	username  string
	autoSync  string
	metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide planning tools
for AI assistants: tasks, calendar events, teams, provider sync and conflict
resolution.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (creating tasks, deleting events, syncing, etc.)

Configuration:
  The collaborator API and user are read from the environment (a .env file
  in the working directory is loaded first):
    PLANNER_API_URL, PLANNER_API_TOKEN, PLANNER_USER_ID, PLANNER_USERNAME,
    PLANNER_HTTP_TIMEOUT, PLANNER_AUTO_SYNC, PLANNER_USER_CACHE_SIZE,
    PLANNER_TRANSPORT_PREFERENCE
  Flags override the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (creating, editing and deleting tasks, events and teams; syncing). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "Collaborator API base URL. Overrides PLANNER_API_URL.")
	cmd.Flags().Int64Var(&opts.userID, "user-id", 0, "User to sign in at startup. Overrides PLANNER_USER_ID.")
	cmd.Flags().StringVar(&opts.username, "username", "", "Username of the startup user. Overrides PLANNER_USERNAME.")
	cmd.Flags().StringVar(&opts.autoSync, "auto-sync", "", `Periodic sync schedule as a cron spec (e.g. "@every 15m"), "true" for the default schedule or "false" to disable. Overrides PLANNER_AUTO_SYNC.`)

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts serveOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.userID != 0 {
		cfg.UserID = opts.userID
	}
	if opts.username != "" {
		cfg.Username = opts.username
	}
	if opts.autoSync != "" {
		cfg.AutoSync = opts.autoSync
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// autoSyncEnabled reports whether a periodic sync was requested.
func autoSyncEnabled(cfg config.Config) bool {
	return cfg.AutoSync != "" && cfg.AutoSync != "false"
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout belongs to the protocol on stdio
	logger := logging.NewSlogAdapter(logging.New(os.Stderr, opts.debug))

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Load metrics config from environment if not set via flags
	metricsConfig := opts.metrics
	if !metricsConfig.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		metricsConfig.Enabled = true
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	if opts.transport != TransportStdio && metricsConfig.Enabled && provider.Enabled() {
		metricsConfig.Path = provider.MetricsPath()
		metricsServer, err := startMetricsServer(metricsConfig, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	logger.Info("collaborator configured", "url", cfg.APIURL,
		"token", logging.SanitizeToken(cfg.APIToken), logging.UserHash(cfg.Username))

	serverOpts := server.Options{Config: cfg, Logger: logger, ReadOnly: !opts.yolo}
	if provider.Enabled() {
		serverOpts.Metrics = provider.Metrics()
		serverOpts.AuditLogger = provider.AuditLogger(logger.Logger())
	}
	serverContext, err := server.NewServerContext(shutdownCtx, serverOpts)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	// a failed initial load is reported through the health endpoints and
	// planner_session_begin can retry it
	if err := serverContext.BeginConfiguredSession(shutdownCtx); err != nil {
		logger.Warn("initial session could not be started", logging.Err(err))
	}

	if autoSyncEnabled(cfg) {
		a, err := serverContext.StartAutoSync(cfg.AutoSyncSpec())
		if err != nil {
			return fmt.Errorf("failed to start auto-sync: %w", err)
		}
		logger.Info("auto-sync scheduled", "schedule", a.Spec(), "next", a.Next())
	}

	mcpSrv := mcpserver.NewMCPServer("planner", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	readOnly := !opts.yolo
	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch opts.transport {
	case TransportStdio:
		return runStdioServer(mcpSrv)
	case TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.httpAddr, metricsConfig, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

func startMetricsServer(metricsConfig MetricsConfig, provider *instrumentation.Provider, logger *logging.SlogAdapter) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    metricsConfig.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// toolRegistration is one group of MCP tools.
type toolRegistration struct {
	name     string
	register func(*mcpserver.MCPServer, *server.ServerContext, bool) error
}

var toolRegistrations = []toolRegistration{
	{name: "Session", register: session_tools.RegisterSessionTools},
	{name: "Tasks", register: task_tools.RegisterTaskTools},
	{name: "Events", register: event_tools.RegisterEventTools},
	{name: "Teams", register: team_tools.RegisterTeamTools},
	{name: "Sync", register: sync_tools.RegisterSyncTools},
	{name: "Conflicts", register: conflict_tools.RegisterConflictTools},
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	for _, reg := range toolRegistrations {
		if err := reg.register(mcpSrv, ctx, readOnly); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	if err := resources.RegisterSessionResources(mcpSrv, ctx); err != nil {
		return fmt.Errorf("failed to register session resources: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, addr string, metricsConfig MetricsConfig, logger *logging.SlogAdapter) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, serverContext)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr, ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Streamable HTTP server starting on %s\n", addr)
	fmt.Fprintf(os.Stderr, "  HTTP endpoint: %s\n", server.MCPEndpointPath)
	fmt.Fprintf(os.Stderr, "  Health endpoints: /healthz, /readyz, /healthz/detailed\n")
	if metricsConfig.Enabled {
		fmt.Fprintf(os.Stderr, "  Metrics endpoint: %s%s\n", metricsConfig.Addr, metricsConfig.Path)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
