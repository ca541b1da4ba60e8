package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/planner/internal/config"
	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/syncer"
)

// DefaultAutoSyncTimeout bounds a scheduled sync when no HTTP timeout is
// configured.
const DefaultAutoSyncTimeout = 2 * time.Minute

// Options configures a ServerContext.
type Options struct {
	Config config.Config

	// Logger is used by every component; nil uses the default logger
	Logger *logging.SlogAdapter

	// Metrics and AuditLogger are optional
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// HTTPClient overrides the collaborator transport (tests)
	HTTPClient *http.Client

	// ReadOnly records that write tools are not registered
	ReadOnly bool
}

// ServerContext holds the collaborator client and the planner session the
// MCP tools operate on.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         config.Config
	client      *gateway.Client
	session     *session.Session
	logger      *logging.SlogAdapter
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	readOnly    bool

	mu       sync.RWMutex
	autoSync *syncer.AutoSync
	shutdown bool
}

// NewServerContext creates the collaborator client and an idle session.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	client, err := gateway.New(shutdownCtx, gateway.Config{
		BaseURL:    opts.Config.APIURL,
		Token:      opts.Config.APIToken,
		Timeout:    opts.Config.HTTPTimeout,
		HTTPClient: opts.HTTPClient,
		Logger:     logger,
		Metrics:    opts.Metrics,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create collaborator client: %w", err)
	}

	sess, err := session.New(client, session.Config{
		UserCacheSize:       opts.Config.UserCacheSize,
		TransportPreference: opts.Config.Transport(),
		Metrics:             opts.Metrics,
		Logger:              logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		cfg:         opts.Config,
		client:      client,
		session:     sess,
		logger:      logger,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		readOnly:    opts.ReadOnly,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the loaded configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Client returns the collaborator client.
func (sc *ServerContext) Client() *gateway.Client {
	return sc.client
}

// Session returns the planner session.
func (sc *ServerContext) Session() *session.Session {
	return sc.session
}

// Logger returns the shared logger.
func (sc *ServerContext) Logger() *logging.SlogAdapter {
	return sc.logger
}

// Metrics returns the metrics recorder, nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, nil when instrumentation is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// ReadOnly reports whether the server runs without write tools.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// BeginConfiguredSession starts a session for the configured user. It is a
// no-op when no user is configured.
func (sc *ServerContext) BeginConfiguredSession(ctx context.Context) error {
	if !sc.cfg.HasUser() {
		return nil
	}
	return sc.session.Begin(ctx, schedule.User{ID: sc.cfg.UserID, Username: sc.cfg.Username})
}

// StartAutoSync schedules periodic syncs for the signed-in user.
func (sc *ServerContext) StartAutoSync(spec string) (*syncer.AutoSync, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server context is shut down")
	}
	if sc.autoSync != nil {
		return sc.autoSync, nil
	}

	timeout := sc.cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultAutoSyncTimeout
	}
	a, err := syncer.NewAutoSync(sc.session.Syncer(), sc.session.AutoSyncUser, spec, timeout, sc.logger)
	if err != nil {
		return nil, err
	}
	a.Start()
	sc.autoSync = a
	return a, nil
}

// AutoSync returns the running auto-sync scheduler, if any.
func (sc *ServerContext) AutoSync() *syncer.AutoSync {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.autoSync
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown stops auto-sync, ends the session and cancels the context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	a := sc.autoSync
	sc.autoSync = nil
	sc.mu.Unlock()

	var errs []error
	if a != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	sc.session.End()
	sc.cancel()
	return errors.Join(errs...)
}
