package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/planner/internal/conflicts"
	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/placement"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
	"github.com/teemow/planner/internal/syncer"
	"github.com/teemow/planner/internal/teams"
)

// MessageNotConnected is the page error for a session without a user.
const MessageNotConnected = "You are not connected. Sign in to see your schedule."

// Backend is everything the session reaches through the gateway.
// *gateway.Client satisfies it.
type Backend interface {
	placement.Backend
	teams.Backend
	syncer.Backend
	conflicts.Backend

	ListTeamTasks(ctx context.Context, teamID int64) ([]schedule.Task, error)
	CreateTask(ctx context.Context, userID int64, task schedule.Task) (schedule.Task, error)
	UpdateTask(ctx context.Context, userID int64, task schedule.Task) (schedule.Task, error)
	DeleteTask(ctx context.Context, taskID int64) error
	CreateEvent(ctx context.Context, in schedule.EventInput) (schedule.Event, error)
	ProviderStatus(ctx context.Context, userID int64) schedule.ProviderStatus
	Strategy(ctx context.Context, userID int64) (schedule.Strategy, error)
	SetStrategy(ctx context.Context, userID int64, strategy schedule.Strategy) error
	ActivityStats(ctx context.Context, userID int64, from, to *time.Time) ([]schedule.ActivityStat, error)
}

var _ Backend = (*gateway.Client)(nil)

// Config configures a Session.
type Config struct {
	// UserCacheSize bounds the username lookup cache used by invitations
	UserCacheSize int

	// TransportPreference is sent with events that leave it unset
	TransportPreference *bool

	Metrics *instrumentation.Metrics
	Logger  logging.Logger
}

// Session is one signed-in user's view of the schedule. It owns the entity
// store and wires the placement, team, sync and conflict components to it.
type Session struct {
	backend Backend
	cfg     Config
	logger  logging.Logger
	metrics *instrumentation.Metrics

	store     *store.Store
	view      *teams.View
	placer    *placement.Coordinator
	teams     *teams.Manager
	sync      *syncer.Coordinator
	conflicts *conflicts.Controller

	mu      sync.RWMutex
	user    *schedule.User
	id      string
	pageErr error
	notes   []Notification
}

// New creates an idle session. Begin must be called before any operation.
func New(backend Backend, cfg Config) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	st := store.New()
	view := teams.NewView()
	mgr, err := teams.NewManager(backend, st, view, cfg.UserCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create team manager: %w", err)
	}
	sc := syncer.New(backend, st, cfg.Metrics, logger)

	s := &Session{
		backend:   backend,
		cfg:       cfg,
		logger:    logger,
		metrics:   cfg.Metrics,
		store:     st,
		view:      view,
		placer:    placement.New(backend, st, cfg.Metrics, logger),
		teams:     mgr,
		sync:      sc,
		conflicts: conflicts.New(backend, st, sc, cfg.Metrics, logger),
	}
	sc.OnOutcome(s.handleOutcome)
	return s, nil
}

// Begin signs user in and loads their tasks, events and teams. A failed
// initial load is kept as the page error and the session stays idle.
func (s *Session) Begin(ctx context.Context, user schedule.User) error {
	if user.ID == 0 {
		err := schedule.NewError(schedule.KindAuth, "session.begin", MessageNotConnected)
		s.setPageError(err)
		return err
	}

	ctx, span := instrumentation.StartSpan(ctx, "session.begin")
	defer span.End()

	var own, delegated []schedule.Task
	var events []schedule.Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		own, err = s.backend.ListUserTasks(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		delegated, err = s.backend.ListDelegatedTasks(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.backend.ListUserEvents(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		instrumentation.SetSpanError(span, err)
		s.setPageError(err)
		s.logger.Error("initial load failed", logging.UserHash(user.Username), logging.Err(err))
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	if s.Active() {
		s.End()
	}

	s.store.Reset()
	s.store.Merge(store.Delta{Tasks: syncer.MergeTasks(own, delegated), Events: events})
	s.view.Reset()
	if _, err := s.teams.Refresh(ctx, user); err != nil {
		s.logger.Warn("failed to load teams, continuing without", logging.Err(err))
		s.store.ReplaceTeams(nil)
	}

	s.mu.Lock()
	u := user
	s.user = &u
	s.id = uuid.NewString()
	s.pageErr = nil
	s.notes = nil
	id := s.id
	s.mu.Unlock()

	s.metrics.IncrementActiveSessions(ctx)
	instrumentation.SetSpanSuccess(span)

	tasks, evs, tms := s.store.Counts()
	s.logger.Info("session started", "session", id, logging.UserHash(user.Username),
		"tasks", tasks, "events", evs, "teams", tms)
	return nil
}

// End signs the user out and clears all session state.
func (s *Session) End() {
	s.mu.Lock()
	wasActive := s.user != nil
	s.user = nil
	s.id = ""
	s.pageErr = nil
	s.notes = nil
	s.mu.Unlock()

	s.conflicts.Close()
	s.store.Reset()
	s.view.Reset()

	if wasActive {
		s.metrics.DecrementActiveSessions(context.Background())
	}
}

// Active reports whether a user is signed in.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns the signed-in user.
func (s *Session) User() (schedule.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return schedule.User{}, false
	}
	return *s.user, true
}

// ID returns the session id, empty while idle.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// PageError returns the error that prevented the session from starting.
func (s *Session) PageError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageErr
}

func (s *Session) setPageError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageErr = err
}

// Store exposes the entity store for read access.
func (s *Session) Store() *store.Store {
	return s.store
}

// Conflicts returns the conflict resolution controller.
func (s *Session) Conflicts() *conflicts.Controller {
	return s.conflicts
}

// Syncer returns the sync coordinator.
func (s *Session) Syncer() *syncer.Coordinator {
	return s.sync
}

// requireUser returns the signed-in user or a not-connected error.
func (s *Session) requireUser(op string) (schedule.User, error) {
	u, ok := s.User()
	if !ok {
		return schedule.User{}, schedule.NewError(schedule.KindAuth, op, MessageNotConnected)
	}
	return u, nil
}
