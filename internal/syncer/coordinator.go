package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

// ErrSyncInFlight is returned when a sync is requested while one runs.
// The running sync is neither cancelled nor queued behind.
var ErrSyncInFlight = errors.New("a synchronization is already in progress")

// State is the coordinator's coarse state.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
)

// Backend is the subset of the gateway the coordinator needs.
type Backend interface {
	PullSync(ctx context.Context, userID int64) (*gateway.SyncResponse, error)
	ListUserTasks(ctx context.Context, userID int64) ([]schedule.Task, error)
	ListDelegatedTasks(ctx context.Context, userID int64) ([]schedule.Task, error)
	ListUserEvents(ctx context.Context, userID int64) ([]schedule.Event, error)
}

// Coordinator runs sync attempts one at a time.
type Coordinator struct {
	backend Backend
	store   *store.Store
	metrics *instrumentation.Metrics
	logger  logging.Logger

	running atomic.Bool

	mu     sync.RWMutex
	last   Outcome
	lastAt time.Time
	hooks  []func(Outcome)
}

// New creates a Coordinator. metrics and logger may be nil.
func New(backend Backend, st *store.Store, metrics *instrumentation.Metrics, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Coordinator{backend: backend, store: st, metrics: metrics, logger: logger}
}

// OnOutcome registers fn to be called with every outcome, after the store
// has been updated.
func (c *Coordinator) OnOutcome(fn func(Outcome)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// State reports whether a sync is running.
func (c *Coordinator) State() State {
	if c.running.Load() {
		return StateSyncing
	}
	return StateIdle
}

// LastOutcome returns the most recent outcome and when it was produced. It
// returns nil before the first sync.
func (c *Coordinator) LastOutcome() (Outcome, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.lastAt
}

// Sync runs one sync attempt for user. It returns ErrSyncInFlight without
// side effects while another attempt runs. Every other call produces
// exactly one Outcome.
func (c *Coordinator) Sync(ctx context.Context, user schedule.User) (Outcome, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInFlight
	}
	defer c.running.Store(false)

	ctx, span := instrumentation.StartSpan(ctx, "sync.pull")
	defer span.End()

	start := time.Now()
	resp, err := c.backend.PullSync(ctx, user.ID)
	outcome := Classify(resp, err)

	switch o := outcome.(type) {
	case Success:
		pulled, rerr := c.Repull(ctx, user)
		if rerr != nil {
			c.logger.Warn("sync succeeded but reloading failed", logging.Err(rerr))
			o.RefreshErr = rerr
		}
		if o.SyncedCount < 0 {
			o.SyncedCount = pulled
		}
		outcome = o
		instrumentation.SetSpanSuccess(span)
	case ConflictsDetected:
		for _, sk := range o.Skipped {
			c.logger.Warn("skipped malformed conflict", "index", sk.Index, logging.Err(sk.Err))
		}
		if o.ReportedCount >= 0 && o.ReportedCount != o.Count {
			c.logger.Warn("conflict count disagrees with conflict list, using the list",
				"reported", o.ReportedCount, "listed", o.Count)
		}
		instrumentation.AddSpanEvent(span, "conflicts.detected",
			attribute.Int("conflicts", o.Count))
		instrumentation.SetSpanSuccess(span)
	default:
		instrumentation.SetSpanError(span, fmt.Errorf("sync %s", outcome.Name()))
	}

	duration := time.Since(start)
	synced := 0
	if s, ok := outcome.(Success); ok {
		synced = s.SyncedCount
	}
	c.metrics.RecordSyncAttempt(ctx, outcome.Name(), synced, duration)
	c.logger.Info("sync finished", "outcome", outcome.Name(), logging.UserHash(user.Username),
		logging.Duration(duration))

	c.mu.Lock()
	c.last = outcome
	c.lastAt = time.Now()
	hooks := append([]func(Outcome){}, c.hooks...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(outcome)
	}
	return outcome, nil
}

// Repull reloads the user's tasks (own and delegated) and events in
// parallel and merges them into the store. It returns the number of events
// pulled. Nothing is merged unless every request succeeded.
func (c *Coordinator) Repull(ctx context.Context, user schedule.User) (int, error) {
	var own, delegated []schedule.Task
	var events []schedule.Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		own, err = c.backend.ListUserTasks(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		delegated, err = c.backend.ListDelegatedTasks(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = c.backend.ListUserEvents(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to reload collections: %w", err)
	}

	// the lists cover every task the user created or is assigned; anything
	// else in the store came from a team load
	c.store.Replace(store.Delta{
		Tasks:  MergeTasks(own, delegated),
		Events: events,
	}, func(t schedule.Task) bool {
		return t.CreatorID != user.ID && !t.AssignedTo(user.ID)
	})
	return len(events), nil
}

// MergeTasks joins task lists by id. A later occurrence replaces an earlier
// one in place.
func MergeTasks(lists ...[]schedule.Task) []schedule.Task {
	index := make(map[int64]int)
	var out []schedule.Task
	for _, list := range lists {
		for _, t := range list {
			if i, ok := index[t.ID]; ok {
				out[i] = t
				continue
			}
			index[t.ID] = len(out)
			out = append(out, t)
		}
	}
	return out
}
