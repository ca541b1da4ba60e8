package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
)

// DefaultAutoSyncSpec runs a sync every fifteen minutes.
const DefaultAutoSyncSpec = "@every 15m"

// UserFunc returns the user to sync for, false when no session is active.
type UserFunc func() (schedule.User, bool)

// AutoSync triggers the coordinator on a cron schedule. Ticks that land
// while a sync runs are dropped by the coordinator's guard.
type AutoSync struct {
	coordinator *Coordinator
	user        UserFunc
	logger      *logging.SlogAdapter
	timeout     time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	spec    string
	started bool
}

// NewAutoSync registers a sync job under spec. An empty spec uses
// DefaultAutoSyncSpec. timeout bounds each run; zero means none.
func NewAutoSync(c *Coordinator, user UserFunc, spec string, timeout time.Duration, logger *logging.SlogAdapter) (*AutoSync, error) {
	if spec == "" {
		spec = DefaultAutoSyncSpec
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	a := &AutoSync{
		coordinator: c,
		user:        user,
		logger:      logger,
		timeout:     timeout,
		spec:        spec,
	}
	a.cron = cron.New(
		cron.WithLogger(logger.ForCron()),
		cron.WithChain(cron.Recover(logger.ForCron())),
	)

	entry, err := a.cron.AddFunc(spec, a.run)
	if err != nil {
		return nil, fmt.Errorf("invalid auto-sync schedule %q: %w", spec, err)
	}
	a.entry = entry
	return a, nil
}

// Spec returns the schedule the job runs on.
func (a *AutoSync) Spec() string {
	return a.spec
}

// Next returns the next scheduled run, zero when stopped.
func (a *AutoSync) Next() time.Time {
	return a.cron.Entry(a.entry).Next
}

// Start starts the scheduler in its own goroutine.
func (a *AutoSync) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true
	a.cron.Start()
	a.logger.Info("auto-sync started", "schedule", a.spec)
}

// Stop stops the scheduler and waits for a running job until ctx is done.
func (a *AutoSync) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	a.mu.Unlock()

	done := a.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("auto-sync did not stop in time: %w", ctx.Err())
	}
}

func (a *AutoSync) run() {
	user, ok := a.user()
	if !ok {
		a.logger.Debug("auto-sync skipped, no active session")
		return
	}

	ctx := context.Background()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	outcome, err := a.coordinator.Sync(ctx, user)
	if errors.Is(err, ErrSyncInFlight) {
		a.logger.Debug("auto-sync skipped, sync in progress")
		return
	}
	a.logger.Info("auto-sync finished", "outcome", outcome.Name())
}
