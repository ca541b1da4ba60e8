package conflicts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
	"github.com/teemow/planner/internal/syncer"
)

// Backend is the subset of the gateway the controller needs.
type Backend interface {
	UpdateEvent(ctx context.Context, eventID int64, in schedule.EventInput) (schedule.Event, error)
	DeleteEvent(ctx context.Context, eventID int64) error
	StoredConflicts(ctx context.Context, userID int64) ([]schedule.StoredConflict, error)
	ResolveStoredConflict(ctx context.Context, conflictID int64, resolution schedule.Resolution) error
}

// Syncer runs a sync attempt.
type Syncer interface {
	Sync(ctx context.Context, user schedule.User) (syncer.Outcome, error)
}

// Entry is one conflict in the resolution session.
type Entry struct {
	Conflict schedule.Conflict `json:"conflict"`
	Resolved bool              `json:"resolved"`
}

// Progress counts resolved entries. Resolved never exceeds Total.
type Progress struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

// Percent returns the resolved share in 0..100. An empty session is 100.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Resolved) / float64(p.Total) * 100
}

// Complete reports whether every entry is resolved.
func (p Progress) Complete() bool {
	return p.Resolved >= p.Total
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d", p.Resolved, p.Total)
}

// VersionEdit changes one version of a conflict. Nil fields are kept.
type VersionEdit struct {
	Title *string
	Start *time.Time
	End   *time.Time
}

// Controller holds the resolution session opened when a sync reports
// conflicts.
type Controller struct {
	backend Backend
	store   *store.Store
	syncer  Syncer
	metrics *instrumentation.Metrics
	logger  logging.Logger

	mu       sync.Mutex
	open     bool
	entries  []Entry
	inflight map[string]bool
}

// New creates a Controller. metrics and logger may be nil.
func New(backend Backend, st *store.Store, s Syncer, metrics *instrumentation.Metrics, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Controller{
		backend:  backend,
		store:    st,
		syncer:   s,
		metrics:  metrics,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Open starts a session with one entry per conflict, replacing any
// previous session.
func (c *Controller) Open(conflicts []schedule.Conflict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make([]Entry, 0, len(conflicts))
	for _, cf := range conflicts {
		c.entries = append(c.entries, Entry{Conflict: cf})
	}
	c.open = true
	c.inflight = make(map[string]bool)
}

// IsOpen reports whether a session is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close discards the session. Resolution marks are lost.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.entries = nil
	c.inflight = make(map[string]bool)
}

// Entries returns a copy of the session entries in order.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Progress returns the resolved and total counts.
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress()
}

func (c *Controller) progress() Progress {
	p := Progress{Total: len(c.entries)}
	for _, e := range c.entries {
		if e.Resolved {
			p.Resolved++
		}
	}
	return p
}

// MarkResolved marks an entry as acknowledged. It is local bookkeeping
// only and idempotent.
func (c *Controller) MarkResolved(conflictID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(conflictID)
	if i < 0 {
		return notFound("conflicts.mark_resolved", conflictID)
	}
	c.entries[i].Resolved = true
	return nil
}

// AdjustInterval applies a new start and/or end to [start, end). A new
// start moves the end with it to keep the duration. A new end at or before
// the start moves the start back by the original duration. The result must
// satisfy end > start.
func AdjustInterval(start, end time.Time, newStart, newEnd *time.Time) (time.Time, time.Time, error) {
	d := end.Sub(start)
	if newStart != nil {
		start = *newStart
		end = start.Add(d)
	}
	if newEnd != nil {
		end = *newEnd
		if !end.After(start) {
			start = end.Add(-d)
		}
	}
	if !end.After(start) {
		return start, end, schedule.Validation("conflicts.edit", "The end time must be after the start time.")
	}
	return start, end, nil
}

// Edit changes one version of a conflict and persists it through the
// gateway. The cached version and the store are refreshed on success.
func (c *Controller) Edit(ctx context.Context, conflictID string, side schedule.Side, edit VersionEdit) (schedule.ConflictVersion, error) {
	const op = "conflicts.edit"
	entry, release, err := c.acquire(op, conflictID)
	if err != nil {
		return schedule.ConflictVersion{}, err
	}
	defer release()

	v := entry.Conflict.Version(side)
	start, end, err := AdjustInterval(v.Start, v.End, edit.Start, edit.End)
	if err != nil {
		return schedule.ConflictVersion{}, err
	}
	title := v.Title
	if edit.Title != nil {
		title = *edit.Title
	}
	if title == "" {
		return schedule.ConflictVersion{}, schedule.Validation(op, "A title is required.")
	}

	in := schedule.EventInput{}
	if existing, ok := c.store.Event(v.EventID); ok {
		in = schedule.InputFromEvent(existing)
	}
	in.Summary, in.Start, in.End = title, start, end

	updated, err := c.backend.UpdateEvent(ctx, v.EventID, in)
	if err != nil {
		c.metrics.RecordConflictAction(ctx, "edit", instrumentation.StatusError)
		return schedule.ConflictVersion{}, err
	}
	if updated.ID == 0 {
		updated.ID = v.EventID
	}
	updated.Summary, updated.Start, updated.End = title, start, end
	if updated.TaskID == nil {
		updated.TaskID = in.TaskID
	}
	if updated.Source == "" {
		updated.Source = v.Source
	}
	c.store.Merge(store.Delta{Events: []schedule.Event{updated}})

	v.Title, v.Start, v.End = title, start, end

	c.mu.Lock()
	if i := c.indexOf(conflictID); i >= 0 {
		c.entries[i].Conflict.SetVersion(side, v)
	}
	c.mu.Unlock()

	c.metrics.RecordConflictAction(ctx, "edit", instrumentation.StatusSuccess)
	return v, nil
}

// Delete deletes the event behind one version. Exactly one gateway delete
// is issued. On success the whole entry leaves the session, since the
// conflict no longer exists; on failure it is kept.
func (c *Controller) Delete(ctx context.Context, conflictID string, side schedule.Side) error {
	const op = "conflicts.delete"
	entry, release, err := c.acquire(op, conflictID)
	if err != nil {
		return err
	}
	defer release()

	v := entry.Conflict.Version(side)
	if err := c.backend.DeleteEvent(ctx, v.EventID); err != nil {
		c.metrics.RecordConflictAction(ctx, "delete", instrumentation.StatusError)
		return err
	}
	if err := c.store.Remove(store.KindEvent, v.EventID); err != nil {
		c.logger.Warn("failed to drop deleted event from store", logging.Err(err))
	}

	c.mu.Lock()
	if i := c.indexOf(conflictID); i >= 0 {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	}
	c.mu.Unlock()

	c.metrics.RecordConflictAction(ctx, "delete", instrumentation.StatusSuccess)
	return nil
}

// SyncNow closes the session and syncs again. It is only allowed once
// every entry is resolved.
func (c *Controller) SyncNow(ctx context.Context, user schedule.User) (syncer.Outcome, error) {
	c.mu.Lock()
	p := c.progress()
	c.mu.Unlock()
	if !p.Complete() {
		return nil, schedule.Validation("conflicts.sync_now",
			fmt.Sprintf("Resolve all conflicts first (%s), or force the sync.", p))
	}
	return c.resync(ctx, user, "sync_now")
}

// ForceSync closes the session and syncs again regardless of progress.
func (c *Controller) ForceSync(ctx context.Context, user schedule.User) (syncer.Outcome, error) {
	return c.resync(ctx, user, "force_sync")
}

func (c *Controller) resync(ctx context.Context, user schedule.User, action string) (syncer.Outcome, error) {
	c.Close()
	outcome, err := c.syncer.Sync(ctx, user)
	status := instrumentation.StatusSuccess
	if err != nil || outcome == nil || syncer.Failed(outcome) {
		status = instrumentation.StatusError
	}
	c.metrics.RecordConflictAction(ctx, action, status)
	return outcome, err
}

// Stored returns the conflicts the collaborator persisted for the user.
func (c *Controller) Stored(ctx context.Context, user schedule.User) ([]schedule.StoredConflict, error) {
	return c.backend.StoredConflicts(ctx, user.ID)
}

// ResolveStored resolves a persisted conflict.
func (c *Controller) ResolveStored(ctx context.Context, conflictID int64, resolution schedule.Resolution) error {
	err := c.backend.ResolveStoredConflict(ctx, conflictID, resolution)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordConflictAction(ctx, "resolve_stored", status)
	return err
}

// acquire marks a conflict busy for the duration of a network call. A
// second operation on the same conflict fails until release is called.
func (c *Controller) acquire(op, conflictID string) (Entry, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(conflictID)
	if i < 0 {
		return Entry{}, nil, notFound(op, conflictID)
	}
	if c.inflight[conflictID] {
		return Entry{}, nil, schedule.Validation(op, "This conflict is already being updated.")
	}
	c.inflight[conflictID] = true
	inflight := c.inflight

	release := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(inflight, conflictID)
	}
	return c.entries[i], release, nil
}

func (c *Controller) indexOf(conflictID string) int {
	for i, e := range c.entries {
		if e.Conflict.ID == conflictID {
			return i
		}
	}
	return -1
}

func notFound(op, conflictID string) error {
	return schedule.Validation(op, fmt.Sprintf("Conflict %s is not part of the open resolution session.", conflictID))
}
