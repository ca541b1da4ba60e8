package session

import (
	"context"
	"errors"
	"time"

	"github.com/teemow/planner/internal/conflicts"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/syncer"
)

// SyncStatus describes the sync coordinator for display.
type SyncStatus struct {
	State       syncer.State
	LastOutcome syncer.Outcome
	LastAt      time.Time
}

// Sync runs one sync attempt. A request made while another attempt runs
// returns syncer.ErrSyncInFlight and changes nothing.
func (s *Session) Sync(ctx context.Context) (syncer.Outcome, error) {
	user, err := s.requireUser("calendar.pull")
	if err != nil {
		return nil, err
	}
	return s.sync.Sync(ctx, user)
}

// SyncStatus returns the coordinator state and the last outcome.
func (s *Session) SyncStatus() SyncStatus {
	o, at := s.sync.LastOutcome()
	return SyncStatus{State: s.sync.State(), LastOutcome: o, LastAt: at}
}

// AutoSyncUser reports the signed-in user to the auto-sync scheduler.
func (s *Session) AutoSyncUser() (schedule.User, bool) {
	return s.User()
}

// ProviderStatus reports whether the user linked a calendar provider.
func (s *Session) ProviderStatus(ctx context.Context) (schedule.ProviderStatus, error) {
	user, err := s.requireUser("calendar.status")
	if err != nil {
		return schedule.ProviderStatus{}, err
	}
	return s.backend.ProviderStatus(ctx, user.ID), nil
}

// Strategy returns the user's conflict strategy.
func (s *Session) Strategy(ctx context.Context) (schedule.Strategy, error) {
	user, err := s.requireUser("conflicts.strategy")
	if err != nil {
		return "", err
	}
	strategy, err := s.backend.Strategy(ctx, user.ID)
	if err != nil {
		return "", s.fail(err)
	}
	return strategy, nil
}

// SetStrategy stores the user's conflict strategy.
func (s *Session) SetStrategy(ctx context.Context, strategy schedule.Strategy) error {
	user, err := s.requireUser("conflicts.strategy")
	if err != nil {
		return err
	}
	return s.fail(s.backend.SetStrategy(ctx, user.ID, strategy))
}

// EditConflict changes one version of a conflict in the open session.
func (s *Session) EditConflict(ctx context.Context, conflictID string, side schedule.Side, edit conflicts.VersionEdit) (schedule.ConflictVersion, error) {
	if _, err := s.requireUser("conflicts.edit"); err != nil {
		return schedule.ConflictVersion{}, err
	}
	v, err := s.conflicts.Edit(ctx, conflictID, side, edit)
	if err != nil {
		return schedule.ConflictVersion{}, s.fail(err)
	}
	return v, nil
}

// DeleteConflict deletes the event behind one version of a conflict.
func (s *Session) DeleteConflict(ctx context.Context, conflictID string, side schedule.Side) error {
	if _, err := s.requireUser("conflicts.delete"); err != nil {
		return err
	}
	return s.fail(s.conflicts.Delete(ctx, conflictID, side))
}

// MarkConflictResolved checks a conflict off locally.
func (s *Session) MarkConflictResolved(conflictID string) error {
	return s.conflicts.MarkResolved(conflictID)
}

// ConflictSyncNow syncs again once every conflict is resolved.
func (s *Session) ConflictSyncNow(ctx context.Context) (syncer.Outcome, error) {
	user, err := s.requireUser("conflicts.sync_now")
	if err != nil {
		return nil, err
	}
	return s.conflictResult(s.conflicts.SyncNow(ctx, user))
}

// ForceSync abandons the resolution session and syncs again.
func (s *Session) ForceSync(ctx context.Context) (syncer.Outcome, error) {
	user, err := s.requireUser("conflicts.force_sync")
	if err != nil {
		return nil, err
	}
	return s.conflictResult(s.conflicts.ForceSync(ctx, user))
}

func (s *Session) conflictResult(o syncer.Outcome, err error) (syncer.Outcome, error) {
	if err != nil && !errors.Is(err, syncer.ErrSyncInFlight) {
		return nil, s.fail(err)
	}
	return o, err
}

// StoredConflicts returns the conflicts persisted by the collaborator.
func (s *Session) StoredConflicts(ctx context.Context) ([]schedule.StoredConflict, error) {
	user, err := s.requireUser("conflicts.list")
	if err != nil {
		return nil, err
	}
	list, err := s.conflicts.Stored(ctx, user)
	if err != nil {
		return nil, s.fail(err)
	}
	return list, nil
}

// ResolveStoredConflict resolves a persisted conflict.
func (s *Session) ResolveStoredConflict(ctx context.Context, conflictID int64, resolution schedule.Resolution) error {
	if _, err := s.requireUser("conflicts.resolve"); err != nil {
		return err
	}
	return s.fail(s.conflicts.ResolveStored(ctx, conflictID, resolution))
}
