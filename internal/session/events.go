package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

// defaultMoveDuration is used when a moved event has no valid interval.
const defaultMoveDuration = 60 * time.Minute

// CreateEvent creates a calendar event. A nil TeamID uses the active team
// and a nil transport preference uses the configured one.
func (s *Session) CreateEvent(ctx context.Context, in schedule.EventInput) (schedule.Event, error) {
	const op = "events.create"
	user, err := s.requireUser(op)
	if err != nil {
		return schedule.Event{}, err
	}
	in.UserID = user.ID
	if in.TeamID == nil {
		in.TeamID = s.view.ActiveTeam()
	}
	if err := s.prepareEvent(op, &in); err != nil {
		return schedule.Event{}, err
	}

	created, err := s.backend.CreateEvent(ctx, in)
	if err != nil {
		return schedule.Event{}, s.fail(err)
	}
	if created.ID == 0 {
		return schedule.Event{}, s.fail(schedule.NewError(schedule.KindUnknown, op, "The server did not return the created event."))
	}
	created = fillEvent(created, in)
	s.store.Merge(store.Delta{Events: []schedule.Event{created}})
	return created, nil
}

// UpdateEvent replaces an event.
func (s *Session) UpdateEvent(ctx context.Context, eventID int64, in schedule.EventInput) (schedule.Event, error) {
	const op = "events.update"
	user, err := s.requireUser(op)
	if err != nil {
		return schedule.Event{}, err
	}
	in.UserID = user.ID
	if err := s.prepareEvent(op, &in); err != nil {
		return schedule.Event{}, err
	}
	return s.updateEvent(ctx, eventID, in)
}

// MoveEvent moves an event to newStart, keeping its duration. An event
// without a valid interval is given the default duration. The linked task
// follows the event.
func (s *Session) MoveEvent(ctx context.Context, eventID int64, newStart time.Time) (schedule.Event, error) {
	const op = "events.move"
	user, err := s.requireUser(op)
	if err != nil {
		return schedule.Event{}, err
	}
	ev, ok := s.store.Event(eventID)
	if !ok {
		return schedule.Event{}, schedule.Validation(op, fmt.Sprintf("Event %d does not exist.", eventID))
	}

	d := ev.Duration()
	if d <= 0 {
		d = defaultMoveDuration
	}
	in := schedule.InputFromEvent(ev)
	in.UserID = user.ID
	in.Start = newStart
	in.End = newStart.Add(d)
	if in.UseGoogleMaps == nil {
		in.UseGoogleMaps = s.cfg.TransportPreference
	}

	moved, err := s.updateEvent(ctx, eventID, in)
	if err != nil {
		return schedule.Event{}, err
	}
	if moved.TaskID != nil {
		if task, ok := s.store.Task(*moved.TaskID); ok && task.IsScheduled() {
			start := moved.Start
			task.ScheduledTime = &start
			s.store.Merge(store.Delta{Tasks: []schedule.Task{task}})
		}
	}
	return moved, nil
}

// DeleteEvent deletes an event and unschedules the task linked to it.
func (s *Session) DeleteEvent(ctx context.Context, eventID int64) error {
	const op = "events.delete"
	user, err := s.requireUser(op)
	if err != nil {
		return err
	}
	ev, ok := s.store.Event(eventID)
	if !ok {
		return schedule.Validation(op, fmt.Sprintf("Event %d does not exist.", eventID))
	}

	if err := s.backend.DeleteEvent(ctx, eventID); err != nil {
		return s.fail(err)
	}
	if err := s.store.Remove(store.KindEvent, eventID); err != nil {
		s.logger.Warn("failed to drop deleted event from store", logging.Err(err))
	}

	if ev.TaskID == nil {
		return nil
	}
	task, ok := s.store.Task(*ev.TaskID)
	if !ok {
		return nil
	}
	task.ScheduledTime = nil
	updated, err := s.backend.UpdateTask(ctx, user.ID, task)
	if err != nil {
		return s.fail(fmt.Errorf("failed to unschedule task %d: %w", task.ID, err))
	}
	updated = fillTask(updated, task)
	updated.ScheduledTime = nil
	updated.Event = nil
	s.store.Merge(store.Delta{Tasks: []schedule.Task{updated}})
	return nil
}

func (s *Session) updateEvent(ctx context.Context, eventID int64, in schedule.EventInput) (schedule.Event, error) {
	updated, err := s.backend.UpdateEvent(ctx, eventID, in)
	if err != nil {
		return schedule.Event{}, s.fail(err)
	}
	if updated.ID == 0 {
		updated.ID = eventID
	}
	updated = fillEvent(updated, in)
	s.store.Merge(store.Delta{Events: []schedule.Event{updated}})
	return updated, nil
}

// prepareEvent validates an event input and applies the defaults.
func (s *Session) prepareEvent(op string, in *schedule.EventInput) error {
	in.Summary = strings.TrimSpace(in.Summary)
	if in.Summary == "" {
		return schedule.Validation(op, "A title is required.")
	}
	if !in.End.After(in.Start) {
		return schedule.Validation(op, "The end time must be after the start time.")
	}
	if in.TeamID != nil {
		if _, ok := s.store.Team(*in.TeamID); !ok {
			return schedule.Validation(op, fmt.Sprintf("Team %d does not exist.", *in.TeamID))
		}
	}
	if in.UseGoogleMaps == nil {
		in.UseGoogleMaps = s.cfg.TransportPreference
	}
	return nil
}

// fillEvent completes a collaborator answer with the fields it left out.
func fillEvent(got schedule.Event, sent schedule.EventInput) schedule.Event {
	if got.Summary == "" {
		got.Summary = sent.Summary
	}
	if got.Start.IsZero() || got.End.IsZero() {
		got.Start, got.End = sent.Start, sent.End
	}
	if got.TaskID == nil {
		got.TaskID = sent.TaskID
	}
	if got.TeamID == nil {
		got.TeamID = sent.TeamID
	}
	if got.Location == nil {
		got.Location = sent.Location
	}
	if got.Source == "" {
		got.Source = schedule.SourceLocal
	}
	return got
}

// ActivityStats returns the user's time per activity category, optionally
// limited to [from, to).
func (s *Session) ActivityStats(ctx context.Context, from, to *time.Time) ([]schedule.ActivityStat, error) {
	const op = "activity.stats"
	user, err := s.requireUser(op)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, schedule.Validation(op, "to must be after from")
	}
	stats, err := s.backend.ActivityStats(ctx, user.ID, from, to)
	if err != nil {
		return nil, s.fail(err)
	}
	return stats, nil
}
