// Package placement places tasks on the calendar.
//
// Two modes exist. PlaceAt targets an explicit day and hour and computes the
// interval locally from the task duration. PlaceAuto delegates the choice of
// slot to the collaborator and accepts whatever interval comes back; no
// interval is ever computed locally in that mode.
package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

// Backend is the subset of the gateway the coordinator needs.
type Backend interface {
	Planify(ctx context.Context, taskID int64, interval *gateway.Interval) (schedule.Task, error)
	UpdateEvent(ctx context.Context, eventID int64, in schedule.EventInput) (schedule.Event, error)
}

// Slot is an explicit placement target.
type Slot struct {
	Day  time.Time
	Hour int
}

// Result is a successful placement.
type Result struct {
	Task  schedule.Task
	Event schedule.Event
}

// Coordinator places tasks and keeps linked events in step with task edits.
type Coordinator struct {
	backend Backend
	store   *store.Store
	metrics *instrumentation.Metrics
	logger  logging.Logger
}

// New creates a Coordinator. metrics and logger may be nil.
func New(backend Backend, st *store.Store, metrics *instrumentation.Metrics, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Coordinator{backend: backend, store: st, metrics: metrics, logger: logger}
}

// Interval returns the interval an explicit placement of task at slot occupies.
func Interval(task schedule.Task, slot Slot) (time.Time, time.Time) {
	return schedule.IntervalFromSlot(slot.Day, slot.Hour, task.Duration())
}

// PlaceAt places task at slot. The resulting event spans exactly
// [day@hour, day@hour + duration).
func (c *Coordinator) PlaceAt(ctx context.Context, task schedule.Task, slot Slot) (*Result, error) {
	const op = "placement.explicit"
	if err := validateTask(op, task); err != nil {
		return nil, err
	}
	if slot.Hour < 0 || slot.Hour > 23 {
		return nil, schedule.Validation(op, fmt.Sprintf("Hour %d is outside 0-23.", slot.Hour))
	}
	if slot.Day.IsZero() {
		return nil, schedule.Validation(op, "A day is required for an explicit placement.")
	}

	start, end := Interval(task, slot)
	placed, err := c.backend.Planify(ctx, task.ID, &gateway.Interval{Start: start, End: end})
	if err != nil {
		c.metrics.RecordPlacement(ctx, instrumentation.PlacementExplicit, instrumentation.StatusError)
		return nil, err
	}

	res, err := c.reconcile(op, task, placed)
	if err != nil {
		c.metrics.RecordPlacement(ctx, instrumentation.PlacementExplicit, instrumentation.StatusError)
		return nil, err
	}
	res.Event.Start, res.Event.End = start, end
	res.Task.ScheduledTime = &start

	c.merge(res)
	c.metrics.RecordPlacement(ctx, instrumentation.PlacementExplicit, instrumentation.StatusSuccess)
	return res, nil
}

// PlaceAuto asks the collaborator to find the first free slot for task.
func (c *Coordinator) PlaceAuto(ctx context.Context, task schedule.Task) (*Result, error) {
	const op = "placement.auto"
	if err := validateTask(op, task); err != nil {
		return nil, err
	}

	placed, err := c.backend.Planify(ctx, task.ID, nil)
	if err != nil {
		c.metrics.RecordPlacement(ctx, instrumentation.PlacementAuto, instrumentation.StatusError)
		return nil, err
	}

	res, err := c.reconcile(op, task, placed)
	if err != nil {
		c.metrics.RecordPlacement(ctx, instrumentation.PlacementAuto, instrumentation.StatusError)
		return nil, err
	}
	if !res.Event.ValidInterval() {
		c.metrics.RecordPlacement(ctx, instrumentation.PlacementAuto, instrumentation.StatusError)
		return nil, schedule.Placement(op, "The placement service returned an empty interval.")
	}
	if res.Task.ScheduledTime == nil {
		start := res.Event.Start
		res.Task.ScheduledTime = &start
	}

	c.merge(res)
	c.metrics.RecordPlacement(ctx, instrumentation.PlacementAuto, instrumentation.StatusSuccess)
	return res, nil
}

// reconcile checks the planify response and fills the fields the
// collaborator left out from the request task.
func (c *Coordinator) reconcile(op string, requested, placed schedule.Task) (*Result, error) {
	if placed.Event == nil {
		return nil, schedule.Placement(op, "The placement service did not return an event.")
	}

	task := placed.Clone()
	if task.ID == 0 {
		task.ID = requested.ID
	}
	if task.Title == "" {
		task.Title = requested.Title
	}
	if task.EstimatedDuration == 0 {
		task.EstimatedDuration = requested.EstimatedDuration
	}
	if task.CreatorID == 0 {
		task.CreatorID = requested.CreatorID
	}
	if task.TeamID == nil {
		task.TeamID = requested.TeamID
	}
	if task.AssigneeID == nil {
		task.AssigneeID = requested.AssigneeID
	}
	task.Event = nil

	event := placed.Event.Clone()
	if event.TaskID == nil {
		event.TaskID = schedule.ID(task.ID)
	}
	if event.TeamID == nil {
		event.TeamID = task.TeamID
	}
	if event.Summary == "" {
		event.Summary = task.Title
	}
	return &Result{Task: task, Event: event}, nil
}

func (c *Coordinator) merge(res *Result) {
	c.store.Merge(store.Delta{
		Tasks:  []schedule.Task{res.Task},
		Events: []schedule.Event{res.Event},
	})
}

// PropagateTaskEdit keeps the linked event of a scheduled task in step with
// the task: the title is copied and the end moves to start + duration. The
// start never moves. It returns nil when there is nothing to propagate.
func (c *Coordinator) PropagateTaskEdit(ctx context.Context, task schedule.Task) (*schedule.Event, error) {
	if !task.IsScheduled() || task.EstimatedDuration <= 0 {
		return nil, nil
	}
	linked := c.store.EventsForTask(task.ID)
	if len(linked) == 0 {
		return nil, nil
	}
	if len(linked) > 1 {
		c.logger.Warn("task has several linked events, updating the first",
			"task_id", task.ID, "events", len(linked))
	}

	event := linked[0]
	end := event.Start.Add(task.Duration())
	if event.Summary == task.Title && event.End.Equal(end) {
		return &event, nil
	}

	in := schedule.InputFromEvent(event)
	in.Summary = task.Title
	in.End = end

	updated, err := c.backend.UpdateEvent(ctx, event.ID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %d of task %d: %w", event.ID, task.ID, err)
	}
	if updated.ID == 0 {
		updated.ID = event.ID
	}
	// the start never moves
	updated.Start, updated.End = event.Start, end
	if updated.TaskID == nil {
		updated.TaskID = schedule.ID(task.ID)
	}
	c.store.Merge(store.Delta{Events: []schedule.Event{updated}})
	return &updated, nil
}

func validateTask(op string, task schedule.Task) error {
	if task.ID == 0 {
		return schedule.Validation(op, "The task has not been saved yet.")
	}
	if task.EstimatedDuration <= 0 {
		return schedule.Validation(op, "The task needs a positive duration before it can be placed.")
	}
	return nil
}
