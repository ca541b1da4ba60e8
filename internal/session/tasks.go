package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/planner/internal/permission"
	"github.com/teemow/planner/internal/placement"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

// TaskInput describes a new task. Zero Duration and Priority take the
// defaults. A nil TeamID uses the active team.
type TaskInput struct {
	Title      string
	Duration   int
	Priority   int
	TeamID     *int64
	AssigneeID *int64
}

// TaskEdit changes a task. Nil fields are kept.
type TaskEdit struct {
	ID         int64
	Title      *string
	Duration   *int
	Priority   *int
	AssigneeID *int64
}

// AddTask creates a task for the signed-in user. The store holds the
// returned task, unscheduled.
func (s *Session) AddTask(ctx context.Context, in TaskInput) (schedule.Task, error) {
	const op = "tasks.create"
	user, err := s.requireUser(op)
	if err != nil {
		return schedule.Task{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return schedule.Task{}, schedule.Validation(op, "A title is required.")
	}
	duration := in.Duration
	if duration == 0 {
		duration = schedule.DefaultTaskDuration
	}
	if err := validateDuration(op, duration); err != nil {
		return schedule.Task{}, err
	}
	priority := in.Priority
	if priority == 0 {
		priority = schedule.PriorityMedium
	}
	if err := validatePriority(op, priority); err != nil {
		return schedule.Task{}, err
	}

	teamID := in.TeamID
	if teamID == nil {
		teamID = s.view.ActiveTeam()
	}
	assignee := in.AssigneeID
	if assignee == nil {
		assignee = schedule.ID(user.ID)
	}
	if err := s.checkScope(op, user, teamID, *assignee); err != nil {
		return schedule.Task{}, s.fail(err)
	}

	task := schedule.Task{
		Title:             title,
		EstimatedDuration: duration,
		Priority:          priority,
		TeamID:            teamID,
		AssigneeID:        assignee,
		CreatorID:         user.ID,
	}
	created, err := s.backend.CreateTask(ctx, user.ID, task)
	if err != nil {
		return schedule.Task{}, s.fail(err)
	}
	if created.ID == 0 {
		return schedule.Task{}, s.fail(schedule.NewError(schedule.KindUnknown, op, "The server did not return the created task."))
	}
	created = fillTask(created, task)
	created.ScheduledTime = nil
	created.Event = nil

	s.store.Merge(store.Delta{Tasks: []schedule.Task{created}})
	return created, nil
}

// checkScope validates the team and assignee of a task. Team tasks need a
// known team the user belongs to, with an assignee from that team.
// Personal tasks can only be assigned to their creator.
func (s *Session) checkScope(op string, user schedule.User, teamID *int64, assignee int64) error {
	if teamID == nil {
		if assignee != user.ID {
			return schedule.Validation(op, "Personal tasks can only be assigned to yourself.")
		}
		return nil
	}
	team, ok := s.store.Team(*teamID)
	if !ok {
		return schedule.Validation(op, fmt.Sprintf("Team %d does not exist.", *teamID))
	}
	if !team.HasMember(user.ID) {
		return schedule.Permission(op, fmt.Sprintf("You are not a member of %s.", team.Name))
	}
	if !team.HasMember(assignee) {
		return schedule.Validation(op, fmt.Sprintf("The assignee is not a member of %s.", team.Name))
	}
	return nil
}

// EditTask updates a task and carries title and duration changes over to
// its linked event. A failure to update the event is notified but does not
// undo the task edit.
func (s *Session) EditTask(ctx context.Context, edit TaskEdit) (schedule.Task, error) {
	const op = "tasks.update"
	user, err := s.requireUser(op)
	if err != nil {
		return schedule.Task{}, err
	}
	task, err := s.taskFor(op, edit.ID, user, permission.ActionEdit)
	if err != nil {
		return schedule.Task{}, err
	}

	if edit.Title != nil {
		title := strings.TrimSpace(*edit.Title)
		if title == "" {
			return schedule.Task{}, schedule.Validation(op, "A title is required.")
		}
		task.Title = title
	}
	if edit.Duration != nil {
		if err := validateDuration(op, *edit.Duration); err != nil {
			return schedule.Task{}, err
		}
		task.EstimatedDuration = *edit.Duration
	}
	if edit.Priority != nil {
		if err := validatePriority(op, *edit.Priority); err != nil {
			return schedule.Task{}, err
		}
		task.Priority = *edit.Priority
	}
	if edit.AssigneeID != nil {
		if err := s.checkScope(op, user, task.TeamID, *edit.AssigneeID); err != nil {
			return schedule.Task{}, s.fail(err)
		}
		task.AssigneeID = schedule.ID(*edit.AssigneeID)
	}

	updated, err := s.updateTask(ctx, user, task)
	if err != nil {
		return schedule.Task{}, err
	}

	// the stored task decides: the reply may omit the schedule
	if task.IsScheduled() {
		if _, err := s.placer.PropagateTaskEdit(ctx, updated); err != nil {
			s.fail(err)
		}
	}
	return updated, nil
}

// ToggleTask flips the completion flag of a task.
func (s *Session) ToggleTask(ctx context.Context, taskID int64) (schedule.Task, error) {
	const op = "tasks.toggle"
	user, err := s.requireUser(op)
	if err != nil {
		return schedule.Task{}, err
	}
	task, err := s.taskFor(op, taskID, user, permission.ActionToggle)
	if err != nil {
		return schedule.Task{}, err
	}
	task.Completed = !task.Completed
	return s.updateTask(ctx, user, task)
}

// DeleteTask deletes a task and its linked events.
func (s *Session) DeleteTask(ctx context.Context, taskID int64) error {
	const op = "tasks.delete"
	user, err := s.requireUser(op)
	if err != nil {
		return err
	}
	if _, err := s.taskFor(op, taskID, user, permission.ActionDelete); err != nil {
		return err
	}
	if err := s.backend.DeleteTask(ctx, taskID); err != nil {
		return s.fail(err)
	}
	return s.store.Remove(store.KindTask, taskID)
}

// PlaceTask places a task at slot, or lets the collaborator pick the slot
// when slot is nil.
func (s *Session) PlaceTask(ctx context.Context, taskID int64, slot *placement.Slot) (*placement.Result, error) {
	const op = "tasks.place"
	user, err := s.requireUser(op)
	if err != nil {
		return nil, err
	}
	task, err := s.taskFor(op, taskID, user, permission.ActionPlace)
	if err != nil {
		return nil, err
	}

	var res *placement.Result
	if slot != nil {
		res, err = s.placer.PlaceAt(ctx, task, *slot)
	} else {
		res, err = s.placer.PlaceAuto(ctx, task)
	}
	if err != nil {
		return nil, s.fail(err)
	}
	return res, nil
}

// taskFor loads a task from the store and checks that user may perform
// action on it. Permission failures are notified.
func (s *Session) taskFor(op string, taskID int64, user schedule.User, action permission.Action) (schedule.Task, error) {
	task, ok := s.store.Task(taskID)
	if !ok {
		return schedule.Task{}, schedule.Validation(op, fmt.Sprintf("Task %d does not exist.", taskID))
	}
	if err := permission.Check(task, user, action); err != nil {
		return schedule.Task{}, s.fail(err)
	}
	return task, nil
}

// updateTask persists task and merges the answer into the store.
func (s *Session) updateTask(ctx context.Context, user schedule.User, task schedule.Task) (schedule.Task, error) {
	updated, err := s.backend.UpdateTask(ctx, user.ID, task)
	if err != nil {
		return schedule.Task{}, s.fail(err)
	}
	updated = fillTask(updated, task)
	updated.Event = nil
	s.store.Merge(store.Delta{Tasks: []schedule.Task{updated}})
	return updated, nil
}

// fillTask completes a collaborator answer with the fields it left out.
func fillTask(got, sent schedule.Task) schedule.Task {
	if got.ID == 0 {
		got.ID = sent.ID
	}
	if got.Title == "" {
		got.Title = sent.Title
	}
	if got.EstimatedDuration == 0 {
		got.EstimatedDuration = sent.EstimatedDuration
	}
	if got.Priority == 0 {
		got.Priority = sent.Priority
	}
	if got.CreatorID == 0 {
		got.CreatorID = sent.CreatorID
	}
	if got.TeamID == nil {
		got.TeamID = sent.TeamID
	}
	if got.AssigneeID == nil {
		got.AssigneeID = sent.AssigneeID
	}
	// task updates do not echo the schedule
	if got.ScheduledTime == nil && sent.ScheduledTime != nil {
		at := *sent.ScheduledTime
		got.ScheduledTime = &at
	}
	return got
}

func validateDuration(op string, minutes int) error {
	if minutes < schedule.MinTaskDuration || minutes > schedule.MaxTaskDuration {
		return schedule.Validation(op, fmt.Sprintf("The duration must be between %d and %d minutes.",
			schedule.MinTaskDuration, schedule.MaxTaskDuration))
	}
	return nil
}

func validatePriority(op string, priority int) error {
	if priority < schedule.PriorityHigh || priority > schedule.PriorityLow {
		return schedule.Validation(op, "The priority must be 1 (high), 2 (medium) or 3 (low).")
	}
	return nil
}
