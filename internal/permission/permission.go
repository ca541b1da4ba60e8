// Package permission decides who may modify a task.
//
// A task may be modified by its creator or by its assignee. Team ownership
// grants no extra rights over tasks; it only governs membership and team
// deletion (see package teams).
package permission

import (
	"fmt"

	"github.com/teemow/planner/internal/schedule"
)

// Action is a task mutation subject to permission checks.
type Action string

const (
	ActionToggle Action = "toggle"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionPlace  Action = "place"
)

// ForbiddenMessage is shown when a permission check fails.
const ForbiddenMessage = "Only the task creator or its assignee can change this task."

// CanModify reports whether user is the task's creator or assignee.
func CanModify(task schedule.Task, user schedule.User) bool {
	if user.ID == 0 {
		return false
	}
	return task.CreatorID == user.ID || task.AssignedTo(user.ID)
}

// Check returns a permission error when user may not perform action on task.
func Check(task schedule.Task, user schedule.User, action Action) error {
	if CanModify(task, user) {
		return nil
	}
	e := schedule.Permission("tasks."+string(action), ForbiddenMessage)
	e.Err = fmt.Errorf("user %d may not %s task %d", user.ID, action, task.ID)
	return e
}
