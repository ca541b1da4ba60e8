package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// ListUserTasks returns the tasks of a user.
func (c *Client) ListUserTasks(ctx context.Context, userID int64) ([]schedule.Task, error) {
	body, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationList,
		http.MethodGet, idPath("/tasks/user/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.Task](c.logger, "tasks.list", body), nil
}

// ListDelegatedTasks returns the tasks a user created and assigned to someone else.
func (c *Client) ListDelegatedTasks(ctx context.Context, userID int64) ([]schedule.Task, error) {
	body, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationList,
		http.MethodGet, idPath("/tasks/user/%d/delegated", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.Task](c.logger, "tasks.delegated", body), nil
}

// ListTeamTasks returns every task of a team.
func (c *Client) ListTeamTasks(ctx context.Context, teamID int64) ([]schedule.Task, error) {
	body, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationList,
		http.MethodGet, idPath("/tasks/team/%d", teamID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.Task](c.logger, "tasks.team", body), nil
}

// CreateTask creates a task owned by userID.
func (c *Client) CreateTask(ctx context.Context, userID int64, task schedule.Task) (schedule.Task, error) {
	task.ID = 0
	task.CreatorID = userID
	body, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationCreate,
		http.MethodPost, idPath("/tasks/user/%d", userID), nil, task)
	if err != nil {
		return schedule.Task{}, err
	}
	return decodeOne[schedule.Task]("tasks.create", body)
}

// UpdateTask replaces a task on behalf of userID.
func (c *Client) UpdateTask(ctx context.Context, userID int64, task schedule.Task) (schedule.Task, error) {
	q := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	body, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationUpdate,
		http.MethodPut, idPath("/tasks/%d", task.ID), q, task)
	if err != nil {
		return schedule.Task{}, err
	}
	return decodeOne[schedule.Task]("tasks.update", body)
}

// DeleteTask deletes a task. The collaborator deletes its events as well.
func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	_, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationDelete,
		http.MethodDelete, idPath("/tasks/%d", taskID), nil, nil)
	return err
}

// Interval is an explicit placement request.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Planify asks the collaborator to place a task. A nil interval delegates the
// choice of slot to the collaborator. The returned task carries the created
// event when the collaborator sent one.
func (c *Client) Planify(ctx context.Context, taskID int64, interval *Interval) (schedule.Task, error) {
	var q url.Values
	if interval != nil {
		q = url.Values{
			"start": {schedule.FormatTime(interval.Start)},
			"end":   {schedule.FormatTime(interval.End)},
		}
	}
	body, err := c.do(ctx, instrumentation.AreaTasks, instrumentation.OperationPlanify,
		http.MethodPost, idPath("/tasks/%d/planify", taskID), q, nil)
	if err != nil {
		return schedule.Task{}, err
	}
	return decodeOne[schedule.Task]("tasks.planify", body)
}
