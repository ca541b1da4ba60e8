package task_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/placement"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools/batch"
	"github.com/teemow/planner/internal/tools/common"
)

// Task list filters of planner_list_tasks.
const (
	statusAll       = "all"
	statusOpen      = "open"
	statusCompleted = "completed"

	scheduledAny    = "any"
	scheduledYes    = "scheduled"
	scheduledNotYet = "unscheduled"
)

// TaskList is the planner_list_tasks result.
type TaskList struct {
	TeamID *int64          `json:"teamId,omitempty"`
	Filter string          `json:"filter"`
	Count  int             `json:"count"`
	Tasks  []schedule.Task `json:"tasks"`
}

// PlaceResult is the planner_place_task result.
type PlaceResult struct {
	Task  schedule.Task  `json:"task"`
	Event schedule.Event `json:"event"`
}

// RegisterTaskTools registers the task tools with the MCP server.
func RegisterTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTasksTool := mcp.NewTool("planner_list_tasks",
		mcp.WithDescription("List the tasks visible in the active scope (personal mode or the selected team and its filter)"),
		mcp.WithString("status",
			mcp.Description("Completion filter"),
			mcp.Enum(statusAll, statusOpen, statusCompleted),
		),
		mcp.WithString("scheduled",
			mcp.Description("Placement filter"),
			mcp.Enum(scheduledAny, scheduledYes, scheduledNotYet),
		),
	)
	s.AddTool(listTasksTool, common.InstrumentedToolHandler("planner_list_tasks",
		instrumentation.AreaTasks, instrumentation.OperationList, sc, handleListTasks(sc)))

	if readOnly {
		return nil
	}

	createTaskTool := mcp.NewTool("planner_create_task",
		mcp.WithDescription("Create a task. It starts unscheduled; use planner_place_task to put it on the calendar"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithNumber("duration",
			mcp.Description(fmt.Sprintf("Estimated duration in minutes, %d to %d (default: %d)",
				schedule.MinTaskDuration, schedule.MaxTaskDuration, schedule.DefaultTaskDuration)),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority: 1 high, 2 medium, 3 low (default: 2)"),
		),
		mcp.WithNumber("teamId",
			mcp.Description("Team the task belongs to (default: the selected team, none in personal mode)"),
		),
		mcp.WithNumber("assigneeId",
			mcp.Description("User the task is assigned to (default: you)"),
		),
	)
	s.AddTool(createTaskTool, common.InstrumentedToolHandler("planner_create_task",
		instrumentation.AreaTasks, instrumentation.OperationCreate, sc, handleCreateTask(sc)))

	editTaskTool := mcp.NewTool("planner_edit_task",
		mcp.WithDescription("Edit a task you created or are assigned to. A scheduled task's calendar event follows the new title and duration"),
		mcp.WithNumber("taskId",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithNumber("duration",
			mcp.Description("New estimated duration in minutes"),
		),
		mcp.WithNumber("priority",
			mcp.Description("New priority: 1 high, 2 medium, 3 low"),
		),
		mcp.WithNumber("assigneeId",
			mcp.Description("New assignee"),
		),
	)
	s.AddTool(editTaskTool, common.InstrumentedToolHandler("planner_edit_task",
		instrumentation.AreaTasks, instrumentation.OperationUpdate, sc, handleEditTask(sc)))

	toggleTaskTool := mcp.NewTool("planner_toggle_task",
		mcp.WithDescription("Flip the completed state of one or more tasks"),
		mcp.WithArray("taskIds",
			mcp.Required(),
			mcp.Description("Task ID or array of task IDs"),
			mcp.Items(map[string]interface{}{"type": "number"}),
		),
	)
	s.AddTool(toggleTaskTool, common.InstrumentedToolHandler("planner_toggle_task",
		instrumentation.AreaTasks, instrumentation.OperationUpdate, sc, handleToggleTasks(sc)))

	deleteTaskTool := mcp.NewTool("planner_delete_task",
		mcp.WithDescription("Delete one or more tasks together with their calendar events"),
		mcp.WithArray("taskIds",
			mcp.Required(),
			mcp.Description("Task ID or array of task IDs"),
			mcp.Items(map[string]interface{}{"type": "number"}),
		),
	)
	s.AddTool(deleteTaskTool, common.InstrumentedToolHandler("planner_delete_task",
		instrumentation.AreaTasks, instrumentation.OperationDelete, sc, handleDeleteTasks(sc)))

	placeTaskTool := mcp.NewTool("planner_place_task",
		mcp.WithDescription("Put a task on the calendar. With day and hour the task is placed at that slot; without them the server picks the next free slot"),
		mcp.WithNumber("taskId",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("day",
			mcp.Description("Day of the slot, YYYY-MM-DD"),
		),
		mcp.WithNumber("hour",
			mcp.Description("Start hour of the slot, 0-23"),
		),
	)
	s.AddTool(placeTaskTool, common.InstrumentedToolHandler("planner_place_task",
		instrumentation.AreaTasks, instrumentation.OperationPlanify, sc, handlePlaceTask(sc)))

	return nil
}

func handleListTasks(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("tasks.list", request.GetArguments())
		status, err := args.StringOr("status", statusAll)
		if err != nil {
			return nil, err
		}
		scheduled, err := args.StringOr("scheduled", scheduledAny)
		if err != nil {
			return nil, err
		}
		keep, err := taskPredicate(status, scheduled)
		if err != nil {
			return nil, err
		}

		sess := sc.Session()
		tasks := make([]schedule.Task, 0)
		for _, t := range sess.VisibleTasks() {
			if keep(t) {
				tasks = append(tasks, t)
			}
		}
		return common.JSONResult(TaskList{
			TeamID: sess.ActiveTeam(),
			Filter: string(sess.Filter()),
			Count:  len(tasks),
			Tasks:  tasks,
		})
	}
}

func taskPredicate(status, scheduled string) (func(schedule.Task) bool, error) {
	var byStatus func(schedule.Task) bool
	switch status {
	case statusAll:
		byStatus = func(schedule.Task) bool { return true }
	case statusOpen:
		byStatus = func(t schedule.Task) bool { return !t.Completed }
	case statusCompleted:
		byStatus = func(t schedule.Task) bool { return t.Completed }
	default:
		return nil, schedule.Validation("tasks.list", fmt.Sprintf("Unknown status filter %q.", status))
	}

	var byPlacement func(schedule.Task) bool
	switch scheduled {
	case scheduledAny:
		byPlacement = func(schedule.Task) bool { return true }
	case scheduledYes:
		byPlacement = schedule.Task.IsScheduled
	case scheduledNotYet:
		byPlacement = func(t schedule.Task) bool { return !t.IsScheduled() }
	default:
		return nil, schedule.Validation("tasks.list", fmt.Sprintf("Unknown placement filter %q.", scheduled))
	}

	return func(t schedule.Task) bool { return byStatus(t) && byPlacement(t) }, nil
}

func handleCreateTask(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("tasks.create", request.GetArguments())
		in, err := taskInput(args)
		if err != nil {
			return nil, err
		}
		task, err := sc.Session().AddTask(ctx, in)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Task created.", task)
	}
}

func taskInput(args common.Args) (session.TaskInput, error) {
	var in session.TaskInput
	var err error
	if in.Title, err = args.String("title"); err != nil {
		return in, err
	}
	duration, err := args.OptionalInt("duration")
	if err != nil {
		return in, err
	}
	if duration != nil {
		in.Duration = *duration
	}
	priority, err := args.OptionalInt("priority")
	if err != nil {
		return in, err
	}
	if priority != nil {
		in.Priority = *priority
	}
	if in.TeamID, err = args.OptionalInt64("teamId"); err != nil {
		return in, err
	}
	if in.AssigneeID, err = args.OptionalInt64("assigneeId"); err != nil {
		return in, err
	}
	return in, nil
}

func handleEditTask(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("tasks.edit", request.GetArguments())
		edit, err := taskEdit(args)
		if err != nil {
			return nil, err
		}
		task, err := sc.Session().EditTask(ctx, edit)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Task updated.", task)
	}
}

func taskEdit(args common.Args) (session.TaskEdit, error) {
	var edit session.TaskEdit
	var err error
	if edit.ID, err = args.Int64("taskId"); err != nil {
		return edit, err
	}
	if edit.Title, err = args.OptionalString("title"); err != nil {
		return edit, err
	}
	if edit.Duration, err = args.OptionalInt("duration"); err != nil {
		return edit, err
	}
	if edit.Priority, err = args.OptionalInt("priority"); err != nil {
		return edit, err
	}
	if edit.AssigneeID, err = args.OptionalInt64("assigneeId"); err != nil {
		return edit, err
	}
	return edit, nil
}

func handleToggleTasks(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := common.NewArgs("tasks.toggle", request.GetArguments()).IDs("taskIds")
		if err != nil {
			return nil, err
		}
		results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id int64) (string, error) {
			task, err := sc.Session().ToggleTask(ctx, id)
			if err != nil {
				return "", err
			}
			if task.Completed {
				return "Task completed.", nil
			}
			return "Task reopened.", nil
		})
		return batchResult(results), nil
	}
}

func handleDeleteTasks(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := common.NewArgs("tasks.delete", request.GetArguments()).IDs("taskIds")
		if err != nil {
			return nil, err
		}
		results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id int64) (string, error) {
			if err := sc.Session().DeleteTask(ctx, id); err != nil {
				return "", err
			}
			return "Task deleted.", nil
		})
		return batchResult(results), nil
	}
}

// batchResult marks the result as an error only when every item failed.
func batchResult(results []batch.Result) *mcp.CallToolResult {
	text := batch.FormatResults(results)
	if s := batch.Summarize(results); s.Total > 0 && s.Successful == 0 {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

func handlePlaceTask(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("tasks.place", request.GetArguments())
		id, err := args.Int64("taskId")
		if err != nil {
			return nil, err
		}
		slot, err := slotArg(args)
		if err != nil {
			return nil, err
		}

		res, err := sc.Session().PlaceTask(ctx, id, slot)
		if err != nil {
			return nil, err
		}
		return common.MessageResult(fmt.Sprintf("Task scheduled at %s.", schedule.FormatTime(res.Event.Start)),
			PlaceResult{Task: res.Task, Event: res.Event})
	}
}

// slotArg returns nil when neither day nor hour is given. Both are needed
// for an explicit slot.
func slotArg(args common.Args) (*placement.Slot, error) {
	if !args.Has("day") && !args.Has("hour") {
		return nil, nil
	}
	day, err := args.Date("day")
	if err != nil {
		return nil, err
	}
	hour, err := args.OptionalInt("hour")
	if err != nil {
		return nil, err
	}
	if hour == nil {
		return nil, schedule.Validation("tasks.place", "hour is required when day is given")
	}
	if *hour < 0 || *hour > 23 {
		return nil, schedule.Validation("tasks.place", "hour must be between 0 and 23")
	}
	return &placement.Slot{Day: day, Hour: *hour}, nil
}
