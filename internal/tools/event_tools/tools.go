package event_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/tools/common"
)

// EventList is the planner_list_events result.
type EventList struct {
	TeamID *int64           `json:"teamId,omitempty"`
	Count  int              `json:"count"`
	Events []schedule.Event `json:"events"`
}

// ActivityReport is the planner_activity_stats result.
type ActivityReport struct {
	TotalMinutes int64                   `json:"totalMinutes"`
	Categories   []schedule.ActivityStat `json:"categories"`
}

// eventFields are the optional properties shared by create and update.
func eventFields() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("location",
			mcp.Description("Address of the event"),
		),
		mcp.WithString("color",
			mcp.Description("Display color, e.g. #4285F4"),
		),
		mcp.WithString("category",
			mcp.Description("Free-form category"),
		),
		mcp.WithNumber("taskId",
			mcp.Description("Task the event schedules"),
		),
		mcp.WithNumber("teamId",
			mcp.Description("Team the event belongs to (default on create: the selected team)"),
		),
	}
}

// RegisterEventTools registers the event tools with the MCP server.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listEventsTool := mcp.NewTool("planner_list_events",
		mcp.WithDescription("List the calendar events visible in the active scope, ordered by start"),
		mcp.WithString("from",
			mcp.Description("Only events ending after this time (e.g. 2024-05-01T00:00:00)"),
		),
		mcp.WithString("to",
			mcp.Description("Only events starting before this time"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("planner_list_events",
		instrumentation.AreaEvents, instrumentation.OperationList, sc, handleListEvents(sc)))

	activityTool := mcp.NewTool("planner_activity_stats",
		mcp.WithDescription("Show how much time you logged per activity category. Defaults to the last 30 days"),
		mcp.WithString("from",
			mcp.Description("Window start (e.g. 2024-05-01T00:00:00)"),
		),
		mcp.WithString("to",
			mcp.Description("Window end"),
		),
	)
	s.AddTool(activityTool, common.InstrumentedToolHandler("planner_activity_stats",
		instrumentation.AreaActivity, instrumentation.OperationGet, sc, handleActivityStats(sc)))

	if readOnly {
		return nil
	}

	createOpts := []mcp.ToolOption{
		mcp.WithDescription("Create a calendar event"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time, e.g. 2024-05-01T09:00:00"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time, after start"),
		),
	}
	createEventTool := mcp.NewTool("planner_create_event", append(createOpts, eventFields()...)...)
	s.AddTool(createEventTool, common.InstrumentedToolHandler("planner_create_event",
		instrumentation.AreaEvents, instrumentation.OperationCreate, sc, handleCreateEvent(sc)))

	updateOpts := []mcp.ToolOption{
		mcp.WithDescription("Update a calendar event. Omitted fields keep their current value"),
		mcp.WithNumber("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("start",
			mcp.Description("New start time"),
		),
		mcp.WithString("end",
			mcp.Description("New end time"),
		),
	}
	updateEventTool := mcp.NewTool("planner_update_event", append(updateOpts, eventFields()...)...)
	s.AddTool(updateEventTool, common.InstrumentedToolHandler("planner_update_event",
		instrumentation.AreaEvents, instrumentation.OperationUpdate, sc, handleUpdateEvent(sc)))

	moveEventTool := mcp.NewTool("planner_move_event",
		mcp.WithDescription("Move an event to a new start time, keeping its duration. A linked task moves with it"),
		mcp.WithNumber("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("New start time"),
		),
	)
	s.AddTool(moveEventTool, common.InstrumentedToolHandler("planner_move_event",
		instrumentation.AreaEvents, instrumentation.OperationUpdate, sc, handleMoveEvent(sc)))

	deleteEventTool := mcp.NewTool("planner_delete_event",
		mcp.WithDescription("Delete an event. A linked task becomes unscheduled"),
		mcp.WithNumber("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandler("planner_delete_event",
		instrumentation.AreaEvents, instrumentation.OperationDelete, sc, handleDeleteEvent(sc)))

	return nil
}

func handleListEvents(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("events.list", request.GetArguments())
		from, err := args.OptionalTime("from")
		if err != nil {
			return nil, err
		}
		to, err := args.OptionalTime("to")
		if err != nil {
			return nil, err
		}
		if from != nil && to != nil && !to.After(*from) {
			return nil, schedule.Validation("events.list", "to must be after from")
		}

		events := make([]schedule.Event, 0)
		for _, e := range sc.Session().VisibleEvents() {
			if overlaps(e, from, to) {
				events = append(events, e)
			}
		}
		return common.JSONResult(EventList{
			TeamID: sc.Session().ActiveTeam(),
			Count:  len(events),
			Events: events,
		})
	}
}

func handleActivityStats(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("activity.stats", request.GetArguments())
		from, err := args.OptionalTime("from")
		if err != nil {
			return nil, err
		}
		to, err := args.OptionalTime("to")
		if err != nil {
			return nil, err
		}
		stats, err := sc.Session().ActivityStats(ctx, from, to)
		if err != nil {
			return nil, err
		}

		report := ActivityReport{Categories: make([]schedule.ActivityStat, 0, len(stats))}
		for _, st := range stats {
			report.TotalMinutes += st.TotalMinutes
			report.Categories = append(report.Categories, st)
		}
		return common.JSONResult(report)
	}
}

// overlaps reports whether e intersects [from, to). Open bounds match
// everything.
func overlaps(e schedule.Event, from, to *time.Time) bool {
	if from != nil && !e.End.After(*from) {
		return false
	}
	if to != nil && !e.Start.Before(*to) {
		return false
	}
	return true
}

func handleCreateEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("events.create", request.GetArguments())

		var in schedule.EventInput
		var err error
		if in.Summary, err = args.String("title"); err != nil {
			return nil, err
		}
		if in.Start, err = args.Time("start"); err != nil {
			return nil, err
		}
		if in.End, err = args.Time("end"); err != nil {
			return nil, err
		}
		if err := applyFields(args, &in); err != nil {
			return nil, err
		}

		ev, err := sc.Session().CreateEvent(ctx, in)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Event created.", ev)
	}
}

func handleUpdateEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		const op = "events.update"
		args := common.NewArgs(op, request.GetArguments())
		id, err := args.Int64("eventId")
		if err != nil {
			return nil, err
		}
		current, ok := sc.Session().Store().Event(id)
		if !ok {
			return nil, schedule.Validation(op, fmt.Sprintf("Event %d does not exist.", id))
		}

		in := schedule.InputFromEvent(current)
		title, err := args.OptionalString("title")
		if err != nil {
			return nil, err
		}
		if title != nil {
			in.Summary = *title
		}
		start, err := args.OptionalTime("start")
		if err != nil {
			return nil, err
		}
		if start != nil {
			in.Start = *start
		}
		end, err := args.OptionalTime("end")
		if err != nil {
			return nil, err
		}
		if end != nil {
			in.End = *end
		}
		if err := applyFields(args, &in); err != nil {
			return nil, err
		}

		ev, err := sc.Session().UpdateEvent(ctx, id, in)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Event updated.", ev)
	}
}

// applyFields copies the optional event properties present in args.
func applyFields(args common.Args, in *schedule.EventInput) error {
	location, err := args.OptionalString("location")
	if err != nil {
		return err
	}
	if location != nil {
		in.Location = &schedule.Location{Address: *location}
	}
	if in.Color, err = args.StringOr("color", in.Color); err != nil {
		return err
	}
	if in.Category, err = args.StringOr("category", in.Category); err != nil {
		return err
	}
	taskID, err := args.OptionalInt64("taskId")
	if err != nil {
		return err
	}
	if taskID != nil {
		in.TaskID = taskID
	}
	teamID, err := args.OptionalInt64("teamId")
	if err != nil {
		return err
	}
	if teamID != nil {
		in.TeamID = teamID
	}
	return nil
}

func handleMoveEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("events.move", request.GetArguments())
		id, err := args.Int64("eventId")
		if err != nil {
			return nil, err
		}
		start, err := args.Time("start")
		if err != nil {
			return nil, err
		}
		ev, err := sc.Session().MoveEvent(ctx, id, start)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Event moved.", ev)
	}
}

func handleDeleteEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := common.NewArgs("events.delete", request.GetArguments()).Int64("eventId")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().DeleteEvent(ctx, id); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("Event %d deleted.", id)), nil
	}
}
