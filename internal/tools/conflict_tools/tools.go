package conflict_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/conflicts"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/tools/common"
	"github.com/teemow/planner/internal/tools/sync_tools"
)

// Session is the planner_list_conflicts result.
type Session struct {
	Open     bool              `json:"open"`
	Resolved int               `json:"resolved"`
	Total    int               `json:"total"`
	Percent  float64           `json:"percent"`
	Entries  []conflicts.Entry `json:"entries"`
}

// RegisterConflictTools registers the conflict resolution tools.
func RegisterConflictTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listConflictsTool := mcp.NewTool("planner_list_conflicts",
		mcp.WithDescription("Show the open conflict resolution session and its progress"),
	)
	s.AddTool(listConflictsTool, common.InstrumentedToolHandler("planner_list_conflicts",
		instrumentation.AreaConflicts, instrumentation.OperationList, sc, handleListConflicts(sc)))

	listStoredTool := mcp.NewTool("planner_list_stored_conflicts",
		mcp.WithDescription("List the conflicts the server keeps for you"),
	)
	s.AddTool(listStoredTool, common.InstrumentedToolHandler("planner_list_stored_conflicts",
		instrumentation.AreaConflicts, instrumentation.OperationList, sc, handleListStored(sc)))

	if readOnly {
		return nil
	}

	editTool := mcp.NewTool("planner_edit_conflict_version",
		mcp.WithDescription("Change the title or time of one side of a conflict. A new start keeps the duration"),
		mcp.WithString("conflictId",
			mcp.Required(),
			mcp.Description("Conflict ID from planner_list_conflicts"),
		),
		mcp.WithString("side",
			mcp.Required(),
			mcp.Description("Which version to edit"),
			mcp.Enum(string(schedule.SideLocal), string(schedule.SideRemote)),
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
	)
	s.AddTool(editTool, common.InstrumentedToolHandler("planner_edit_conflict_version",
		instrumentation.AreaConflicts, instrumentation.OperationUpdate, sc, handleEditVersion(sc)))

	deleteTool := mcp.NewTool("planner_delete_conflict_version",
		mcp.WithDescription("Delete the event behind one side of a conflict, which removes the conflict"),
		mcp.WithString("conflictId",
			mcp.Required(),
			mcp.Description("Conflict ID"),
		),
		mcp.WithString("side",
			mcp.Required(),
			mcp.Description("Which version to delete"),
			mcp.Enum(string(schedule.SideLocal), string(schedule.SideRemote)),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("planner_delete_conflict_version",
		instrumentation.AreaConflicts, instrumentation.OperationDelete, sc, handleDeleteVersion(sc)))

	markTool := mcp.NewTool("planner_mark_conflict_resolved",
		mcp.WithDescription("Check a conflict off without changing either event"),
		mcp.WithString("conflictId",
			mcp.Required(),
			mcp.Description("Conflict ID"),
		),
	)
	s.AddTool(markTool, common.InstrumentedToolHandler("planner_mark_conflict_resolved",
		instrumentation.AreaConflicts, instrumentation.OperationResolve, sc, handleMarkResolved(sc)))

	syncNowTool := mcp.NewTool("planner_conflict_sync_now",
		mcp.WithDescription("Close the resolution session and sync again. Every conflict must be resolved"),
	)
	s.AddTool(syncNowTool, common.InstrumentedToolHandler("planner_conflict_sync_now",
		instrumentation.AreaConflicts, instrumentation.OperationPull, sc, handleSyncNow(sc)))

	forceSyncTool := mcp.NewTool("planner_conflict_force_sync",
		mcp.WithDescription("Abandon the resolution session and sync again"),
	)
	s.AddTool(forceSyncTool, common.InstrumentedToolHandler("planner_conflict_force_sync",
		instrumentation.AreaConflicts, instrumentation.OperationPull, sc, handleForceSync(sc)))

	resolveStoredTool := mcp.NewTool("planner_resolve_stored_conflict",
		mcp.WithDescription("Resolve a conflict kept by the server"),
		mcp.WithNumber("conflictId",
			mcp.Required(),
			mcp.Description("Stored conflict ID"),
		),
		mcp.WithString("resolution",
			mcp.Required(),
			mcp.Description("Which version wins"),
			mcp.Enum(string(schedule.ResolutionKeepLocal), string(schedule.ResolutionKeepGoogle), string(schedule.ResolutionCancelled)),
		),
	)
	s.AddTool(resolveStoredTool, common.InstrumentedToolHandler("planner_resolve_stored_conflict",
		instrumentation.AreaConflicts, instrumentation.OperationResolve, sc, handleResolveStored(sc)))

	return nil
}

func sessionResult(c *conflicts.Controller) Session {
	p := c.Progress()
	entries := c.Entries()
	if entries == nil {
		entries = []conflicts.Entry{}
	}
	return Session{
		Open:     c.IsOpen(),
		Resolved: p.Resolved,
		Total:    p.Total,
		Percent:  p.Percent(),
		Entries:  entries,
	}
}

// conflictArgs reads the conflict id and side.
func conflictArgs(args common.Args) (string, schedule.Side, error) {
	id, err := args.String("conflictId")
	if err != nil {
		return "", "", err
	}
	raw, err := args.String("side")
	if err != nil {
		return "", "", err
	}
	side, err := schedule.ParseSide(strings.TrimSpace(raw))
	if err != nil {
		return "", "", schedule.Validation("conflicts.side", "side must be local or remote")
	}
	return id, side, nil
}

func handleListConflicts(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.JSONResult(sessionResult(sc.Session().Conflicts()))
	}
}

func handleListStored(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := sc.Session().StoredConflicts(ctx)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []schedule.StoredConflict{}
		}
		return common.JSONResult(list)
	}
}

func handleEditVersion(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("conflicts.edit", request.GetArguments())
		id, side, err := conflictArgs(args)
		if err != nil {
			return nil, err
		}

		var edit conflicts.VersionEdit
		if edit.Title, err = args.OptionalString("title"); err != nil {
			return nil, err
		}
		if edit.Start, err = args.OptionalTime("start"); err != nil {
			return nil, err
		}
		if edit.End, err = args.OptionalTime("end"); err != nil {
			return nil, err
		}
		if edit.Title == nil && edit.Start == nil && edit.End == nil {
			return nil, schedule.Validation("conflicts.edit", "Nothing to change: give a title, start or end.")
		}

		v, err := sc.Session().EditConflict(ctx, id, side, edit)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Conflict version updated.", v)
	}
}

func handleDeleteVersion(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, side, err := conflictArgs(common.NewArgs("conflicts.delete", request.GetArguments()))
		if err != nil {
			return nil, err
		}
		if err := sc.Session().DeleteConflict(ctx, id, side); err != nil {
			return nil, err
		}
		return common.MessageResult(fmt.Sprintf("The %s version of conflict %s was deleted.", side, id),
			sessionResult(sc.Session().Conflicts()))
	}
}

func handleMarkResolved(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := common.NewArgs("conflicts.mark_resolved", request.GetArguments()).String("conflictId")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().MarkConflictResolved(id); err != nil {
			return nil, err
		}
		p := sc.Session().Conflicts().Progress()
		return mcp.NewToolResultText(fmt.Sprintf("Conflict %s marked as resolved (%s).", id, p)), nil
	}
}

func handleSyncNow(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		outcome, err := sc.Session().ConflictSyncNow(ctx)
		return sync_tools.OutcomeResult("conflicts.sync_now", outcome, err)
	}
}

func handleForceSync(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		outcome, err := sc.Session().ForceSync(ctx)
		return sync_tools.OutcomeResult("conflicts.force_sync", outcome, err)
	}
}

func handleResolveStored(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		const op = "conflicts.resolve"
		args := common.NewArgs(op, request.GetArguments())
		id, err := args.Int64("conflictId")
		if err != nil {
			return nil, err
		}
		raw, err := args.String("resolution")
		if err != nil {
			return nil, err
		}
		resolution := schedule.Resolution(strings.ToUpper(strings.TrimSpace(raw)))
		if !resolution.Valid() {
			return nil, schedule.Validation(op, "Unknown resolution "+raw+".")
		}
		if err := sc.Session().ResolveStoredConflict(ctx, id, resolution); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("Conflict %d resolved with %s.", id, resolution)), nil
	}
}
