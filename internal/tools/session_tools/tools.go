package session_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools/common"
)

// Summary describes the signed-in session.
type Summary struct {
	SessionID string        `json:"sessionId"`
	User      schedule.User `json:"user"`
	Tasks     int           `json:"tasks"`
	Events    int           `json:"events"`
	Teams     int           `json:"teams"`
}

// RegisterSessionTools registers the session tools. None of them change
// data on the server, so they are available in read-only mode.
func RegisterSessionTools(s *mcpserver.MCPServer, sc *server.ServerContext, _ bool) error {
	beginTool := mcp.NewTool("planner_session_begin",
		mcp.WithDescription("Sign in and load tasks, events and teams. Replaces any current session"),
		mcp.WithNumber("userId",
			mcp.Description("User ID (default: the configured user)"),
		),
		mcp.WithString("username",
			mcp.Description("Username (default: the configured username)"),
		),
	)
	s.AddTool(beginTool, common.InstrumentedToolHandler("planner_session_begin",
		instrumentation.AreaUsers, instrumentation.OperationGet, sc, handleBegin(sc)))

	statusTool := mcp.NewTool("planner_session_status",
		mcp.WithDescription("Show who is signed in and how much is loaded"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("planner_session_status",
		instrumentation.AreaUsers, instrumentation.OperationGet, sc, handleStatus(sc)))

	endTool := mcp.NewTool("planner_session_end",
		mcp.WithDescription("Sign out and clear all loaded data"),
	)
	s.AddTool(endTool, common.InstrumentedToolHandler("planner_session_end",
		instrumentation.AreaUsers, instrumentation.OperationDelete, sc, handleEnd(sc)))

	notificationsTool := mcp.NewTool("planner_notifications",
		mcp.WithDescription("Show pending notifications such as sync results and failed operations"),
		mcp.WithBoolean("drain",
			mcp.Description("Clear the notifications after reading them (default: true)"),
		),
	)
	s.AddTool(notificationsTool, common.InstrumentedToolHandler("planner_notifications",
		instrumentation.AreaUsers, instrumentation.OperationList, sc, handleNotifications(sc)))

	return nil
}

func summary(sess *session.Session) (Summary, error) {
	user, ok := sess.User()
	if !ok {
		return Summary{}, schedule.NewError(schedule.KindAuth, "session.status", session.MessageNotConnected)
	}
	tasks, events, teams := sess.Store().Counts()
	return Summary{
		SessionID: sess.ID(),
		User:      user,
		Tasks:     tasks,
		Events:    events,
		Teams:     teams,
	}, nil
}

func handleBegin(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("session.begin", request.GetArguments())
		cfg := sc.Config()

		user := schedule.User{ID: cfg.UserID, Username: cfg.Username}
		id, err := args.OptionalInt64("userId")
		if err != nil {
			return nil, err
		}
		if id != nil {
			user.ID = *id
		}
		if user.Username, err = args.StringOr("username", user.Username); err != nil {
			return nil, err
		}

		if err := sc.Session().Begin(ctx, user); err != nil {
			return nil, err
		}
		out, err := summary(sc.Session())
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Session started.", out)
	}
}

func handleStatus(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := summary(sc.Session())
		if err != nil {
			return nil, err
		}
		return common.JSONResult(out)
	}
}

func handleEnd(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !sc.Session().Active() {
			return mcp.NewToolResultText("No session is active."), nil
		}
		sc.Session().End()
		return mcp.NewToolResultText("Signed out."), nil
	}
}

func handleNotifications(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		drain, err := common.NewArgs("session.notifications", request.GetArguments()).Bool("drain", true)
		if err != nil {
			return nil, err
		}
		var notes []session.Notification
		if drain {
			notes = sc.Session().Drain()
		} else {
			notes = sc.Session().Notifications()
		}
		if notes == nil {
			notes = []session.Notification{}
		}
		return common.JSONResult(notes)
	}
}
