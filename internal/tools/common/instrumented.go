package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging.
//
// A Go error returned by the handler is turned into an error result carrying
// the user-facing message, so the client sees a tool failure instead of a
// protocol error. The error kind is kept for the audit record.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("planner_list_tasks", instrumentation.AreaTasks, instrumentation.OperationList, sc, handler))
func InstrumentedToolHandler(
	toolName string,
	area string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		user, _ := sc.Session().User()

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithArea(area).
				WithOperation(operation).
				WithUser(user.Username).
				WithTeam(sc.Session().ActiveTeam()).
				WithReadOnly(sc.ReadOnly()).
				Build()...,
		)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithUser(user.Username, user.ID).
			WithTarget(area, operation).
			WithTeam(sc.Session().ActiveTeam()).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err, string(schedule.KindOf(err)))
			instrumentation.SetSpanError(span, err)
			sc.Logger().Debug("tool failed", logging.Tool(toolName),
				logging.Area(area), logging.Status(string(schedule.KindOf(err))), logging.Err(err))
			result, err = ErrorResult(err), nil
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocationWithUser(ctx, toolName, status, logging.AnonymizeUser(user.Username), duration)
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
