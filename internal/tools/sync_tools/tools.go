package sync_tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/syncer"
	"github.com/teemow/planner/internal/tools/common"
)

// MessageSyncInFlight is returned when a sync is requested while another runs.
const MessageSyncInFlight = "A synchronization is already in progress."

// AutoSyncStatus describes the periodic sync schedule.
type AutoSyncStatus struct {
	Spec    string    `json:"spec"`
	NextRun time.Time `json:"nextRun,omitempty"`
}

// Status is the planner_sync_status result.
type Status struct {
	State       string          `json:"state"`
	LastOutcome *syncer.Wire    `json:"lastOutcome,omitempty"`
	LastAt      *time.Time      `json:"lastAt,omitempty"`
	AutoSync    *AutoSyncStatus `json:"autoSync,omitempty"`
	Conflicts   *int            `json:"openConflicts,omitempty"`
}

// RegisterSyncTools registers the provider sync tools with the MCP server.
func RegisterSyncTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	syncStatusTool := mcp.NewTool("planner_sync_status",
		mcp.WithDescription("Show whether a sync is running, the last outcome and the auto-sync schedule"),
	)
	s.AddTool(syncStatusTool, common.InstrumentedToolHandler("planner_sync_status",
		instrumentation.AreaCalendar, instrumentation.OperationGet, sc, handleSyncStatus(sc)))

	providerStatusTool := mcp.NewTool("planner_provider_status",
		mcp.WithDescription("Check whether a calendar provider is linked to your account"),
	)
	s.AddTool(providerStatusTool, common.InstrumentedToolHandler("planner_provider_status",
		instrumentation.AreaCalendar, instrumentation.OperationGet, sc, handleProviderStatus(sc)))

	getStrategyTool := mcp.NewTool("planner_get_strategy",
		mcp.WithDescription("Show how the provider resolves conflicts for you"),
	)
	s.AddTool(getStrategyTool, common.InstrumentedToolHandler("planner_get_strategy",
		instrumentation.AreaConflicts, instrumentation.OperationGet, sc, handleGetStrategy(sc)))

	if readOnly {
		return nil
	}

	syncTool := mcp.NewTool("planner_sync",
		mcp.WithDescription("Synchronize with the calendar provider. Conflicts open a resolution session"),
	)
	s.AddTool(syncTool, common.InstrumentedToolHandler("planner_sync",
		instrumentation.AreaCalendar, instrumentation.OperationPull, sc, handleSync(sc)))

	setStrategyTool := mcp.NewTool("planner_set_strategy",
		mcp.WithDescription("Set how the provider resolves conflicts for you"),
		mcp.WithString("strategy",
			mcp.Required(),
			mcp.Description("GOOGLE_PRIORITY: the provider wins, LOCAL_PRIORITY: the planner wins, ASK_USER: report conflicts"),
			mcp.Enum(string(schedule.StrategyGooglePriority), string(schedule.StrategyLocalPriority), string(schedule.StrategyAskUser)),
		),
	)
	s.AddTool(setStrategyTool, common.InstrumentedToolHandler("planner_set_strategy",
		instrumentation.AreaConflicts, instrumentation.OperationUpdate, sc, handleSetStrategy(sc)))

	return nil
}

// OutcomeResult renders a sync outcome. ErrSyncInFlight becomes a
// transient error so the caller can retry.
func OutcomeResult(op string, outcome syncer.Outcome, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, syncer.ErrSyncInFlight) {
		e := schedule.NewError(schedule.KindTransient, op, MessageSyncInFlight)
		e.Err = err
		return nil, e
	}
	if err != nil {
		return nil, err
	}
	return common.JSONResult(syncer.Encode(outcome))
}

func handleSync(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		outcome, err := sc.Session().Sync(ctx)
		return OutcomeResult("calendar.pull", outcome, err)
	}
}

func handleSyncStatus(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st := sc.Session().SyncStatus()
		out := Status{State: string(st.State)}
		if st.LastOutcome != nil {
			w := syncer.Encode(st.LastOutcome)
			out.LastOutcome = &w
			at := st.LastAt
			out.LastAt = &at
		}
		if a := sc.AutoSync(); a != nil {
			out.AutoSync = &AutoSyncStatus{Spec: a.Spec(), NextRun: a.Next()}
		}
		if c := sc.Session().Conflicts(); c.IsOpen() {
			n := c.Progress().Total
			out.Conflicts = &n
		}
		return common.JSONResult(out)
	}
}

func handleProviderStatus(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status, err := sc.Session().ProviderStatus(ctx)
		if err != nil {
			return nil, err
		}
		return common.JSONResult(status)
	}
}

func handleGetStrategy(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		strategy, err := sc.Session().Strategy(ctx)
		if err != nil {
			return nil, err
		}
		return common.JSONResult(map[string]schedule.Strategy{"strategy": strategy})
	}
}

func handleSetStrategy(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		const op = "conflicts.strategy"
		raw, err := common.NewArgs(op, request.GetArguments()).String("strategy")
		if err != nil {
			return nil, err
		}
		strategy := schedule.Strategy(strings.ToUpper(strings.TrimSpace(raw)))
		if !strategy.Valid() {
			return nil, schedule.Validation(op, "Unknown conflict strategy "+raw+".")
		}
		if err := sc.Session().SetStrategy(ctx, strategy); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText("Conflict strategy set to " + string(strategy) + "."), nil
	}
}
