package team_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/teams"
	"github.com/teemow/planner/internal/tools/common"
)

// Scope is the active team and filter.
type Scope struct {
	TeamID *int64 `json:"teamId,omitempty"`
	Team   string `json:"team,omitempty"`
	Filter string `json:"filter"`
}

// TeamList is the planner_list_teams result.
type TeamList struct {
	Scope Scope           `json:"scope"`
	Teams []schedule.Team `json:"teams"`
}

// RegisterTeamTools registers the team and invitation tools. Selecting a
// team and setting the filter only change the local scope, so they are
// available in read-only mode.
func RegisterTeamTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTeamsTool := mcp.NewTool("planner_list_teams",
		mcp.WithDescription("List your teams and the active scope"),
		mcp.WithBoolean("refresh",
			mcp.Description("Reload the teams from the server first (default: false)"),
		),
	)
	s.AddTool(listTeamsTool, common.InstrumentedToolHandler("planner_list_teams",
		instrumentation.AreaTeams, instrumentation.OperationList, sc, handleListTeams(sc)))

	selectTeamTool := mcp.NewTool("planner_select_team",
		mcp.WithDescription("Switch the active scope to a team, or back to personal mode when teamId is omitted"),
		mcp.WithNumber("teamId",
			mcp.Description("Team to select"),
		),
	)
	s.AddTool(selectTeamTool, common.InstrumentedToolHandler("planner_select_team",
		instrumentation.AreaTeams, instrumentation.OperationGet, sc, handleSelectTeam(sc)))

	setFilterTool := mcp.NewTool("planner_set_task_filter",
		mcp.WithDescription("Set which tasks of the selected team are listed"),
		mcp.WithString("filter",
			mcp.Required(),
			mcp.Description("ALL: every team task, MINE: assigned to you, DELEGATED: created by you for others"),
			mcp.Enum(string(teams.FilterAll), string(teams.FilterMine), string(teams.FilterDelegated)),
		),
	)
	s.AddTool(setFilterTool, common.InstrumentedToolHandler("planner_set_task_filter",
		instrumentation.AreaTeams, instrumentation.OperationGet, sc, handleSetFilter(sc)))

	listInvitationsTool := mcp.NewTool("planner_list_invitations",
		mcp.WithDescription("List your pending team invitations"),
	)
	s.AddTool(listInvitationsTool, common.InstrumentedToolHandler("planner_list_invitations",
		instrumentation.AreaTeams, instrumentation.OperationList, sc, handleListInvitations(sc)))

	if readOnly {
		return nil
	}

	createTeamTool := mcp.NewTool("planner_create_team",
		mcp.WithDescription("Create a team you own"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Team name"),
		),
		mcp.WithString("description",
			mcp.Description("Team description"),
		),
	)
	s.AddTool(createTeamTool, common.InstrumentedToolHandler("planner_create_team",
		instrumentation.AreaTeams, instrumentation.OperationCreate, sc, handleCreateTeam(sc)))

	inviteTool := mcp.NewTool("planner_invite_member",
		mcp.WithDescription("Invite a user to a team you own"),
		mcp.WithNumber("teamId",
			mcp.Required(),
			mcp.Description("Team to invite into"),
		),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Username of the invitee"),
		),
	)
	s.AddTool(inviteTool, common.InstrumentedToolHandler("planner_invite_member",
		instrumentation.AreaTeams, instrumentation.OperationInvite, sc, handleInviteMember(sc)))

	removeMemberTool := mcp.NewTool("planner_remove_member",
		mcp.WithDescription("Remove a member from a team you own"),
		mcp.WithNumber("teamId",
			mcp.Required(),
			mcp.Description("Team"),
		),
		mcp.WithNumber("memberId",
			mcp.Required(),
			mcp.Description("User ID of the member"),
		),
	)
	s.AddTool(removeMemberTool, common.InstrumentedToolHandler("planner_remove_member",
		instrumentation.AreaTeams, instrumentation.OperationDelete, sc, handleRemoveMember(sc)))

	deleteTeamTool := mcp.NewTool("planner_delete_team",
		mcp.WithDescription("Delete a team you own. The server refuses while the team has active tasks"),
		mcp.WithNumber("teamId",
			mcp.Required(),
			mcp.Description("Team to delete"),
		),
	)
	s.AddTool(deleteTeamTool, common.InstrumentedToolHandler("planner_delete_team",
		instrumentation.AreaTeams, instrumentation.OperationDelete, sc, handleDeleteTeam(sc)))

	respondTool := mcp.NewTool("planner_respond_invitation",
		mcp.WithDescription("Accept or decline a team invitation"),
		mcp.WithNumber("invitationId",
			mcp.Required(),
			mcp.Description("Invitation ID"),
		),
		mcp.WithBoolean("accept",
			mcp.Required(),
			mcp.Description("true to join the team, false to decline"),
		),
	)
	s.AddTool(respondTool, common.InstrumentedToolHandler("planner_respond_invitation",
		instrumentation.AreaTeams, instrumentation.OperationRespond, sc, handleRespondInvitation(sc)))

	return nil
}

func scope(sc *server.ServerContext) Scope {
	sess := sc.Session()
	out := Scope{TeamID: sess.ActiveTeam(), Filter: string(sess.Filter())}
	if out.TeamID != nil {
		if team, ok := sess.Store().Team(*out.TeamID); ok {
			out.Team = team.Name
		}
	}
	return out
}

func handleListTeams(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		refresh, err := common.NewArgs("teams.list", request.GetArguments()).Bool("refresh", false)
		if err != nil {
			return nil, err
		}
		list := sc.Session().Teams()
		if refresh {
			if list, err = sc.Session().RefreshTeams(ctx); err != nil {
				return nil, err
			}
		}
		if list == nil {
			list = []schedule.Team{}
		}
		return common.JSONResult(TeamList{Scope: scope(sc), Teams: list})
	}
}

func handleSelectTeam(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		teamID, err := common.NewArgs("teams.select", request.GetArguments()).OptionalInt64("teamId")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().SelectTeam(teamID); err != nil {
			return nil, err
		}
		if teamID == nil {
			return common.MessageResult("Personal mode selected.", scope(sc))
		}
		if _, err := sc.Session().LoadTeamTasks(ctx, *teamID); err != nil {
			return nil, err
		}
		return common.MessageResult("Team selected.", scope(sc))
	}
}

func handleSetFilter(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter, err := common.NewArgs("teams.filter", request.GetArguments()).String("filter")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().SetFilter(filter); err != nil {
			return nil, err
		}
		return common.MessageResult("Task filter updated.", scope(sc))
	}
}

func handleListInvitations(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := sc.Session().Invitations(ctx)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []schedule.Invitation{}
		}
		return common.JSONResult(list)
	}
}

func handleCreateTeam(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("teams.create", request.GetArguments())
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		description, err := args.StringOr("description", "")
		if err != nil {
			return nil, err
		}
		team, err := sc.Session().CreateTeam(ctx, name, description)
		if err != nil {
			return nil, err
		}
		return common.MessageResult("Team created.", team)
	}
}

func handleInviteMember(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("teams.invite", request.GetArguments())
		teamID, err := args.Int64("teamId")
		if err != nil {
			return nil, err
		}
		username, err := args.String("username")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().InviteMember(ctx, teamID, username); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("Invitation sent to %s.", username)), nil
	}
}

func handleRemoveMember(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("teams.remove_member", request.GetArguments())
		teamID, err := args.Int64("teamId")
		if err != nil {
			return nil, err
		}
		memberID, err := args.Int64("memberId")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().RemoveMember(ctx, teamID, memberID); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("Member %d removed from team %d.", memberID, teamID)), nil
	}
}

func handleDeleteTeam(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		teamID, err := common.NewArgs("teams.delete", request.GetArguments()).Int64("teamId")
		if err != nil {
			return nil, err
		}
		if err := sc.Session().DeleteTeam(ctx, teamID); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("Team %d deleted.", teamID)), nil
	}
}

func handleRespondInvitation(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := common.NewArgs("invitations.respond", request.GetArguments())
		id, err := args.Int64("invitationId")
		if err != nil {
			return nil, err
		}
		if !args.Has("accept") {
			return nil, schedule.Validation("invitations.respond", "accept is required")
		}
		accept, err := args.Bool("accept", false)
		if err != nil {
			return nil, err
		}
		if err := sc.Session().RespondInvitation(ctx, id, accept); err != nil {
			return nil, err
		}
		if accept {
			return mcp.NewToolResultText("Invitation accepted."), nil
		}
		return mcp.NewToolResultText("Invitation declined."), nil
	}
}
