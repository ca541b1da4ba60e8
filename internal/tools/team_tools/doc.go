// Package team_tools provides MCP tools for teams, the active scope and
// team invitations.
//
// Read:
//   - planner_list_teams - Your teams and the active scope
//   - planner_select_team - Switch to a team or back to personal mode
//   - planner_set_task_filter - ALL, MINE or DELEGATED within the selected team
//   - planner_list_invitations - Pending invitations
//
// Write (registered with --yolo):
//   - planner_create_team
//   - planner_invite_member - Invite by username; owner only
//   - planner_remove_member - Owner only
//   - planner_delete_team - Owner only
//   - planner_respond_invitation - Accept or decline
package team_tools
