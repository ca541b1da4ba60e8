// Package session_tools provides MCP tools for signing in and out and for
// reading session notifications.
//
// Tools:
//   - planner_session_begin - Sign in and load the schedule
//   - planner_session_status - Signed-in user and loaded counts
//   - planner_session_end - Sign out
//   - planner_notifications - Pending notifications, drained by default
package session_tools
