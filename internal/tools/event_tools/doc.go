// Package event_tools provides MCP tools for calendar events.
//
// Available tools:
//
// Read:
//   - planner_list_events - Events of the active scope, optionally within a time window
//   - planner_activity_stats - Logged time per activity category
//
// Write (registered with --yolo):
//   - planner_create_event - Create an event
//   - planner_update_event - Change an event; omitted fields are kept
//   - planner_move_event - Move an event keeping its duration
//   - planner_delete_event - Delete an event and unschedule its task
//
// Timestamps are accepted as RFC 3339 or as naive local time such as
// 2024-05-01T09:00:00.
package event_tools
