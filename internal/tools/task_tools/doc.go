// Package task_tools provides MCP tools for the planner's tasks.
//
// Available tools:
//
// Read:
//   - planner_list_tasks - Tasks of the active scope, optionally filtered by completion and placement
//
// Write (registered with --yolo):
//   - planner_create_task - Create an unscheduled task
//   - planner_edit_task - Change title, duration, priority or assignee
//   - planner_toggle_task - Flip completion of one or more tasks
//   - planner_delete_task - Delete one or more tasks and their events
//   - planner_place_task - Schedule a task at a slot or at the next free slot
//
// Only the creator or the assignee of a task may change it.
package task_tools
