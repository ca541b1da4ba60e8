// Package sync_tools provides MCP tools for calendar provider
// synchronization.
//
// Read:
//   - planner_sync_status - Coordinator state, last outcome, auto-sync schedule
//   - planner_provider_status - Whether a provider is linked
//   - planner_get_strategy - The conflict strategy stored for the user
//
// Write (registered with --yolo):
//   - planner_sync - Run one sync; prints the outcome
//   - planner_set_strategy
//
// A sync outcome is always returned as data, including failures such as an
// expired provider connection. Only a sync that could not start at all is
// reported as a tool error.
package sync_tools
