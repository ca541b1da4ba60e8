// Package conflict_tools provides MCP tools for resolving schedule
// conflicts reported by a sync.
//
// A sync that finds conflicts opens a resolution session. Each conflict
// pairs a local and a remote version; either can be edited or deleted, or
// the conflict can simply be checked off. Once all are resolved,
// planner_conflict_sync_now syncs again. planner_conflict_force_sync skips
// the remaining ones.
//
// Conflicts the server persisted independently of a session are handled by
// planner_list_stored_conflicts and planner_resolve_stored_conflict.
package conflict_tools
