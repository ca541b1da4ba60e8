// Package resources provides MCP resources exposing the planner session.
// Resources are read-only data sources that MCP clients can fetch without
// calling a tool:
//
//   - planner://session - the signed-in user and what is loaded
//   - planner://scope - the active team and task filter
//   - planner://conflicts - progress of the open conflict session
package resources
