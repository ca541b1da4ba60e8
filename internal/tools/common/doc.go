// Package common provides shared utilities for the planner MCP tools:
// the instrumented handler wrapper, argument accessors and result helpers.
package common
