// Package cmd implements the command-line interface for planner.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide planning tools for AI assistants
//   - sync: Run one calendar provider sync and print the outcome
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
