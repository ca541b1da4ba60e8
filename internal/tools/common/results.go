package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/planner/internal/schedule"
)

// JSONResult renders v as indented JSON text.
func JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// MessageResult renders a message followed by v as indented JSON.
func MessageResult(message string, v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n%s", message, out)), nil
}

// ErrorResult turns err into an error result. Planner errors show their user
// message; anything else shows its text.
func ErrorResult(err error) *mcp.CallToolResult {
	if e, ok := schedule.AsError(err); ok {
		return mcp.NewToolResultError(e.UserMessage())
	}
	return mcp.NewToolResultError(err.Error())
}
