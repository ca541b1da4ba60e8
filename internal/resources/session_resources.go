package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/session"
)

// Resource URIs.
const (
	URISession   = "planner://session"
	URIScope     = "planner://scope"
	URIConflicts = "planner://conflicts"
)

// RegisterSessionResources registers the session resources.
func RegisterSessionResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sessionResource := mcp.NewResource(
		URISession,
		"Planner Session",
		mcp.WithResourceDescription("The signed-in user and the number of loaded tasks, events and teams"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(sessionResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSession(request, sc)
	})

	scopeResource := mcp.NewResource(
		URIScope,
		"Active Scope",
		mcp.WithResourceDescription("The selected team, if any, and the task filter"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(scopeResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleScope(request, sc)
	})

	conflictsResource := mcp.NewResource(
		URIConflicts,
		"Conflict Session",
		mcp.WithResourceDescription("Progress of the open conflict resolution session"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(conflictsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleConflicts(request, sc)
	})

	return nil
}

func handleSession(request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	sess := sc.Session()
	user, ok := sess.User()
	if !ok {
		return jsonContents(request, map[string]interface{}{
			"connected": false,
			"message":   session.MessageNotConnected,
		})
	}

	tasks, events, teams := sess.Store().Counts()
	return jsonContents(request, map[string]interface{}{
		"connected": true,
		"sessionId": sess.ID(),
		"user":      user,
		"tasks":     tasks,
		"events":    events,
		"teams":     teams,
		"syncState": string(sess.SyncStatus().State),
	})
}

func handleScope(request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	sess := sc.Session()
	data := map[string]interface{}{
		"filter": string(sess.Filter()),
	}
	if id := sess.ActiveTeam(); id != nil {
		data["teamId"] = *id
		if team, ok := sess.Store().Team(*id); ok {
			data["team"] = team.Name
		}
	}
	return jsonContents(request, data)
}

func handleConflicts(request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	c := sc.Session().Conflicts()
	if !c.IsOpen() {
		return jsonContents(request, map[string]interface{}{"open": false})
	}
	p := c.Progress()
	return jsonContents(request, map[string]interface{}{
		"open":     true,
		"resolved": p.Resolved,
		"total":    p.Total,
		"percent":  p.Percent(),
	})
}

func jsonContents(request mcp.ReadResourceRequest, data interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", request.Params.URI, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
