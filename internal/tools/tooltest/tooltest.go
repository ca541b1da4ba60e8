// Package tooltest runs planner MCP tools against a fake collaborator.
package tooltest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/config"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/server"
)

// Request is a call received by the collaborator.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

type response struct {
	status int
	body   string
}

// Collaborator is an in-process stand-in for the collaborator API. Unrouted
// GETs answer an empty list and other methods an empty object.
type Collaborator struct {
	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]response
	requests []Request
}

// NewCollaborator starts a collaborator that is closed with the test.
func NewCollaborator(t *testing.T) *Collaborator {
	t.Helper()
	c := &Collaborator{routes: map[string]response{}}
	c.srv = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.srv.Close)
	return c
}

// On answers method path (relative to the API root) with status and body.
func (c *Collaborator) On(method, path string, status int, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[method+" "+path] = response{status: status, body: body}
}

// URL returns the API root.
func (c *Collaborator) URL() string {
	return c.srv.URL + "/api"
}

// Requests returns the calls received so far.
func (c *Collaborator) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.requests...)
}

// Called reports whether method path was requested.
func (c *Collaborator) Called(method, path string) bool {
	for _, r := range c.Requests() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

func (c *Collaborator) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	c.mu.Lock()
	c.requests = append(c.requests, Request{Method: r.Method, Path: path, Query: r.URL.Query(), Body: string(body)})
	resp, ok := c.routes[r.Method+" "+path]
	c.mu.Unlock()

	if !ok {
		resp = response{status: http.StatusOK, body: `{}`}
		if r.Method == http.MethodGet {
			resp.body = `[]`
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

// NewServerContext builds a ServerContext bound to c. A positive userID
// signs that user in.
func NewServerContext(t *testing.T, c *Collaborator, userID int64) *server.ServerContext {
	t.Helper()
	cfg := config.Config{
		APIURL:        c.URL(),
		UserCacheSize: 8,
		UserID:        userID,
		Username:      "alice",
	}
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Config:     cfg,
		Logger:     logging.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil))),
		HTTPClient: c.srv.Client(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	require.NoError(t, sc.BeginConfiguredSession(context.Background()))
	return sc
}

// NewMCPServer returns an empty MCP server for registering tools.
func NewMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("planner-test", "0.0.0", mcpserver.WithToolCapabilities(true))
}

// ToolNames returns the registered tool names, sorted.
func ToolNames(s *mcpserver.MCPServer) []string {
	tools := s.ListTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes a registered tool with args.
func Call(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s is not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// Text returns the first text content of a result.
func Text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "first content is %T", result.Content[0])
	return text.Text
}
