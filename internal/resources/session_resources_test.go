package resources

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/tools/tooltest"
)

func read(t *testing.T, uri string, fn func(mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)) map[string]interface{} {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	contents, err := fn(req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok, "content is %T", contents[0])
	assert.Equal(t, uri, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &data))
	return data
}

func TestRegisterSessionResources(t *testing.T) {
	collab := tooltest.NewCollaborator(t)
	s := tooltest.NewMCPServer()
	require.NoError(t, RegisterSessionResources(s, tooltest.NewServerContext(t, collab, 1)))
}

func TestSessionResource(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		collab := tooltest.NewCollaborator(t)
		collab.On(http.MethodGet, "/tasks/user/1", http.StatusOK, `[{"id":3,"title":"Write report","estimatedDuration":60,"priority":2,"userId":1}]`)
		sc := tooltest.NewServerContext(t, collab, 1)

		data := read(t, URISession, func(r mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return handleSession(r, sc)
		})
		assert.Equal(t, true, data["connected"])
		assert.Equal(t, float64(1), data["tasks"])
		assert.Equal(t, "idle", data["syncState"])
		assert.NotEmpty(t, data["sessionId"])
	})

	t.Run("signed out", func(t *testing.T) {
		sc := tooltest.NewServerContext(t, tooltest.NewCollaborator(t), 0)
		data := read(t, URISession, func(r mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return handleSession(r, sc)
		})
		assert.Equal(t, false, data["connected"])
	})
}

func TestScopeResource(t *testing.T) {
	collab := tooltest.NewCollaborator(t)
	collab.On(http.MethodGet, "/teams/user/1", http.StatusOK, `[{"id":7,"name":"Platform","ownerId":1}]`)
	sc := tooltest.NewServerContext(t, collab, 1)

	readScope := func(r mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleScope(r, sc)
	}

	data := read(t, URIScope, readScope)
	assert.NotContains(t, data, "teamId")

	team := int64(7)
	require.NoError(t, sc.Session().SelectTeam(&team))
	data = read(t, URIScope, readScope)
	assert.Equal(t, float64(7), data["teamId"])
	assert.Equal(t, "Platform", data["team"])
}

func TestConflictsResource_Closed(t *testing.T) {
	sc := tooltest.NewServerContext(t, tooltest.NewCollaborator(t), 1)
	data := read(t, URIConflicts, func(r mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleConflicts(r, sc)
	})
	assert.Equal(t, map[string]interface{}{"open": false}, data)
}
