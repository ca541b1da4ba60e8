package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/config"
)

func newTestMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("planner-test", "0.0.0", mcpserver.WithToolCapabilities(true))
}

func serve(t *testing.T, h http.Handler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec, body := serve(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus int
		wantBody   string
	}{
		{name: "ready", ready: true, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "not ready", ready: false, wantStatus: http.StatusServiceUnavailable, wantBody: "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(nil)
			h.SetReady(tt.ready)
			assert.Equal(t, tt.ready, h.IsReady())

			rec, body := serve(t, h.ReadinessHandler())
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestReadinessHandler_NoSessionIsReady(t *testing.T) {
	sc := newTestServerContext(t, config.Config{})
	h := NewHealthChecker(sc)

	rec, body := serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "no session", checks["session"])
}

func TestReadinessHandler_ShuttingDown(t *testing.T) {
	sc := newTestServerContext(t, config.Config{})
	h := NewHealthChecker(sc)
	require.NoError(t, sc.Shutdown())

	rec, body := serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "shutting down", checks["shutdown"])
}

func TestDetailedHealthHandler(t *testing.T) {
	t.Run("without server context", func(t *testing.T) {
		rec, body := serve(t, NewHealthChecker(nil).DetailedHealthHandler())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, body, "session")
		assert.NotEmpty(t, body["uptime"])
	})

	t.Run("idle session", func(t *testing.T) {
		sc := newTestServerContext(t, config.Config{})
		rec, body := serve(t, NewHealthChecker(sc).DetailedHealthHandler())
		assert.Equal(t, http.StatusOK, rec.Code)

		session := body["session"].(map[string]any)
		assert.Equal(t, false, session["active"])
		assert.Equal(t, "idle", session["syncState"])
		assert.Equal(t, float64(0), session["tasks"])
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHealthChecker(nil)
		h.SetReady(false)
		rec, body := serve(t, h.DetailedHealthHandler())
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not ready", body["status"])
	})
}
