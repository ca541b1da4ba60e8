package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/config"
	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/syncer"
	"github.com/teemow/planner/internal/teams"
	"github.com/teemow/planner/internal/tools/tooltest"
)

// clearEnv isolates a test from the PLANNER_* variables of the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PLANNER_API_URL",
		"PLANNER_API_TOKEN",
		"PLANNER_USER_ID",
		"PLANNER_USERNAME",
		"PLANNER_HTTP_TIMEOUT",
		"PLANNER_AUTO_SYNC",
		"PLANNER_USER_CACHE_SIZE",
		"PLANNER_TRANSPORT_PREFERENCE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		opts    serveOptions
		check   func(t *testing.T, cfg config.Config)
		wantErr string
	}{
		{
			name: "environment only",
			env:  map[string]string{"PLANNER_USER_ID": "4", "PLANNER_USERNAME": "dana"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, gateway.DefaultBaseURL, cfg.APIURL)
				assert.Equal(t, int64(4), cfg.UserID)
				assert.Equal(t, "dana", cfg.Username)
			},
		},
		{
			name: "flags override the environment",
			env:  map[string]string{"PLANNER_API_URL": "http://env.example/api", "PLANNER_USER_ID": "4"},
			opts: serveOptions{apiURL: "https://flag.example/api", userID: 9, username: "erin", autoSync: "@every 5m"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "https://flag.example/api", cfg.APIURL)
				assert.Equal(t, int64(9), cfg.UserID)
				assert.Equal(t, "erin", cfg.Username)
				assert.Equal(t, "@every 5m", cfg.AutoSyncSpec())
			},
		},
		{
			name:    "relative API URL",
			opts:    serveOptions{apiURL: "/api"},
			wantErr: "must be an absolute http(s) URL",
		},
		{
			name:    "bad user id",
			env:     map[string]string{"PLANNER_USER_ID": "me"},
			wantErr: "PLANNER_USER_ID",
		},
		{
			name:    "bad transport preference",
			env:     map[string]string{"PLANNER_TRANSPORT_PREFERENCE": "outlook"},
			wantErr: "PLANNER_TRANSPORT_PREFERENCE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := loadConfig(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestAutoSyncEnabled(t *testing.T) {
	tests := []struct {
		autoSync string
		want     bool
	}{
		{autoSync: "", want: false},
		{autoSync: "false", want: false},
		{autoSync: "true", want: true},
		{autoSync: "@every 1h", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.autoSync, func(t *testing.T) {
			assert.Equal(t, tt.want, autoSyncEnabled(config.Config{AutoSync: tt.autoSync}))
		})
	}
}

func TestRegisterAllTools(t *testing.T) {
	collab := tooltest.NewCollaborator(t)
	sc := tooltest.NewServerContext(t, collab, 1)

	ro := tooltest.NewMCPServer()
	require.NoError(t, registerAllTools(ro, sc, true))
	readOnly := tooltest.ToolNames(ro)

	rw := tooltest.NewMCPServer()
	require.NoError(t, registerAllTools(rw, sc, false))
	all := tooltest.ToolNames(rw)

	assert.Subset(t, all, readOnly)
	assert.Greater(t, len(all), len(readOnly))
	for _, name := range all {
		assert.True(t, strings.HasPrefix(name, "planner_"), name)
	}

	assert.Contains(t, readOnly, "planner_session_begin")
	assert.Contains(t, readOnly, "planner_list_tasks")
	assert.Contains(t, readOnly, "planner_sync_status")
	assert.NotContains(t, readOnly, "planner_sync")
	assert.NotContains(t, readOnly, "planner_delete_task")
	assert.Contains(t, all, "planner_sync")
	assert.Contains(t, all, "planner_mark_conflict_resolved")
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name        string
		outcome     syncer.Outcome
		wantErr     error
		wantOutcome string
	}{
		{
			name:        "success",
			outcome:     syncer.Success{SyncedCount: 2, Message: "Calendar synchronized."},
			wantOutcome: "success",
		},
		{
			name:        "transient failure",
			outcome:     syncer.TransientFailure{Retryable: true, Code: syncer.CodeServiceUnavailable, Message: "later"},
			wantErr:     ErrSyncFailed,
			wantOutcome: "transient_failure",
		},
		{
			name:        "conflicts",
			outcome:     syncer.ConflictsDetected{Message: "conflicts", ReportedCount: -1},
			wantErr:     ErrSyncFailed,
			wantOutcome: "conflicts_detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := printOutcome(&out, tt.outcome)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			var wire syncer.Wire
			require.NoError(t, json.Unmarshal(out.Bytes(), &wire))
			assert.Equal(t, tt.wantOutcome, wire.Outcome)
		})
	}
}

func TestRunSync(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     error
		wantOutcome string
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			body:        `{"success":true,"syncedCount":3}`,
			wantOutcome: "success",
		},
		{
			name:        "expired link",
			status:      http.StatusUnauthorized,
			body:        `{"errorCode":"TOKEN_EXPIRED"}`,
			wantErr:     ErrSyncFailed,
			wantOutcome: "auth_expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			collab := tooltest.NewCollaborator(t)
			collab.On(http.MethodPost, "/calendar/sync/pull/1", tt.status, tt.body)
			t.Setenv("PLANNER_API_URL", collab.URL())
			t.Setenv("PLANNER_USER_ID", "1")

			var out bytes.Buffer
			err := runSync(context.Background(), serveOptions{}, &out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			var wire syncer.Wire
			require.NoError(t, json.Unmarshal(out.Bytes(), &wire))
			assert.Equal(t, tt.wantOutcome, wire.Outcome)
			assert.True(t, collab.Called(http.MethodGet, "/tasks/user/1"), "the session is loaded first")
		})
	}
}

func TestRunSync_RequiresUser(t *testing.T) {
	clearEnv(t)
	err := runSync(context.Background(), serveOptions{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user configured")
}

func TestGenerateDocs(t *testing.T) {
	categories, err := collectTools()
	require.NoError(t, err)
	require.Len(t, categories, len(toolRegistrations))
	assert.Equal(t, "Session Tools", categories[0].name)

	markdown := generateToolsMarkdown(categories)
	assert.Contains(t, markdown, "# MCP Tools Reference")
	assert.Contains(t, markdown, "- [Conflicts Tools](#conflicts-tools)")
	assert.Contains(t, markdown, "### planner_create_task")
	assert.Contains(t, markdown, "- `title` (string, required): Task title")
	assert.Contains(t, markdown, "One of: `ALL`, `MINE`, `DELEGATED`.")
}

func TestCollectTools_NoNetwork(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Config: config.Config{APIURL: gateway.DefaultBaseURL, UserCacheSize: teams.DefaultUserCacheSize},
	})
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()
	assert.False(t, sc.Session().Active())
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "planner version 1.2.3\n", out.String())
}
