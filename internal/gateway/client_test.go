package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/schedule"
)

// recorded is one request seen by the fake collaborator.
type recorded struct {
	Method    string
	Path      string
	Query     string
	Body      string
	Auth      string
	RequestID string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recorded
}

func (r *recorder) add(req recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.reqs...)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *recorder) {
	t.Helper()
	seen := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen.add(recorded{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      string(body),
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get(HeaderRequestID),
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), Config{BaseURL: srv.URL + "/api", Token: "secret"})
	require.NoError(t, err)
	return client, seen
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func useUTC(t *testing.T) {
	t.Helper()
	prev := schedule.Zone
	schedule.Zone = time.UTC
	t.Cleanup(func() { schedule.Zone = prev })
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = New(context.Background(), Config{BaseURL: "https://planner.example.com/api/"})
	require.NoError(t, err)
	assert.Equal(t, "https://planner.example.com/api", c.BaseURL())

	_, err = New(context.Background(), Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestListUserTasks_Envelopes(t *testing.T) {
	useUTC(t)
	bodies := map[string]string{
		"bare":  `[{"id":1,"title":"Write report","estimatedDuration":90,"userId":7}]`,
		"data":  `{"data":[{"id":1,"title":"Write report","durationMinutes":90,"user":{"id":7}}]}`,
		"paged": `{"content":[{"id":1,"title":"Write report","duration":90,"userId":"7"}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})

			tasks, err := client.ListUserTasks(context.Background(), 7)
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			assert.Equal(t, int64(1), tasks[0].ID)
			assert.Equal(t, 90, tasks[0].EstimatedDuration)
			assert.Equal(t, int64(7), tasks[0].CreatorID)

			require.Len(t, seen.all(), 1)
			req := seen.all()[0]
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/api/tasks/user/7", req.Path)
			assert.Equal(t, "Bearer secret", req.Auth)
			assert.NotEmpty(t, req.RequestID)
		})
	}
}

func TestListUserTasks_SkipsBadElements(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":1,"title":"ok"},{"id":2,"scheduledTime":"yesterday"}]`)
	})

	tasks, err := client.ListUserTasks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(1), tasks[0].ID)
}

func TestListTeamTasks(t *testing.T) {
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"content":[{"id":4,"title":"Rotate keys","teamId":7}]}`)
	})

	tasks, err := client.ListTeamTasks(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].TeamID)
	assert.Equal(t, int64(7), *tasks[0].TeamID)
	assert.Equal(t, "/api/tasks/team/7", seen.all()[0].Path)
}

func TestActivityStats(t *testing.T) {
	useUTC(t)
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"category":"SPORT","count":2,"totalMinutes":90,"averageMinutes":45},{"category":"ETUDE","count":3,"totalMinutes":120}]`)
	})

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	stats, err := client.ActivityStats(context.Background(), 4, &from, nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(45), stats[0].AverageMinutes)
	assert.Equal(t, int64(40), stats[1].AverageMinutes, "missing average is derived")

	req := seen.all()[0]
	assert.Equal(t, "/api/activity/stats/4", req.Path)
	assert.Equal(t, "start=2025-03-01T00%3A00%3A00", req.Query)
}

func TestListEvents_UnknownShapeIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"unexpected":"shape"}`)
	})

	events, err := client.ListUserEvents(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestUpdateTask(t *testing.T) {
	useUTC(t)
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":5,"title":"Renamed","estimatedDuration":30,"completed":true}`)
	})

	got, err := client.UpdateTask(context.Background(), 9, schedule.Task{ID: 5, Title: "Renamed", EstimatedDuration: 30, Completed: true})
	require.NoError(t, err)
	assert.True(t, got.Completed)

	req := seen.all()[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/tasks/5", req.Path)
	assert.Equal(t, "userId=9", req.Query)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, float64(30), body["estimatedDuration"])
	assert.Equal(t, true, body["completed"])
}

func TestPlanify(t *testing.T) {
	useUTC(t)
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":3,"title":"Plan","estimatedDuration":60,
			"scheduledTime":"2025-03-10T09:00:00",
			"event":{"id":40,"summary":"Plan","startTime":"2025-03-10T09:00:00","endTime":"2025-03-10T10:00:00","taskId":3}}`)
	})

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	task, err := client.Planify(context.Background(), 3, &Interval{Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, task.Event)
	assert.Equal(t, int64(40), task.Event.ID)

	req := seen.all()[0]
	assert.Equal(t, "/api/tasks/3/planify", req.Path)
	assert.Equal(t, "end=2025-03-10T10%3A00%3A00&start=2025-03-10T09%3A00%3A00", req.Query)

	_, err = client.Planify(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.Empty(t, seen.all()[1].Query)
}

func TestCreateEvent_TransportPreference(t *testing.T) {
	useUTC(t)
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"id":11,"summary":"Dentist","startTime":"2025-03-10T09:00:00","endTime":"2025-03-10T10:00:00"}`)
	})

	maps := true
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ev, err := client.CreateEvent(context.Background(), schedule.EventInput{
		Summary:       "Dentist",
		Start:         start,
		End:           start.Add(time.Hour),
		Location:      &schedule.Location{Address: "1 Main St"},
		UserID:        2,
		UseGoogleMaps: &maps,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), ev.ID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(seen.all()[0].Body), &body))
	assert.Equal(t, true, body["useGoogleMaps"])
	assert.Equal(t, "2025-03-10T09:00:00", body["startTime"])
	assert.Equal(t, map[string]interface{}{"address": "1 Main St"}, body["location"])
}

func TestErrorConversion(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind schedule.Kind
		wantMsg  string
	}{
		{name: "bad request", status: 400, body: `{"message":"Title is required"}`, wantKind: schedule.KindValidation, wantMsg: "Title is required"},
		{name: "unprocessable", status: 422, body: `{"userMessage":"Too long","message":"len>480"}`, wantKind: schedule.KindValidation, wantMsg: "Too long"},
		{name: "not found", status: 404, body: ``, wantKind: schedule.KindValidation, wantMsg: "The requested item was not found."},
		{name: "unauthorized", status: 401, body: ``, wantKind: schedule.KindAuth},
		{name: "forbidden", status: 403, body: `"Only the owner can do this"`, wantKind: schedule.KindPermission, wantMsg: "Only the owner can do this"},
		{name: "conflict", status: 409, body: `{"message":"overlap"}`, wantKind: schedule.KindConflict, wantMsg: "overlap"},
		{name: "unavailable", status: 503, body: ``, wantKind: schedule.KindTransient},
		{name: "server error string", status: 500, body: `Team still has active tasks`, wantKind: schedule.KindUnknown, wantMsg: "Team still has active tasks"},
		{name: "server error html", status: 500, body: `<html>boom</html>`, wantKind: schedule.KindUnknown, wantMsg: schedule.GenericErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := client.DeleteTeam(context.Background(), 1, 2)
			require.Error(t, err)
			e, ok := schedule.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, "teams.delete", e.Op)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, e.Message)
			}
			assert.NotEmpty(t, e.UserMessage())
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := New(context.Background(), Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ListTeams(context.Background(), 1)
	assert.True(t, schedule.IsKind(err, schedule.KindNetwork))

	_, err = client.PullSync(context.Background(), 1)
	assert.True(t, schedule.IsKind(err, schedule.KindNetwork))

	status := client.ProviderStatus(context.Background(), 1)
	assert.False(t, status.Connected)
	assert.Equal(t, int64(1), status.UserID)
	assert.NotEmpty(t, status.Error)
}

func TestPullSync_ReturnsFailureStatuses(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"errorCode":"SCHEDULE_CONFLICTS","conflictCount":1}`)
	})

	resp, err := client.PullSync(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.JSONEq(t, `{"errorCode":"SCHEDULE_CONFLICTS","conflictCount":1}`, string(resp.Body))
}

func TestTeamsEndpoints(t *testing.T) {
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/username/alice":
			writeJSON(w, http.StatusOK, `{"id":21,"username":"alice"}`)
		case "/api/teams/invitations/pending/2":
			writeJSON(w, http.StatusOK, `[{"id":5,"team":{"id":3,"name":"Ops"},"inviter":{"id":1,"username":"bob"}}]`)
		default:
			writeJSON(w, http.StatusOK, `{}`)
		}
	})
	ctx := context.Background()

	user, err := client.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(21), user.ID)

	require.NoError(t, client.InviteMember(ctx, 3, 21, 1))
	require.NoError(t, client.RemoveMember(ctx, 3, 21, 1))

	invs, err := client.PendingInvitations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, "Ops", invs[0].Team.Name)

	require.NoError(t, client.RespondInvitation(ctx, 5, true))

	want := []recorded{
		{Method: http.MethodGet, Path: "/api/users/username/alice"},
		{Method: http.MethodPost, Path: "/api/teams/3/invite/21", Query: "inviterId=1"},
		{Method: http.MethodDelete, Path: "/api/teams/3/members/21", Query: "requesterId=1"},
		{Method: http.MethodGet, Path: "/api/teams/invitations/pending/2"},
		{Method: http.MethodPost, Path: "/api/teams/invitations/5/respond", Query: "accept=true"},
	}
	require.Len(t, seen.all(), len(want))
	for i, w := range want {
		assert.Equal(t, w.Method, seen.all()[i].Method)
		assert.Equal(t, w.Path, seen.all()[i].Path)
		assert.Equal(t, w.Query, seen.all()[i].Query)
	}

	_, err = client.UserByUsername(ctx, "")
	assert.True(t, schedule.IsKind(err, schedule.KindValidation))
}

func TestStrategyAndStoredConflicts(t *testing.T) {
	client, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/conflicts/user/2/strategy":
			writeJSON(w, http.StatusOK, `{"strategy":"ASK_USER"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/conflicts/user/2":
			writeJSON(w, http.StatusOK, `[{"id":8,"localTitle":"Standup","googleTitle":"Standup (moved)"}]`)
		default:
			writeJSON(w, http.StatusOK, `{}`)
		}
	})
	ctx := context.Background()

	s, err := client.Strategy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, schedule.StrategyAskUser, s)

	require.NoError(t, client.SetStrategy(ctx, 2, schedule.StrategyLocalPriority))
	assert.JSONEq(t, `{"strategy":"LOCAL_PRIORITY"}`, seen.all()[1].Body)

	err = client.SetStrategy(ctx, 2, "WHATEVER")
	assert.True(t, schedule.IsKind(err, schedule.KindValidation))

	stored, err := client.StoredConflicts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Standup (moved)", stored[0].GoogleTitle)

	require.NoError(t, client.ResolveStoredConflict(ctx, 8, schedule.ResolutionKeepGoogle))
	last := seen.all()[len(seen.all())-1]
	assert.Equal(t, "/api/conflicts/8/resolve", last.Path)
	assert.JSONEq(t, `{"resolution":"KEEP_GOOGLE"}`, last.Body)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "", ServerMessage(nil))
	assert.Equal(t, "plain", ServerMessage([]byte("plain")))
	assert.Equal(t, "quoted", ServerMessage([]byte(`"quoted"`)))
	assert.Equal(t, "user", ServerMessage([]byte(`{"userMessage":"user","message":"dev"}`)))
	assert.Equal(t, "dev", ServerMessage([]byte(`{"message":"dev"}`)))
	assert.Equal(t, "", ServerMessage([]byte(`{"errorCode":"X"}`)))
	assert.Equal(t, "", ServerMessage([]byte(`[1,2]`)))
}
