package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useUTC(t *testing.T) {
	t.Helper()
	prev := Zone
	Zone = time.UTC
	t.Cleanup(func() { Zone = prev })
}

func TestTaskUnmarshalSpellings(t *testing.T) {
	useUTC(t)

	tests := []struct {
		name     string
		input    string
		expected Task
	}{
		{
			name:  "estimatedDuration and completed",
			input: `{"id":1,"title":"Write report","estimatedDuration":90,"priority":1,"completed":true,"userId":7}`,
			expected: Task{
				ID: 1, Title: "Write report", EstimatedDuration: 90, Priority: 1, Completed: true, CreatorID: 7,
			},
		},
		{
			name:  "durationMinutes and done",
			input: `{"id":2,"title":"Review","durationMinutes":30,"priority":2,"done":true,"userId":7}`,
			expected: Task{
				ID: 2, Title: "Review", EstimatedDuration: 30, Priority: 2, Completed: true, CreatorID: 7,
			},
		},
		{
			name:  "duration and nested refs",
			input: `{"id":3,"title":"Deploy","duration":45,"priority":3,"team":{"id":4,"name":"ops"},"assignee":{"id":9},"user":{"id":7}}`,
			expected: Task{
				ID: 3, Title: "Deploy", EstimatedDuration: 45, Priority: 3,
				TeamID: ID(4), AssigneeID: ID(9), CreatorID: 7,
			},
		},
		{
			name:  "string ids",
			input: `{"id":4,"title":"Plan","estimatedDuration":60,"teamId":"12","assigneeId":"7","userId":"7"}`,
			expected: Task{
				ID: 4, Title: "Plan", EstimatedDuration: 60, TeamID: ID(12), AssigneeID: ID(7), CreatorID: 7,
			},
		},
		{
			name:  "null team",
			input: `{"id":5,"title":"Solo","estimatedDuration":60,"teamId":null,"userId":3}`,
			expected: Task{
				ID: 5, Title: "Solo", EstimatedDuration: 60, CreatorID: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Task
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTaskUnmarshalScheduledTimeAndEvent(t *testing.T) {
	useUTC(t)

	input := `{
		"id": 10,
		"title": "Focus",
		"estimatedDuration": 60,
		"scheduledTime": "2024-03-04T09:00:00",
		"event": {"id": 55, "summary": "Focus", "startTime": "2024-03-04T09:00:00", "endTime": "2024-03-04T10:00:00", "taskId": 10}
	}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(input), &task))

	require.True(t, task.IsScheduled())
	assert.True(t, task.ScheduledTime.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
	require.NotNil(t, task.Event)
	assert.Equal(t, int64(55), task.Event.ID)
	assert.True(t, task.Event.LinkedTo(10))
	assert.Equal(t, time.Hour, task.Event.Duration())
}

func TestTaskUnmarshalBadTimestamp(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":1,"scheduledTime":"tomorrow"}`), &task)
	assert.Error(t, err)
}

func TestTaskMarshalEmitsBothDurationSpellings(t *testing.T) {
	useUTC(t)

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	task := Task{ID: 1, Title: "x", EstimatedDuration: 25, Completed: true, ScheduledTime: &at, TeamID: ID(3), CreatorID: 8}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, float64(25), m["estimatedDuration"])
	assert.Equal(t, float64(25), m["durationMinutes"])
	assert.Equal(t, true, m["completed"])
	assert.Equal(t, "2024-03-04T09:00:00", m["scheduledTime"])
	assert.Equal(t, float64(3), m["teamId"])
	assert.Equal(t, float64(8), m["userId"])
	assert.NotContains(t, m, "assigneeId")
}

func TestTaskMarshalUnscheduledSendsNull(t *testing.T) {
	data, err := json.Marshal(Task{Title: "x", EstimatedDuration: 60})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scheduledTime":null`)
}

func TestEventUnmarshal(t *testing.T) {
	useUTC(t)

	tests := []struct {
		name       string
		input      string
		summary    string
		source     Source
		wantTaskID *int64
	}{
		{
			name:    "summary and google source",
			input:   `{"id":1,"summary":"Standup","startTime":"2024-03-04T09:00:00","endTime":"2024-03-04T09:15:00","source":"GOOGLE"}`,
			summary: "Standup",
			source:  SourceRemote,
		},
		{
			name:       "title fallback and local source",
			input:      `{"id":2,"title":"Lunch","start":"2024-03-04T12:00:00","end":"2024-03-04T13:00:00","source":"LOCAL","taskId":4}`,
			summary:    "Lunch",
			source:     SourceLocal,
			wantTaskID: ID(4),
		},
		{
			name:    "missing source is local",
			input:   `{"id":3,"summary":"Gym","startTime":"2024-03-04T18:00:00Z","endTime":"2024-03-04T19:00:00Z"}`,
			summary: "Gym",
			source:  SourceLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Event
			require.NoError(t, json.Unmarshal([]byte(tt.input), &e))
			assert.Equal(t, tt.summary, e.Summary)
			assert.Equal(t, tt.source, e.Source)
			assert.Equal(t, tt.wantTaskID, e.TaskID)
			assert.True(t, e.ValidInterval())
		})
	}
}

func TestEventMarshalUsesWireLayout(t *testing.T) {
	useUTC(t)

	e := Event{
		ID:       3,
		Summary:  "Dentist",
		Start:    time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC),
		End:      time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC),
		Location: &Location{Address: "Main St 1"},
		Source:   SourceLocal,
	}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "2024-05-01T14:30:00", m["startTime"])
	assert.Equal(t, "2024-05-01T15:00:00", m["endTime"])
	assert.Equal(t, "Dentist", m["summary"])
	assert.Equal(t, map[string]interface{}{"address": "Main St 1"}, m["location"])
}

func TestTeamUnmarshalOwnerSpellings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		owner int64
	}{
		{name: "ownerId", input: `{"id":1,"name":"a","ownerId":5}`, owner: 5},
		{name: "owner object", input: `{"id":1,"name":"a","owner":{"id":6,"username":"bo"}}`, owner: 6},
		{name: "no owner", input: `{"id":1,"name":"a"}`, owner: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var team Team
			require.NoError(t, json.Unmarshal([]byte(tt.input), &team))
			assert.Equal(t, tt.owner, team.OwnerID)
		})
	}
}

func TestTeamHasMember(t *testing.T) {
	team := Team{ID: 1, OwnerID: 10, Members: []User{{ID: 11, Username: "ann"}}}

	assert.True(t, team.HasMember(10), "owner is always a member")
	assert.True(t, team.HasMember(11))
	assert.False(t, team.HasMember(12))
}

func TestEncodeEventInput(t *testing.T) {
	useUTC(t)

	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	useMaps := true
	payload := EncodeEventInput(EventInput{
		Summary:       "Commute",
		Start:         start,
		End:           start.Add(30 * time.Minute),
		TaskID:        ID(2),
		UserID:        4,
		UseGoogleMaps: &useMaps,
	})

	assert.Equal(t, "2024-05-01T08:00:00", payload["startTime"])
	assert.Equal(t, "2024-05-01T08:30:00", payload["endTime"])
	assert.Equal(t, int64(2), payload["taskId"])
	assert.Equal(t, true, payload["useGoogleMaps"])
	assert.NotContains(t, payload, "teamId")
}

func TestCloneIsDeep(t *testing.T) {
	at := time.Now()
	task := Task{ID: 1, ScheduledTime: &at, TeamID: ID(2), Event: &Event{ID: 3, TaskID: ID(1)}}

	c := task.Clone()
	*c.TeamID = 99
	c.Event.ID = 42

	assert.Equal(t, int64(2), *task.TeamID)
	assert.Equal(t, int64(3), task.Event.ID)
}
