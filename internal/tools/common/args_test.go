package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/schedule"
)

func TestArgs_Int64(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int64
		wantErr string
	}{
		{name: "json number", value: float64(42), want: 42},
		{name: "numeric string", value: " 7 ", want: 7},
		{name: "json.Number", value: json.Number("12"), want: 12},
		{name: "int", value: 3, want: 3},
		{name: "fraction", value: 1.5, wantErr: "taskId must be an integer"},
		{name: "word", value: "seven", wantErr: "taskId must be an integer"},
		{name: "bool", value: true, wantErr: "taskId must be an integer"},
		{name: "missing", wantErr: "taskId is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]interface{}{}
			if tt.value != nil {
				raw["taskId"] = tt.value
			}

			got, err := NewArgs("tasks.edit", raw).Int64("taskId")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, schedule.IsKind(err, schedule.KindValidation))
				e, _ := schedule.AsError(err)
				assert.Equal(t, tt.wantErr, e.UserMessage())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs_Optional(t *testing.T) {
	args := NewArgs("tasks.edit", map[string]interface{}{
		"title":    "Write report",
		"duration": float64(30),
		"teamId":   nil,
	})

	title, err := args.OptionalString("title")
	require.NoError(t, err)
	require.NotNil(t, title)
	assert.Equal(t, "Write report", *title)

	duration, err := args.OptionalInt("duration")
	require.NoError(t, err)
	require.NotNil(t, duration)
	assert.Equal(t, 30, *duration)

	team, err := args.OptionalInt64("teamId")
	require.NoError(t, err)
	assert.Nil(t, team, "null is treated as absent")

	priority, err := args.OptionalInt("priority")
	require.NoError(t, err)
	assert.Nil(t, priority)
}

func TestArgs_NilArguments(t *testing.T) {
	args := NewArgs("tasks.list", nil)
	assert.False(t, args.Has("anything"))

	s, err := args.StringOr("filter", "ALL")
	require.NoError(t, err)
	assert.Equal(t, "ALL", s)
}

func TestArgs_String(t *testing.T) {
	_, err := NewArgs("teams.create", map[string]interface{}{"name": "   "}).String("name")
	assert.ErrorContains(t, err, "name is required")

	_, err = NewArgs("teams.create", map[string]interface{}{"name": 5.0}).String("name")
	assert.ErrorContains(t, err, "name must be a string")
}

func TestArgs_Bool(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]interface{}
		want    bool
		wantErr bool
	}{
		{name: "absent uses default", raw: map[string]interface{}{}, want: true},
		{name: "bool", raw: map[string]interface{}{"accept": false}, want: false},
		{name: "string", raw: map[string]interface{}{"accept": "false"}, want: false},
		{name: "garbage", raw: map[string]interface{}{"accept": "maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewArgs("invitations.respond", tt.raw).Bool("accept", true)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs_Time(t *testing.T) {
	args := NewArgs("events.move", map[string]interface{}{
		"zoned": "2024-05-01T09:00:00Z",
		"naive": "2024-05-01T09:00:00",
		"bad":   "next tuesday",
	})

	zoned, err := args.Time("zoned")
	require.NoError(t, err)
	assert.True(t, zoned.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))

	naive, err := args.Time("naive")
	require.NoError(t, err)
	assert.Equal(t, 9, naive.Hour())
	assert.Equal(t, schedule.Zone, naive.Location())

	_, err = args.Time("bad")
	assert.ErrorContains(t, err, "bad must be a timestamp")

	_, err = args.Time("missing")
	assert.ErrorContains(t, err, "missing is required")
}

func TestArgs_Date(t *testing.T) {
	args := NewArgs("tasks.place", map[string]interface{}{"day": "2024-05-01", "bad": "05/01/2024"})

	day, err := args.Date("day")
	require.NoError(t, err)
	assert.Equal(t, time.May, day.Month())
	assert.Equal(t, 1, day.Day())

	_, err = args.Date("bad")
	assert.ErrorContains(t, err, "bad must be a date")
}

func TestArgs_IDs(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    []int64
		wantErr bool
	}{
		{name: "single", value: float64(4), want: []int64{4}},
		{name: "array", value: []interface{}{float64(1), "2"}, want: []int64{1, 2}},
		{name: "empty array", value: []interface{}{}, wantErr: true},
		{name: "bad element", value: []interface{}{float64(1), "x"}, wantErr: true},
		{name: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]interface{}{}
			if tt.value != nil {
				raw["taskIds"] = tt.value
			}
			got, err := NewArgs("tasks.delete", raw).IDs("taskIds")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
