package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/schedule"
)

func at(hour int) time.Time {
	return time.Date(2024, 3, 4, hour, 0, 0, 0, time.UTC)
}

func TestMergeUpserts(t *testing.T) {
	s := New()
	s.Merge(Delta{Tasks: []schedule.Task{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}})
	s.Merge(Delta{Tasks: []schedule.Task{{ID: 1, Title: "a2"}}})

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(1), tasks[0].ID)
	assert.Equal(t, "a2", tasks[0].Title)
	assert.Equal(t, "b", tasks[1].Title)
}

func TestMergeSplitsNestedEvent(t *testing.T) {
	s := New()
	s.Merge(Delta{Tasks: []schedule.Task{{
		ID:    1,
		Event: &schedule.Event{ID: 10, TaskID: schedule.ID(1), Start: at(9), End: at(10)},
	}}})

	task, ok := s.Task(1)
	require.True(t, ok)
	assert.Nil(t, task.Event)

	events := s.EventsForTask(1)
	require.Len(t, events, 1)
	assert.Equal(t, int64(10), events[0].ID)
}

func TestRemoveTaskCascadesToEvents(t *testing.T) {
	s := New()
	s.Merge(Delta{
		Tasks: []schedule.Task{{ID: 1}, {ID: 2}},
		Events: []schedule.Event{
			{ID: 10, TaskID: schedule.ID(1), Start: at(9), End: at(10)},
			{ID: 11, TaskID: schedule.ID(1), Start: at(11), End: at(12)},
			{ID: 12, TaskID: schedule.ID(2), Start: at(13), End: at(14)},
			{ID: 13, Start: at(15), End: at(16)},
		},
	})

	require.NoError(t, s.Remove(KindTask, 1))

	_, ok := s.Task(1)
	assert.False(t, ok)
	events := s.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(12), events[0].ID)
	assert.Equal(t, int64(13), events[1].ID)
}

func TestRemoveEventIsLocal(t *testing.T) {
	s := New()
	s.Merge(Delta{
		Tasks:  []schedule.Task{{ID: 1}},
		Events: []schedule.Event{{ID: 10, TaskID: schedule.ID(1)}},
	})

	require.NoError(t, s.Remove(KindEvent, 10))

	_, ok := s.Task(1)
	assert.True(t, ok)
	assert.Empty(t, s.Events())
}

func TestRemoveTeamGuard(t *testing.T) {
	tests := []struct {
		name      string
		tasks     []schedule.Task
		wantErr   bool
		wantTasks int
	}{
		{
			name:      "no tasks",
			wantTasks: 0,
		},
		{
			name:      "active task blocks removal",
			tasks:     []schedule.Task{{ID: 1, TeamID: schedule.ID(5)}},
			wantErr:   true,
			wantTasks: 1,
		},
		{
			name: "completed tasks stay",
			tasks: []schedule.Task{
				{ID: 1, TeamID: schedule.ID(5), Completed: true},
				{ID: 2},
			},
			wantTasks: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Merge(Delta{Tasks: tt.tasks, Teams: []schedule.Team{{ID: 5, Name: "ops"}}})

			err := s.Remove(KindTeam, 5)
			_, teamLeft := s.Team(5)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, schedule.IsKind(err, schedule.KindValidation))
				assert.True(t, teamLeft)
			} else {
				require.NoError(t, err)
				assert.False(t, teamLeft)
			}
			assert.Len(t, s.Tasks(), tt.wantTasks)
		})
	}
}

func TestReplace(t *testing.T) {
	s := New()
	s.Merge(Delta{
		Tasks: []schedule.Task{{ID: 1}, {ID: 2, TeamID: schedule.ID(5)}},
		Events: []schedule.Event{
			{ID: 10, TaskID: schedule.ID(1)},
			{ID: 11, TaskID: schedule.ID(2)},
			{ID: 12},
		},
		Teams: []schedule.Team{{ID: 5}},
	})

	s.Replace(Delta{
		Tasks:  []schedule.Task{{ID: 3}},
		Events: []schedule.Event{{ID: 13}},
	}, func(t schedule.Task) bool { return t.TeamID != nil })

	var taskIDs, eventIDs []int64
	for _, t := range s.Tasks() {
		taskIDs = append(taskIDs, t.ID)
	}
	for _, e := range s.Events() {
		eventIDs = append(eventIDs, e.ID)
	}
	assert.Equal(t, []int64{2, 3}, taskIDs)
	assert.ElementsMatch(t, []int64{11, 13}, eventIDs)
	_, ok := s.Team(5)
	assert.True(t, ok, "teams are not replaced")

	s.Replace(Delta{}, nil)
	tasks, events, teams := s.Counts()
	assert.Zero(t, tasks)
	assert.Zero(t, events)
	assert.Equal(t, 1, teams)
}

func TestRemoveUnknownKind(t *testing.T) {
	assert.Error(t, New().Remove("widget", 1))
}

func TestEventsOrderedByStart(t *testing.T) {
	s := New()
	s.Merge(Delta{Events: []schedule.Event{
		{ID: 1, Start: at(12)},
		{ID: 2, Start: at(8)},
		{ID: 3, Start: at(8)},
	}})

	events := s.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{events[0].ID, events[1].ID, events[2].ID})
}

func TestReadersReturnCopies(t *testing.T) {
	s := New()
	s.Merge(Delta{Teams: []schedule.Team{{ID: 1, Members: []schedule.User{{ID: 2}}}}})

	team, _ := s.Team(1)
	team.Members[0].ID = 99

	again, _ := s.Team(1)
	assert.Equal(t, int64(2), again.Members[0].ID)
}

func TestReplaceTeams(t *testing.T) {
	s := New()
	s.Merge(Delta{Teams: []schedule.Team{{ID: 1}, {ID: 2}}})
	s.ReplaceTeams([]schedule.Team{{ID: 3}})

	teams := s.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, int64(3), teams[0].ID)
}

func TestResetAndCounts(t *testing.T) {
	s := New()
	s.Merge(Delta{
		Tasks:  []schedule.Task{{ID: 1}},
		Events: []schedule.Event{{ID: 1}, {ID: 2}},
		Teams:  []schedule.Team{{ID: 1}},
	})
	tasks, events, teams := s.Counts()
	assert.Equal(t, []int{1, 2, 1}, []int{tasks, events, teams})

	s.Reset()
	tasks, events, teams = s.Counts()
	assert.Equal(t, []int{0, 0, 0}, []int{tasks, events, teams})
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			s.Merge(Delta{Tasks: []schedule.Task{{ID: id}}})
		}(int64(i))
		go func() {
			defer wg.Done()
			_ = s.Tasks()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Tasks(), 20)
}

func TestDeltaEmpty(t *testing.T) {
	assert.True(t, Delta{}.Empty())
	assert.False(t, Delta{Teams: []schedule.Team{{ID: 1}}}.Empty())
}
