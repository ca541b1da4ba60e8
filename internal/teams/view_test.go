package teams

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

const me = int64(1)

func seededStore() *store.Store {
	st := store.New()
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	st.Merge(store.Delta{
		Tasks: []schedule.Task{
			{ID: 1, Title: "personal", CreatorID: me},
			{ID: 2, Title: "mine", CreatorID: 2, TeamID: schedule.ID(10), AssigneeID: schedule.ID(me)},
			{ID: 3, Title: "delegated", CreatorID: me, TeamID: schedule.ID(10), AssigneeID: schedule.ID(2)},
			{ID: 4, Title: "someone else", CreatorID: 2, TeamID: schedule.ID(10), AssigneeID: schedule.ID(3)},
			{ID: 5, Title: "self assigned", CreatorID: me, TeamID: schedule.ID(10), AssigneeID: schedule.ID(me)},
			{ID: 6, Title: "other team", CreatorID: me, TeamID: schedule.ID(20)},
		},
		Events: []schedule.Event{
			{ID: 100, Summary: "personal meeting", Start: t0, End: t0.Add(time.Hour)},
			{ID: 101, Summary: "personal task", Start: t0, End: t0.Add(time.Hour), TaskID: schedule.ID(1)},
			{ID: 102, Summary: "team via task", Start: t0, End: t0.Add(time.Hour), TaskID: schedule.ID(2)},
			{ID: 103, Summary: "team standup", Start: t0, End: t0.Add(time.Hour), TeamID: schedule.ID(10)},
			{ID: 104, Summary: "delegated event", Start: t0, End: t0.Add(time.Hour), TaskID: schedule.ID(3)},
			{ID: 105, Summary: "other team", Start: t0, End: t0.Add(time.Hour), TeamID: schedule.ID(20)},
		},
	})
	return st
}

func taskIDs(tasks []schedule.Task) []int64 {
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func eventIDs(events []schedule.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestVisibleTasks(t *testing.T) {
	st := seededStore()

	tests := []struct {
		name   string
		team   *int64
		filter Filter
		want   []int64
	}{
		{name: "personal", team: nil, filter: FilterAll, want: []int64{1}},
		{name: "team all", team: schedule.ID(10), filter: FilterAll, want: []int64{2, 3, 4, 5}},
		{name: "team mine", team: schedule.ID(10), filter: FilterMine, want: []int64{2, 5}},
		{name: "team delegated", team: schedule.ID(10), filter: FilterDelegated, want: []int64{3}},
		{name: "other team", team: schedule.ID(20), filter: FilterAll, want: []int64{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView()
			v.SelectTeam(tt.team)
			v.SetFilter(tt.filter)
			assert.Equal(t, tt.want, taskIDs(v.VisibleTasks(st, me)))
		})
	}
}

func TestVisibleEvents(t *testing.T) {
	st := seededStore()

	tests := []struct {
		name   string
		team   *int64
		filter Filter
		want   []int64
	}{
		{name: "personal", team: nil, filter: FilterAll, want: []int64{100, 101}},
		{name: "team all", team: schedule.ID(10), filter: FilterAll, want: []int64{102, 103, 104}},
		{name: "team mine", team: schedule.ID(10), filter: FilterMine, want: []int64{102}},
		{name: "team delegated", team: schedule.ID(10), filter: FilterDelegated, want: []int64{104}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView()
			v.SelectTeam(tt.team)
			v.SetFilter(tt.filter)
			assert.Equal(t, tt.want, eventIDs(v.VisibleEvents(st, me)))
		})
	}
}

func TestSelectTeamResetsFilter(t *testing.T) {
	v := NewView()
	v.SelectTeam(schedule.ID(10))
	v.SetFilter(FilterMine)
	assert.Equal(t, FilterMine, v.Filter())

	v.SelectTeam(schedule.ID(20))
	assert.Equal(t, FilterAll, v.Filter())
	assert.Equal(t, int64(20), *v.ActiveTeam())

	v.Reset()
	assert.Nil(t, v.ActiveTeam())
}

func TestSetFilter_PersonalMode(t *testing.T) {
	st := seededStore()
	v := NewView()

	v.SetFilter(FilterDelegated)
	assert.Equal(t, FilterDelegated, v.Filter(), "the filter is stored")
	assert.Equal(t, []int64{1}, taskIDs(v.VisibleTasks(st, me)), "personal mode ignores it")

	v.SelectTeam(schedule.ID(10))
	assert.Equal(t, FilterAll, v.Filter())
	assert.Equal(t, []int64{2, 3, 4, 5}, taskIDs(v.VisibleTasks(st, me)))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("mine")
	assert.NoError(t, err)
	assert.Equal(t, FilterMine, f)

	f, err = ParseFilter("")
	assert.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("everything")
	assert.True(t, schedule.IsKind(err, schedule.KindValidation))
}
