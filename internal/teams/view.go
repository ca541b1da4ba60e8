package teams

import (
	"fmt"
	"strings"
	"sync"

	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

// Filter narrows the tasks shown inside a team.
type Filter string

const (
	FilterAll       Filter = "ALL"
	FilterMine      Filter = "MINE"
	FilterDelegated Filter = "DELEGATED"
)

// ParseFilter accepts a filter name in any case.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(s))); f {
	case FilterAll, FilterMine, FilterDelegated:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", schedule.Validation("teams.filter", fmt.Sprintf("Unknown task filter %q.", s))
}

// View is the active scope: personal mode (no team) or one team with a
// sub-filter.
type View struct {
	mu     sync.RWMutex
	active *int64
	filter Filter
}

// NewView returns a view in personal mode.
func NewView() *View {
	return &View{filter: FilterAll}
}

// SelectTeam switches the scope. nil selects personal mode. The filter is
// reset to ALL.
func (v *View) SelectTeam(teamID *int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if teamID == nil {
		v.active = nil
	} else {
		id := *teamID
		v.active = &id
	}
	v.filter = FilterAll
}

// ActiveTeam returns the active team id, or nil in personal mode.
func (v *View) ActiveTeam() *int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.active == nil {
		return nil
	}
	id := *v.active
	return &id
}

// SetFilter sets the team sub-filter. The value is stored in personal mode
// too but only team mode applies it, and selecting a team resets it to ALL.
func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

// Filter returns the current sub-filter.
func (v *View) Filter() Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Reset returns to personal mode.
func (v *View) Reset() {
	v.SelectTeam(nil)
}

func (v *View) snapshot() (*int64, Filter) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active, v.filter
}

// VisibleTasks returns the tasks in scope for userID, ordered by id.
func (v *View) VisibleTasks(st *store.Store, userID int64) []schedule.Task {
	active, filter := v.snapshot()
	return filterTasks(st.Tasks(), active, filter, userID)
}

func filterTasks(tasks []schedule.Task, active *int64, filter Filter, userID int64) []schedule.Task {
	out := make([]schedule.Task, 0, len(tasks))
	for _, t := range tasks {
		if active == nil {
			if t.IsPersonal() {
				out = append(out, t)
			}
			continue
		}
		if !t.BelongsToTeam(*active) {
			continue
		}
		switch filter {
		case FilterMine:
			if !t.AssignedTo(userID) {
				continue
			}
		case FilterDelegated:
			if t.CreatorID != userID || t.AssignedTo(userID) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// VisibleEvents returns the events in scope for userID, ordered by start.
// An event's team is its own team reference, else its linked task's team.
// With MINE or DELEGATED only events of visible tasks remain.
func (v *View) VisibleEvents(st *store.Store, userID int64) []schedule.Event {
	active, filter := v.snapshot()

	tasks := st.Tasks()
	byID := make(map[int64]schedule.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	visible := make(map[int64]bool)
	for _, t := range filterTasks(tasks, active, filter, userID) {
		visible[t.ID] = true
	}

	events := st.Events()
	out := make([]schedule.Event, 0, len(events))
	for _, e := range events {
		team := e.TeamID
		if team == nil && e.TaskID != nil {
			if t, ok := byID[*e.TaskID]; ok {
				team = t.TeamID
			}
		}

		if active == nil {
			if team == nil {
				out = append(out, e)
			}
			continue
		}
		if team == nil || *team != *active {
			continue
		}
		if filter != FilterAll && (e.TaskID == nil || !visible[*e.TaskID]) {
			continue
		}
		out = append(out, e)
	}
	return out
}
