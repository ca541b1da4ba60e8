// Package store holds the session's local copy of tasks, events and teams.
//
// The store is the single source for every reader in the engine. Writers merge
// collaborator responses into it only after a mutating call succeeded, so the
// store never holds optimistic state.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teemow/planner/internal/schedule"
)

// EntityKind selects the collection Remove operates on.
type EntityKind string

const (
	KindTask  EntityKind = "task"
	KindEvent EntityKind = "event"
	KindTeam  EntityKind = "team"
)

// Delta is a batch of upserts.
type Delta struct {
	Tasks  []schedule.Task
	Events []schedule.Event
	Teams  []schedule.Team
}

// Empty reports whether the delta carries nothing.
func (d Delta) Empty() bool {
	return len(d.Tasks) == 0 && len(d.Events) == 0 && len(d.Teams) == 0
}

// Store is a goroutine-safe entity store keyed by id.
type Store struct {
	mu     sync.RWMutex
	tasks  map[int64]schedule.Task
	events map[int64]schedule.Event
	teams  map[int64]schedule.Team
}

// New creates an empty store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.tasks = make(map[int64]schedule.Task)
	s.events = make(map[int64]schedule.Event)
	s.teams = make(map[int64]schedule.Team)
}

// Merge upserts every entity in d. Later values win.
func (s *Store) Merge(d Delta) {
	if d.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge(d)
}

// Replace swaps the task and event collections for the ones in d, so
// entities missing from d are dropped. A stored task that d does not carry
// survives when keep reports true, together with its linked events. Teams in
// d are merged.
func (s *Store) Replace(d Delta, keep func(schedule.Task) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make(map[int64]schedule.Task, len(d.Tasks))
	events := make(map[int64]schedule.Event, len(d.Events))
	if keep != nil {
		for id, t := range s.tasks {
			if keep(t) {
				tasks[id] = t
			}
		}
		for id, e := range s.events {
			if e.TaskID == nil {
				continue
			}
			if _, ok := tasks[*e.TaskID]; ok {
				events[id] = e
			}
		}
	}
	s.tasks, s.events = tasks, events
	s.merge(d)
}

func (s *Store) merge(d Delta) {
	for _, t := range d.Tasks {
		c := t.Clone()
		// placement responses nest the event; it is stored on its own
		if c.Event != nil {
			s.events[c.Event.ID] = *c.Event
			c.Event = nil
		}
		s.tasks[c.ID] = c
	}
	for _, e := range d.Events {
		s.events[e.ID] = e.Clone()
	}
	for _, t := range d.Teams {
		s.teams[t.ID] = t.Clone()
	}
}

// ReplaceTeams swaps the team collection for teams.
func (s *Store) ReplaceTeams(teams []schedule.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teams = make(map[int64]schedule.Team, len(teams))
	for _, t := range teams {
		s.teams[t.ID] = t.Clone()
	}
}

// Remove deletes the entity of the given kind. Removing a task also removes
// the events linked to it. Removing a team fails while active tasks still
// reference it and never deletes tasks. Removing an unknown id is a no-op.
func (s *Store) Remove(kind EntityKind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case KindTask:
		delete(s.tasks, id)
		for eid, e := range s.events {
			if e.LinkedTo(id) {
				delete(s.events, eid)
			}
		}
	case KindEvent:
		delete(s.events, id)
	case KindTeam:
		active := 0
		for _, t := range s.tasks {
			if t.BelongsToTeam(id) && !t.Completed {
				active++
			}
		}
		if active > 0 {
			return schedule.Validation("store.remove_team",
				fmt.Sprintf("Team still has %d active task(s)", active))
		}
		// completed tasks keep their team reference
		delete(s.teams, id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return nil
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id int64) (schedule.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return schedule.Task{}, false
	}
	return t.Clone(), true
}

// Tasks returns all tasks ordered by id.
func (s *Store) Tasks() []schedule.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schedule.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Event returns a copy of the event with the given id.
func (s *Store) Event(id int64) (schedule.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return schedule.Event{}, false
	}
	return e.Clone(), true
}

// Events returns all events ordered by start, then id.
func (s *Store) Events() []schedule.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectEvents(func(schedule.Event) bool { return true })
}

// EventsForTask returns the events linked to the task.
func (s *Store) EventsForTask(taskID int64) []schedule.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectEvents(func(e schedule.Event) bool { return e.LinkedTo(taskID) })
}

func (s *Store) collectEvents(keep func(schedule.Event) bool) []schedule.Event {
	out := make([]schedule.Event, 0, len(s.events))
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Team returns a copy of the team with the given id.
func (s *Store) Team(id int64) (schedule.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return schedule.Team{}, false
	}
	return t.Clone(), true
}

// Teams returns all teams ordered by id.
func (s *Store) Teams() []schedule.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schedule.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns the size of each collection.
func (s *Store) Counts() (tasks, events, teams int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks), len(s.events), len(s.teams)
}

// Reset drops every entity.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}
