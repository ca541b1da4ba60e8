package schedule

import (
	"time"
)

// Default and allowed task durations, in minutes.
const (
	DefaultTaskDuration = 60
	MinTaskDuration     = 5
	MaxTaskDuration     = 480
)

// Task priorities. Lower is more urgent.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// Source tells where an event originates.
type Source string

const (
	SourceLocal  Source = "LOCAL"
	SourceRemote Source = "REMOTE"
)

// ParseSource maps wire values onto Source. The collaborator labels provider
// events "GOOGLE".
func ParseSource(s string) Source {
	switch s {
	case "REMOTE", "GOOGLE", "remote", "google":
		return SourceRemote
	default:
		return SourceLocal
	}
}

// User is an authenticated user or a team member.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Task is a unit of work that can be placed on the calendar.
type Task struct {
	ID                int64
	Title             string
	EstimatedDuration int // minutes
	Priority          int
	Completed         bool
	ScheduledTime     *time.Time
	TeamID            *int64
	AssigneeID        *int64
	CreatorID         int64

	// Event is only set on placement responses
	Event *Event
}

// IsScheduled reports whether the task has been placed.
func (t Task) IsScheduled() bool {
	return t.ScheduledTime != nil && !t.ScheduledTime.IsZero()
}

// IsPersonal reports whether the task belongs to no team.
func (t Task) IsPersonal() bool {
	return t.TeamID == nil
}

// BelongsToTeam reports whether the task is scoped to the given team.
func (t Task) BelongsToTeam(teamID int64) bool {
	return t.TeamID != nil && *t.TeamID == teamID
}

// AssignedTo reports whether the task is assigned to the given user.
func (t Task) AssignedTo(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// Duration returns the estimated duration.
func (t Task) Duration() time.Duration {
	return time.Duration(t.EstimatedDuration) * time.Minute
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.ScheduledTime = cloneTime(t.ScheduledTime)
	c.TeamID = cloneID(t.TeamID)
	c.AssigneeID = cloneID(t.AssigneeID)
	if t.Event != nil {
		e := t.Event.Clone()
		c.Event = &e
	}
	return c
}

// Location is a geocoded address attached to an event.
type Location struct {
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// Event is a calendar interval.
type Event struct {
	ID       int64
	Summary  string
	Start    time.Time
	End      time.Time
	Location *Location
	Color    string
	Category string
	Source   Source
	TaskID   *int64
	TeamID   *int64
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ValidInterval reports whether End is after Start.
func (e Event) ValidInterval() bool {
	return e.End.After(e.Start)
}

// LinkedTo reports whether the event back-references the given task.
func (e Event) LinkedTo(taskID int64) bool {
	return e.TaskID != nil && *e.TaskID == taskID
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	c := e
	c.TaskID = cloneID(e.TaskID)
	c.TeamID = cloneID(e.TeamID)
	if e.Location != nil {
		loc := *e.Location
		c.Location = &loc
	}
	return c
}

// EventInput is the payload for creating or updating an event.
type EventInput struct {
	Summary  string
	Start    time.Time
	End      time.Time
	Location *Location
	Color    string
	Category string
	TaskID   *int64
	TeamID   *int64
	UserID   int64

	// UseGoogleMaps is the transport-mode preference; nil leaves it unset
	UseGoogleMaps *bool
}

// Team is a group of users with a single owner.
type Team struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	Members     []User
}

// IsOwner reports whether userID owns the team.
func (t Team) IsOwner(userID int64) bool {
	return t.OwnerID == userID
}

// HasMember reports whether userID is a member. The owner always is.
func (t Team) HasMember(userID int64) bool {
	if t.IsOwner(userID) {
		return true
	}
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the team.
func (t Team) Clone() Team {
	c := t
	c.Members = append([]User(nil), t.Members...)
	return c
}

// TeamRef is the short team form embedded in invitations.
type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Invitation is a pending request to join a team.
type Invitation struct {
	ID      int64   `json:"id"`
	Team    TeamRef `json:"team"`
	Inviter User    `json:"inviter"`
	Status  string  `json:"status,omitempty"`
}

// Strategy is the user's preferred conflict-resolution policy on the provider side.
type Strategy string

const (
	StrategyGooglePriority Strategy = "GOOGLE_PRIORITY"
	StrategyLocalPriority  Strategy = "LOCAL_PRIORITY"
	StrategyAskUser        Strategy = "ASK_USER"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyGooglePriority, StrategyLocalPriority, StrategyAskUser:
		return true
	}
	return false
}

// ProviderStatus reports whether the user linked a calendar provider.
type ProviderStatus struct {
	Connected bool   `json:"connected"`
	UserID    int64  `json:"userId"`
	Error     string `json:"error,omitempty"`
}

// Resolution is the outcome chosen for a backend-persisted conflict.
type Resolution string

const (
	ResolutionKeepLocal  Resolution = "KEEP_LOCAL"
	ResolutionKeepGoogle Resolution = "KEEP_GOOGLE"
	ResolutionCancelled  Resolution = "CANCELLED"
)

// Valid reports whether r is a known resolution.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionKeepLocal, ResolutionKeepGoogle, ResolutionCancelled:
		return true
	}
	return false
}

// StoredConflict is a conflict persisted by the collaborator.
type StoredConflict struct {
	ID                int64  `json:"id"`
	LocalTitle        string `json:"localTitle,omitempty"`
	LocalDescription  string `json:"localDescription,omitempty"`
	LocalStartTime    string `json:"localStartTime,omitempty"`
	LocalEndTime      string `json:"localEndTime,omitempty"`
	GoogleTitle       string `json:"googleTitle,omitempty"`
	GoogleDescription string `json:"googleDescription,omitempty"`
	GoogleStartTime   string `json:"googleStartTime,omitempty"`
	GoogleEndTime     string `json:"googleEndTime,omitempty"`
	DetectedAt        string `json:"detectedAt,omitempty"`
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ID returns a pointer to id, for optional references.
func ID(id int64) *int64 {
	return &id
}

// ActivityStat is the time a user logged in one activity category.
type ActivityStat struct {
	Category       string `json:"category"`
	Count          int64  `json:"count"`
	TotalMinutes   int64  `json:"totalMinutes"`
	AverageMinutes int64  `json:"averageMinutes"`
}
