package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type taskWire struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	EstimatedDuration *int            `json:"estimatedDuration,omitempty"`
	DurationMinutes   *int            `json:"durationMinutes,omitempty"`
	Duration          *int            `json:"duration,omitempty"`
	Priority          int             `json:"priority"`
	Completed         *bool           `json:"completed,omitempty"`
	Done              *bool           `json:"done,omitempty"`
	ScheduledTime     *string         `json:"scheduledTime"`
	TeamID            json.RawMessage `json:"teamId,omitempty"`
	Team              json.RawMessage `json:"team,omitempty"`
	AssigneeID        json.RawMessage `json:"assigneeId,omitempty"`
	Assignee          json.RawMessage `json:"assignee,omitempty"`
	UserID            json.RawMessage `json:"userId,omitempty"`
	User              json.RawMessage `json:"user,omitempty"`
	Event             *Event          `json:"event,omitempty"`
}

// taskOut is the encoded form. Both duration spellings are sent because
// collaborator endpoints disagree on the name.
type taskOut struct {
	ID                int64   `json:"id,omitempty"`
	Title             string  `json:"title"`
	EstimatedDuration int     `json:"estimatedDuration"`
	DurationMinutes   int     `json:"durationMinutes"`
	Priority          int     `json:"priority"`
	Completed         bool    `json:"completed"`
	ScheduledTime     *string `json:"scheduledTime"`
	TeamID            *int64  `json:"teamId,omitempty"`
	AssigneeID        *int64  `json:"assigneeId,omitempty"`
	UserID            int64   `json:"userId,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskOut{
		ID:                t.ID,
		Title:             t.Title,
		EstimatedDuration: t.EstimatedDuration,
		DurationMinutes:   t.EstimatedDuration,
		Priority:          t.Priority,
		Completed:         t.Completed,
		ScheduledTime:     formatOptionalTime(t.ScheduledTime),
		TeamID:            t.TeamID,
		AssigneeID:        t.AssigneeID,
		UserID:            t.CreatorID,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Task{
		ID:       w.ID,
		Title:    w.Title,
		Priority: w.Priority,
		Event:    w.Event,
	}

	switch {
	case w.EstimatedDuration != nil:
		out.EstimatedDuration = *w.EstimatedDuration
	case w.DurationMinutes != nil:
		out.EstimatedDuration = *w.DurationMinutes
	case w.Duration != nil:
		out.EstimatedDuration = *w.Duration
	}

	switch {
	case w.Completed != nil:
		out.Completed = *w.Completed
	case w.Done != nil:
		out.Completed = *w.Done
	}

	scheduled, err := parseOptionalTime(w.ScheduledTime)
	if err != nil {
		return fmt.Errorf("task %d scheduledTime: %w", w.ID, err)
	}
	out.ScheduledTime = scheduled

	if out.TeamID, err = firstRef(w.TeamID, w.Team); err != nil {
		return fmt.Errorf("task %d team: %w", w.ID, err)
	}
	if out.AssigneeID, err = firstRef(w.AssigneeID, w.Assignee); err != nil {
		return fmt.Errorf("task %d assignee: %w", w.ID, err)
	}
	creator, err := firstRef(w.UserID, w.User)
	if err != nil {
		return fmt.Errorf("task %d user: %w", w.ID, err)
	}
	if creator != nil {
		out.CreatorID = *creator
	}

	*t = out
	return nil
}

type eventWire struct {
	ID        int64           `json:"id"`
	Summary   string          `json:"summary"`
	Title     string          `json:"title"`
	StartTime *string         `json:"startTime"`
	EndTime   *string         `json:"endTime"`
	Start     *string         `json:"start"`
	End       *string         `json:"end"`
	Location  *Location       `json:"location"`
	Color     string          `json:"color"`
	Category  string          `json:"category"`
	Source    string          `json:"source"`
	TaskID    json.RawMessage `json:"taskId,omitempty"`
	TeamID    json.RawMessage `json:"teamId,omitempty"`
}

type eventOut struct {
	ID        int64     `json:"id,omitempty"`
	Summary   string    `json:"summary"`
	Title     string    `json:"title,omitempty"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Location  *Location `json:"location,omitempty"`
	Color     string    `json:"color,omitempty"`
	Category  string    `json:"category,omitempty"`
	Source    Source    `json:"source,omitempty"`
	TaskID    *int64    `json:"taskId,omitempty"`
	TeamID    *int64    `json:"teamId,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventOut{
		ID:        e.ID,
		Summary:   e.Summary,
		Title:     e.Summary,
		StartTime: FormatTime(e.Start),
		EndTime:   FormatTime(e.End),
		Location:  e.Location,
		Color:     e.Color,
		Category:  e.Category,
		Source:    e.Source,
		TaskID:    e.TaskID,
		TeamID:    e.TeamID,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Event{
		ID:       w.ID,
		Summary:  w.Summary,
		Location: w.Location,
		Color:    w.Color,
		Category: w.Category,
		Source:   ParseSource(w.Source),
	}
	if out.Summary == "" {
		out.Summary = w.Title
	}

	start, err := parseOptionalTime(firstString(w.StartTime, w.Start))
	if err != nil {
		return fmt.Errorf("event %d start: %w", w.ID, err)
	}
	end, err := parseOptionalTime(firstString(w.EndTime, w.End))
	if err != nil {
		return fmt.Errorf("event %d end: %w", w.ID, err)
	}
	if start != nil {
		out.Start = *start
	}
	if end != nil {
		out.End = *end
	}

	if out.TaskID, err = firstRef(w.TaskID, nil); err != nil {
		return fmt.Errorf("event %d task: %w", w.ID, err)
	}
	if out.TeamID, err = firstRef(w.TeamID, nil); err != nil {
		return fmt.Errorf("event %d team: %w", w.ID, err)
	}

	*e = out
	return nil
}

type teamWire struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OwnerID     json.RawMessage `json:"ownerId,omitempty"`
	Owner       json.RawMessage `json:"owner,omitempty"`
	Members     []User          `json:"members"`
}

type teamOut struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     int64  `json:"ownerId,omitempty"`
	Members     []User `json:"members,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Team) MarshalJSON() ([]byte, error) {
	return json.Marshal(teamOut(t))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Team) UnmarshalJSON(data []byte) error {
	var w teamWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	owner, err := firstRef(w.OwnerID, w.Owner)
	if err != nil {
		return fmt.Errorf("team %d owner: %w", w.ID, err)
	}
	out := Team{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Members:     w.Members,
	}
	if owner != nil {
		out.OwnerID = *owner
	}
	*t = out
	return nil
}

// firstRef decodes the first non-empty reference. A reference is a number,
// a numeric string, or an object with an "id" field.
func firstRef(raws ...json.RawMessage) (*int64, error) {
	for _, raw := range raws {
		id, err := decodeRef(raw)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, nil
}

func decodeRef(raw json.RawMessage) (*int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '{':
		var obj struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		return obj.ID, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", s)
		}
		return &n, nil
	default:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return &n, nil
	}
}

func firstString(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}

// EncodeEventInput builds the collaborator payload for an event write.
func EncodeEventInput(in EventInput) map[string]interface{} {
	payload := map[string]interface{}{
		"summary":   in.Summary,
		"title":     in.Summary,
		"startTime": FormatTime(in.Start),
		"endTime":   FormatTime(in.End),
	}
	if in.Location != nil {
		payload["location"] = in.Location
	}
	if in.Color != "" {
		payload["color"] = in.Color
	}
	if in.Category != "" {
		payload["category"] = in.Category
	}
	if in.TaskID != nil {
		payload["taskId"] = *in.TaskID
	}
	if in.TeamID != nil {
		payload["teamId"] = *in.TeamID
	}
	if in.UserID != 0 {
		payload["userId"] = in.UserID
	}
	if in.UseGoogleMaps != nil {
		payload["useGoogleMaps"] = *in.UseGoogleMaps
	}
	return payload
}

// InputFromEvent converts an existing event into an update payload.
func InputFromEvent(e Event) EventInput {
	return EventInput{
		Summary:  e.Summary,
		Start:    e.Start,
		End:      e.End,
		Location: e.Location,
		Color:    e.Color,
		Category: e.Category,
		TaskID:   e.TaskID,
		TeamID:   e.TeamID,
	}
}

// IntervalFromSlot returns the interval starting at day@hour lasting d.
func IntervalFromSlot(day time.Time, hour int, d time.Duration) (time.Time, time.Time) {
	y, m, dd := day.Date()
	start := time.Date(y, m, dd, hour, 0, 0, 0, day.Location())
	return start, start.Add(d)
}
