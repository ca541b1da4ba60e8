package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// Side selects one version of a conflict.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// ParseSide accepts "local"/"remote" and the provider alias "google".
func ParseSide(s string) (Side, error) {
	switch s {
	case "local", "LOCAL":
		return SideLocal, nil
	case "remote", "REMOTE", "google", "GOOGLE":
		return SideRemote, nil
	}
	return "", fmt.Errorf("unknown conflict side %q", s)
}

// ConflictVersion is one side of a conflict as cached by the resolution session.
type ConflictVersion struct {
	EventID int64     `json:"eventId"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Source  Source    `json:"source"`
}

// Duration returns End - Start.
func (v ConflictVersion) Duration() time.Duration {
	return v.End.Sub(v.Start)
}

// Conflict pairs the LOCAL and REMOTE events occupying the same time.
type Conflict struct {
	ID     string          `json:"id"`
	Local  ConflictVersion `json:"local"`
	Remote ConflictVersion `json:"remote"`
}

// Version returns the version on the given side.
func (c Conflict) Version(side Side) ConflictVersion {
	if side == SideRemote {
		return c.Remote
	}
	return c.Local
}

// SetVersion replaces the version on the given side.
func (c *Conflict) SetVersion(side Side, v ConflictVersion) {
	if side == SideRemote {
		c.Remote = v
		return
	}
	c.Local = v
}

type conflictWire struct {
	ID                       json.RawMessage `json:"id,omitempty"`
	EventID                  int64           `json:"eventId"`
	Title                    string          `json:"title"`
	StartTime                string          `json:"startTime"`
	EndTime                  string          `json:"endTime"`
	Source                   string          `json:"source"`
	ConflictingWithID        int64           `json:"conflictingWithId"`
	ConflictingWithTitle     string          `json:"conflictingWithTitle"`
	ConflictingWithSource    string          `json:"conflictingWithSource"`
	ConflictingWithStartTime string          `json:"conflictingWithStartTime"`
	ConflictingWithEndTime   string          `json:"conflictingWithEndTime"`
}

// ParseConflict decodes one conflicting-event entry. index names the entry
// when the payload carries no id. The other side's interval defaults to the
// primary interval when the payload omits it.
func ParseConflict(raw json.RawMessage, index int) (Conflict, error) {
	var w conflictWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Conflict{}, fmt.Errorf("failed to decode conflict %d: %w", index, err)
	}

	start, err := ParseTime(w.StartTime)
	if err != nil {
		return Conflict{}, fmt.Errorf("conflict %d start: %w", index, err)
	}
	end, err := ParseTime(w.EndTime)
	if err != nil {
		return Conflict{}, fmt.Errorf("conflict %d end: %w", index, err)
	}

	primary := ConflictVersion{
		EventID: w.EventID,
		Title:   w.Title,
		Start:   start,
		End:     end,
		Source:  ParseSource(w.Source),
	}
	other := ConflictVersion{
		EventID: w.ConflictingWithID,
		Title:   w.ConflictingWithTitle,
		Start:   start,
		End:     end,
		Source:  SourceRemote,
	}
	if w.ConflictingWithSource != "" {
		other.Source = ParseSource(w.ConflictingWithSource)
	}
	if w.ConflictingWithStartTime != "" {
		if other.Start, err = ParseTime(w.ConflictingWithStartTime); err != nil {
			return Conflict{}, fmt.Errorf("conflict %d other start: %w", index, err)
		}
	}
	if w.ConflictingWithEndTime != "" {
		if other.End, err = ParseTime(w.ConflictingWithEndTime); err != nil {
			return Conflict{}, fmt.Errorf("conflict %d other end: %w", index, err)
		}
	}

	c := Conflict{ID: conflictID(w.ID, index), Local: primary, Remote: other}
	if primary.Source == SourceRemote && other.Source != SourceRemote {
		c.Local, c.Remote = other, primary
	}
	return c, nil
}

func conflictID(raw json.RawMessage, index int) string {
	if len(raw) > 0 && string(raw) != "null" {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return fmt.Sprintf("%d", n)
		}
	}
	return fmt.Sprintf("conflict-%d", index)
}

// SkippedConflict is a conflict entry that could not be decoded.
type SkippedConflict struct {
	Index int
	Err   error
}

// DecodeConflicts decodes every entry it can. Entries that fail to decode are
// reported in skipped and left out of the result.
func DecodeConflicts(items []json.RawMessage) (conflicts []Conflict, skipped []SkippedConflict) {
	conflicts = make([]Conflict, 0, len(items))
	for i, raw := range items {
		c, err := ParseConflict(raw, i)
		if err != nil {
			skipped = append(skipped, SkippedConflict{Index: i, Err: err})
			continue
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, skipped
}
