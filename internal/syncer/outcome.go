package syncer

import (
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// Error codes carried by sync outcomes.
const (
	CodeScheduleConflicts  = "SCHEDULE_CONFLICTS"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNetworkError       = "NETWORK_ERROR"
)

// Default messages used when the collaborator sent none.
const (
	MessageConflicts   = "Schedule conflicts were detected."
	MessageUnavailable = "The calendar service is temporarily unavailable."
	MessageReauth      = "Your calendar connection has expired. Please reconnect."
	MessageNetwork     = "Unable to reach the server. Check your connection."
	MessageSyncFailed  = "Synchronization failed."
	MessageSynced      = "Calendar synchronized."
)

// Outcome is the result of one sync attempt. It is one of Success,
// ConflictsDetected, TransientFailure, AuthExpired, NetworkUnavailable or
// UnknownFailure.
type Outcome interface {
	// Name is the metrics label of the outcome.
	Name() string
	isOutcome()
}

// Success means the provider and the collaborator agree again.
type Success struct {
	SyncedCount int
	Message     string

	// RefreshErr is set when the sync succeeded but reloading the
	// collections afterwards failed.
	RefreshErr error
}

// ConflictsDetected carries the conflicts that stopped the sync.
type ConflictsDetected struct {
	Conflicts []schedule.Conflict
	Count     int
	Message   string

	// ReportedCount is the payload's conflictCount, -1 when absent.
	ReportedCount int

	// Skipped lists the entries that failed to decode.
	Skipped []schedule.SkippedConflict
}

// TransientFailure is a temporary provider failure. It may be retried.
type TransientFailure struct {
	Retryable bool
	Code      string
	Message   string
}

// AuthExpired means the provider link must be re-established. It must
// not be retried.
type AuthExpired struct {
	NeedsReauth bool
	Code        string
	Message     string
}

// NetworkUnavailable means no response was received.
type NetworkUnavailable struct {
	Retryable bool
	Message   string
}

// UnknownFailure is any other failure. Message is the collaborator's text
// verbatim when it sent one.
type UnknownFailure struct {
	Code      string
	Retryable bool
	Message   string
	Status    int
}

func (Success) Name() string            { return instrumentation.OutcomeSuccess }
func (ConflictsDetected) Name() string  { return instrumentation.OutcomeConflicts }
func (TransientFailure) Name() string   { return instrumentation.OutcomeTransient }
func (AuthExpired) Name() string        { return instrumentation.OutcomeAuth }
func (NetworkUnavailable) Name() string { return instrumentation.OutcomeNetwork }
func (UnknownFailure) Name() string     { return instrumentation.OutcomeUnknown }

func (Success) isOutcome()            {}
func (ConflictsDetected) isOutcome()  {}
func (TransientFailure) isOutcome()   {}
func (AuthExpired) isOutcome()        {}
func (NetworkUnavailable) isOutcome() {}
func (UnknownFailure) isOutcome()     {}

// Wire is the serialized form of an outcome.
type Wire struct {
	Success       bool                `json:"success"`
	Outcome       string              `json:"outcome"`
	ErrorCode     string              `json:"errorCode,omitempty"`
	Retryable     bool                `json:"retryable"`
	NeedsReauth   bool                `json:"needsReauth,omitempty"`
	Message       string              `json:"message"`
	UserMessage   string              `json:"userMessage,omitempty"`
	Conflicts     []schedule.Conflict `json:"conflicts,omitempty"`
	ConflictCount *int                `json:"conflictCount,omitempty"`
	SyncedCount   *int                `json:"syncedCount,omitempty"`
}

// Encode converts an outcome into its wire form.
func Encode(o Outcome) Wire {
	w := Wire{Outcome: o.Name()}
	switch v := o.(type) {
	case Success:
		w.Success = true
		w.Message = v.Message
		n := v.SyncedCount
		w.SyncedCount = &n
	case ConflictsDetected:
		w.ErrorCode = CodeScheduleConflicts
		w.Message = v.Message
		w.Conflicts = v.Conflicts
		n := v.Count
		w.ConflictCount = &n
	case TransientFailure:
		w.ErrorCode = v.Code
		w.Retryable = v.Retryable
		w.Message = v.Message
		w.UserMessage = v.Message
	case AuthExpired:
		w.ErrorCode = v.Code
		w.NeedsReauth = v.NeedsReauth
		w.Message = v.Message
		w.UserMessage = v.Message
	case NetworkUnavailable:
		w.ErrorCode = CodeNetworkError
		w.Retryable = v.Retryable
		w.Message = v.Message
		w.UserMessage = v.Message
	case UnknownFailure:
		w.ErrorCode = v.Code
		w.Retryable = v.Retryable
		w.Message = v.Message
		w.UserMessage = v.Message
	}
	return w
}

// Failed reports whether o is anything but Success.
func Failed(o Outcome) bool {
	_, ok := o.(Success)
	return !ok
}
