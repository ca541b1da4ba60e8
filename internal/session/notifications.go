package session

import (
	"time"

	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/permission"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/syncer"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Action is what the user can do about a notification.
type Action string

const (
	ActionNone   Action = "none"
	ActionRetry  Action = "retry"
	ActionReauth Action = "reauth"
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level         `json:"level"`
	Kind    schedule.Kind `json:"kind,omitempty"`
	Message string        `json:"message"`
	Action  Action        `json:"action"`
	Time    time.Time     `json:"time"`
}

// Notifications returns the pending notifications without consuming them.
func (s *Session) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.notes...)
}

// Drain returns and clears the pending notifications.
func (s *Session) Drain() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notes
	s.notes = nil
	return out
}

func (s *Session) notify(level Level, kind schedule.Kind, message string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, Notification{
		Level:   level,
		Kind:    kind,
		Message: message,
		Action:  action,
		Time:    time.Now(),
	})
}

// fail applies the error policy to err and returns it unchanged.
// Validation errors belong to the form that caused them and are not
// notified.
func (s *Session) fail(err error) error {
	if err == nil || schedule.IsKind(err, schedule.KindValidation) {
		return err
	}
	kind := schedule.KindOf(err)
	message := schedule.GenericErrorMessage
	if e, ok := schedule.AsError(err); ok {
		message = e.UserMessage()
	}

	switch kind {
	case schedule.KindPermission:
		if message == schedule.GenericErrorMessage {
			message = permission.ForbiddenMessage
		}
		s.notify(LevelError, kind, message, ActionNone)
	case schedule.KindTransient, schedule.KindNetwork:
		s.notify(LevelError, kind, message, ActionRetry)
	case schedule.KindAuth:
		s.notify(LevelError, kind, message, ActionReauth)
	case schedule.KindConflict:
		s.notify(LevelWarning, kind, message, ActionNone)
	default:
		s.notify(LevelError, kind, message, ActionNone)
	}
	s.logger.Warn("operation failed", "kind", string(kind), logging.Err(err))
	return err
}

// handleOutcome turns a sync outcome into notifications. Conflicts open the
// resolution session instead of failing.
func (s *Session) handleOutcome(o syncer.Outcome) {
	switch v := o.(type) {
	case syncer.Success:
		message := v.Message
		if message == "" {
			message = syncer.MessageSynced
		}
		s.notify(LevelInfo, "", message, ActionNone)
		if v.RefreshErr != nil {
			s.notify(LevelWarning, schedule.KindOf(v.RefreshErr),
				"Synchronized, but the schedule could not be reloaded.", ActionRetry)
		}
	case syncer.ConflictsDetected:
		s.conflicts.Open(v.Conflicts)
		s.notify(LevelWarning, schedule.KindConflict, v.Message, ActionNone)
	case syncer.TransientFailure:
		s.notify(LevelError, schedule.KindTransient, v.Message, retryAction(v.Retryable))
	case syncer.AuthExpired:
		s.notify(LevelError, schedule.KindAuth, v.Message, ActionReauth)
	case syncer.NetworkUnavailable:
		s.notify(LevelError, schedule.KindNetwork, v.Message, retryAction(v.Retryable))
	case syncer.UnknownFailure:
		s.notify(LevelError, schedule.KindUnknown, v.Message, retryAction(v.Retryable))
	}
}

func retryAction(retryable bool) Action {
	if retryable {
		return ActionRetry
	}
	return ActionNone
}
