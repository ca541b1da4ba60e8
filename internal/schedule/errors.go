package schedule

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how it must be presented.
type Kind string

const (
	// KindValidation is malformed input, reported inline on the originating form.
	KindValidation Kind = "validation"
	// KindPermission is a forbidden action; no state is mutated.
	KindPermission Kind = "permission"
	// KindConflict is routed into conflict resolution, never shown as a generic failure.
	KindConflict Kind = "conflict"
	// KindTransient is a temporary backend failure; the user may retry.
	KindTransient Kind = "transient"
	// KindAuth means the user must re-authenticate.
	KindAuth Kind = "auth"
	// KindNetwork means no response was received.
	KindNetwork Kind = "network"
	// KindPlacement means the delegated placement service broke its contract.
	KindPlacement Kind = "placement"
	// KindUnknown is everything else.
	KindUnknown Kind = "unknown"
)

// GenericErrorMessage is shown when the server gave no usable message.
const GenericErrorMessage = "Something went wrong. Please try again later."

// Error is the error type surfaced by every planner component.
type Error struct {
	// Kind drives how the error is presented
	Kind Kind

	// Op is the operation that failed (e.g., "tasks.update", "teams.delete")
	Op string

	// Message is the user-facing message, verbatim from the server when it sent one
	Message string

	// Status is the HTTP status code, if a response was received
	Status int

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the message to show to the user.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return GenericErrorMessage
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Validation creates a validation error.
func Validation(op, message string) *Error {
	return NewError(KindValidation, op, message)
}

// Permission creates a permission error.
func Permission(op, message string) *Error {
	return NewError(KindPermission, op, message)
}

// Placement creates a placement error.
func Placement(op, message string) *Error {
	return NewError(KindPlacement, op, message)
}

// Network wraps a transport failure where no response was received.
func Network(op string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Op:      op,
		Message: "Unable to reach the server. Check your connection.",
		Err:     err,
	}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindUnknown for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
