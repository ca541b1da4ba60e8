package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/teemow/planner/internal/schedule"
)

// serverMessage is the structured error body the collaborator sends.
type serverMessage struct {
	UserMessage string `json:"userMessage"`
	Message     string `json:"message"`
	ErrorCode   string `json:"errorCode"`
}

// ServerMessage extracts the user-facing message from an error body: the
// body itself when it is a plain string, else userMessage, else message.
// It returns "" when none is present.
func ServerMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	switch trimmed[0] {
	case '{':
		var m serverMessage
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return ""
		}
		if m.UserMessage != "" {
			return m.UserMessage
		}
		return m.Message
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
		return ""
	case '[':
		return ""
	}
	// HTML error pages are not messages
	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return trimmed
}

// statusError converts a non-2xx response into a *schedule.Error.
func statusError(op string, status int, body []byte) *schedule.Error {
	msg := ServerMessage(body)
	e := &schedule.Error{Op: op, Status: status, Message: msg}

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.Kind = schedule.KindValidation
	case http.StatusNotFound:
		e.Kind = schedule.KindValidation
		if msg == "" {
			e.Message = "The requested item was not found."
		}
	case http.StatusUnauthorized:
		e.Kind = schedule.KindAuth
		if msg == "" {
			e.Message = "Your session has expired. Please sign in again."
		}
	case http.StatusForbidden:
		e.Kind = schedule.KindPermission
		if msg == "" {
			e.Message = "You are not allowed to perform this action."
		}
	case http.StatusConflict:
		e.Kind = schedule.KindConflict
	case http.StatusServiceUnavailable:
		e.Kind = schedule.KindTransient
		if msg == "" {
			e.Message = "The service is temporarily unavailable. Please try again."
		}
	default:
		e.Kind = schedule.KindUnknown
		if msg == "" {
			e.Message = schedule.GenericErrorMessage
		}
	}
	return e
}
