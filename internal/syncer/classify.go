package syncer

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/schedule"
)

// payload is the body of a pull response, success or failure.
type payload struct {
	Success       *bool           `json:"success"`
	ErrorCode     string          `json:"errorCode"`
	Retryable     bool            `json:"retryable"`
	Message       string          `json:"message"`
	UserMessage   string          `json:"userMessage"`
	Conflicts     json.RawMessage `json:"conflicts"`
	ConflictCount *int            `json:"conflictCount"`
	SyncedCount   *int            `json:"syncedCount"`
}

// message returns userMessage, else message, else def.
func (p payload) message(def string) string {
	if p.UserMessage != "" {
		return p.UserMessage
	}
	if p.Message != "" {
		return p.Message
	}
	return def
}

// parsePayload decodes body when it is a JSON object.
func parsePayload(body []byte) (payload, bool) {
	var p payload
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, false
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return p, false
	}
	return p, true
}

// Classify maps a pull response onto exactly one Outcome. Rules apply in
// order: 409 conflicts, 503, 401, other structured failures, no response,
// then 2xx.
func Classify(resp *gateway.SyncResponse, err error) Outcome {
	if resp == nil {
		msg := MessageNetwork
		if e, ok := schedule.AsError(err); ok && e.Message != "" {
			msg = e.Message
		}
		return NetworkUnavailable{Retryable: true, Message: msg}
	}

	p, structured := parsePayload(resp.Body)
	status := resp.StatusCode

	switch {
	case status == http.StatusConflict && p.ErrorCode == CodeScheduleConflicts:
		return conflicts(p)

	case status == http.StatusServiceUnavailable:
		code := p.ErrorCode
		if code == "" {
			code = CodeServiceUnavailable
		}
		return TransientFailure{Retryable: true, Code: code, Message: p.message(MessageUnavailable)}

	case status == http.StatusUnauthorized:
		code := p.ErrorCode
		if code == "" {
			code = CodeUnauthorized
		}
		msg := MessageReauth
		if p.UserMessage != "" {
			msg = p.UserMessage
		}
		return AuthExpired{NeedsReauth: true, Code: code, Message: msg}

	case status < 200 || status >= 300:
		if structured {
			return UnknownFailure{Code: p.ErrorCode, Retryable: p.Retryable, Message: p.message(MessageSyncFailed), Status: status}
		}
		return UnknownFailure{Message: MessageSyncFailed, Status: status}
	}

	// 2xx
	if p.Success != nil && !*p.Success {
		if p.ErrorCode == CodeScheduleConflicts {
			return conflicts(p)
		}
		return UnknownFailure{Code: p.ErrorCode, Retryable: p.Retryable, Message: p.message(MessageSyncFailed), Status: status}
	}

	out := Success{Message: p.message(MessageSynced), SyncedCount: -1}
	if p.SyncedCount != nil {
		out.SyncedCount = *p.SyncedCount
	}
	return out
}

// conflicts builds a ConflictsDetected. The decoded list wins over the
// reported count.
func conflicts(p payload) ConflictsDetected {
	reported := -1
	if p.ConflictCount != nil {
		reported = *p.ConflictCount
	}

	out := ConflictsDetected{
		Message:       p.message(MessageConflicts),
		ReportedCount: reported,
		Conflicts:     []schedule.Conflict{},
	}

	if len(p.Conflicts) == 0 || bytes.Equal(bytes.TrimSpace(p.Conflicts), []byte("null")) {
		if reported > 0 {
			out.Count = reported
		}
		return out
	}

	items := gateway.Normalize(p.Conflicts).Items
	decoded, skipped := schedule.DecodeConflicts(items)
	out.Conflicts = decoded
	out.Skipped = skipped
	out.Count = len(decoded)
	return out
}
