package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message logged at info level: %q", buf.String())
	}

	New(&buf, true).Debug("shown", Area("tasks"))
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "area=tasks") {
		t.Errorf("debug logger output = %q", buf.String())
	}
}

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "tasks.list") == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{name: "operation", attr: Operation("tasks.update"), wantKey: KeyOperation, wantVal: "tasks.update"},
		{name: "area", attr: Area("teams"), wantKey: KeyArea, wantVal: "teams"},
		{name: "tool", attr: Tool("planner_sync"), wantKey: KeyTool, wantVal: "planner_sync"},
		{name: "status", attr: Status(StatusSuccess), wantKey: KeyStatus, wantVal: StatusSuccess},
		{name: "request id", attr: RequestID("abc"), wantKey: KeyRequestID, wantVal: "abc"},
		{name: "personal team", attr: Team(nil), wantKey: KeyTeam, wantVal: "personal"},
		{name: "duration", attr: Duration(1500 * time.Millisecond), wantKey: KeyDuration, wantVal: "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}

	id := int64(12)
	if got := Team(&id).Value.String(); got != "12" {
		t.Errorf("Team(12) value = %q, want 12", got)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// Empty Group has empty key and is omitted by slog
	if attr := Err(nil); attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeUser(t *testing.T) {
	tests := []struct {
		username string
		wantLen  int
	}{
		{"jane", 21}, // "user:" + 16 hex chars
		{"bob.smith", 21},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			result := AnonymizeUser(tt.username)
			if len(result) != tt.wantLen {
				t.Errorf("AnonymizeUser(%q) length = %d, want %d", tt.username, len(result), tt.wantLen)
			}
			if tt.wantLen > 0 && !strings.HasPrefix(result, "user:") {
				t.Errorf("AnonymizeUser(%q) should start with 'user:', got %q", tt.username, result)
			}
		})
	}

	if AnonymizeUser("jane") != AnonymizeUser("jane") {
		t.Error("AnonymizeUser should return deterministic results")
	}
	if AnonymizeUser("jane") == AnonymizeUser("john") {
		t.Error("different usernames should produce different hashes")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
	if len(attr.Value.String()) != 21 {
		t.Errorf("UserHash value length = %d, want 21", len(attr.Value.String()))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := SanitizeToken(tt.token); result != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, result, tt.expected)
			}
		})
	}
}
