package instrumentation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"time"
)

// ToolInvocation captures all information about a tool invocation for audit logging.
// This provides a comprehensive audit trail for all MCP tool calls.
//
// # Privacy Considerations
//
// The Username field is PII. General logs carry UserHash() instead; the raw
// username only appears in audit-specific log streams.
type ToolInvocation struct {
	// Tool name
	Tool string

	// Session identity
	Username string
	UserID   int64

	// Target information
	Area      string // Backend area (tasks, events, teams, calendar, conflicts)
	Operation string // Operation type (list, create, update, delete, planify, pull)
	TeamID    *int64 // Active team, nil in personal mode

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	ErrorKind string
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// UserHash returns a short stable hash of the username for lower-cardinality logging.
func (ti *ToolInvocation) UserHash() string {
	return HashUser(ti.Username)
}

// HashUser returns "user:" followed by the first 8 hex chars of the SHA-256 of name.
// An empty name yields "anonymous".
func HashUser(name string) string {
	if name == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(name))
	return "user:" + hex.EncodeToString(sum[:4])
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This provides a consistent set of fields for all tool invocation logs.
//
// # Cardinality
//
// This function uses anonymized values (user_hash) for general logging.
// For full audit logging, use LogAuditAttrs.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user_hash", ti.UserHash()),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	return append(attrs, ti.optionalAttrs(false)...)
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the username and user id.
//
// # Security Warning
//
// This method includes PII. Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user", ti.Username),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.UserID != 0 {
		attrs = append(attrs, slog.String("user_id", strconv.FormatInt(ti.UserID, 10)))
	}
	return append(attrs, ti.optionalAttrs(true)...)
}

func (ti *ToolInvocation) optionalAttrs(withSpan bool) []slog.Attr {
	var attrs []slog.Attr
	if ti.Area != "" {
		attrs = append(attrs, slog.String("area", ti.Area))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.TeamID != nil {
		attrs = append(attrs, slog.Int64("team_id", *ti.TeamID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if withSpan && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithUser sets the session identity.
func (ti *ToolInvocation) WithUser(username string, userID int64) *ToolInvocation {
	ti.Username = username
	ti.UserID = userID
	return ti
}

// WithTarget sets the backend area and operation.
func (ti *ToolInvocation) WithTarget(area, operation string) *ToolInvocation {
	ti.Area = area
	ti.Operation = operation
	return ti
}

// WithTeam sets the active team.
func (ti *ToolInvocation) WithTeam(teamID *int64) *ToolInvocation {
	ti.TeamID = teamID
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
// Returns the same ToolInvocation for method chaining.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error and kind.
func (ti *ToolInvocation) CompleteWithError(err error, kind string) *ToolInvocation {
	ti.ErrorKind = kind
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger provides structured audit logging for tool invocations.
// It wraps slog.Logger with convenience methods for logging tool operations.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a tool invocation. Usernames are only included
// when the logger was configured with IncludePII.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
