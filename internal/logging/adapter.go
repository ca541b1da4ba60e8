package logging

import (
	"log/slog"
)

// Logger is the small level-based interface components accept when they
// only need to emit warnings and diagnostics.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// SlogAdapter adapts an slog.Logger to the Logger interface and to the
// logger interface of github.com/robfig/cron/v3.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug message with key-value pairs.
func (a *SlogAdapter) Debug(msg string, args ...interface{}) {
	a.logger.Debug(msg, args...)
}

// Info logs an info message with key-value pairs.
// Scheduler chatter from cron arrives here as well, so it is logged at debug level
// when it carries the cron "now" key.
func (a *SlogAdapter) Info(msg string, args ...interface{}) {
	if isCronTick(args) {
		a.logger.Debug(msg, args...)
		return
	}
	a.logger.Info(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (a *SlogAdapter) Warn(msg string, args ...interface{}) {
	a.logger.Warn(msg, args...)
}

// Error logs an error message with key-value pairs.
func (a *SlogAdapter) Error(msg string, args ...interface{}) {
	a.logger.Error(msg, args...)
}

// CronError satisfies cron.Logger's Error(err, msg, keysAndValues...).
type CronError struct {
	*SlogAdapter
}

// Error logs a scheduler error.
func (c CronError) Error(err error, msg string, args ...interface{}) {
	c.logger.Error(msg, append([]interface{}{Err(err)}, args...)...)
}

// ForCron returns the adapter in the shape cron.WithLogger expects.
func (a *SlogAdapter) ForCron() CronError {
	return CronError{SlogAdapter: a}
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// DefaultLogger returns a Logger using the default slog.Logger.
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(slog.Default())
}

func isCronTick(args []interface{}) bool {
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok && k == "now" {
			return true
		}
	}
	return false
}
