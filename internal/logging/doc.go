// Package logging provides structured logging utilities for the planner.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Username anonymization
//   - Consistent attribute naming across the codebase
//   - Logger adapter for components and for the cron scheduler
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "tasks.list")
//	logger.Info("loaded tasks", logging.Team(view.ActiveTeam()))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session started", logging.UserHash(user.Username))
//
// # Security Considerations
//
//   - Usernames are hashed to prevent PII leakage while allowing correlation
//   - The backend token is never logged directly
package logging
