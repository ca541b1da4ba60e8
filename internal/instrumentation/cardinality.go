package instrumentation

import "strconv"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Never use raw task, event or team ids as label values.

// CountBucket maps a count onto a small fixed set of label values.
//
// Example:
//
//	CountBucket(0)   // "0"
//	CountBucket(3)   // "1-5"
//	CountBucket(42)  // "21-50"
//	CountBucket(900) // "100+"
func CountBucket(n int) string {
	switch {
	case n <= 0:
		return "0"
	case n <= 5:
		return "1-5"
	case n <= 20:
		return "6-20"
	case n <= 50:
		return "21-50"
	case n <= 100:
		return "51-100"
	default:
		return "100+"
	}
}

// StatusClass reduces an HTTP status code to its class ("2xx", "4xx", ...).
// Zero means no response was received.
func StatusClass(code int) string {
	if code <= 0 {
		return "none"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Common operation types for backend metrics.
// Status, area and outcome constants are defined in config.go.
const (
	OperationList    = "list"
	OperationGet     = "get"
	OperationCreate  = "create"
	OperationUpdate  = "update"
	OperationDelete  = "delete"
	OperationPlanify = "planify"
	OperationPull    = "pull"
	OperationInvite  = "invite"
	OperationRespond = "respond"
	OperationResolve = "resolve"
)
