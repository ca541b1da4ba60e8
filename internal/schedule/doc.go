// Package schedule defines the domain model shared by every planner component.
//
// It holds the entities the engine reconciles with the collaborator backend:
//   - Task: a unit of work with an estimated duration, optionally scheduled
//   - Event: a calendar interval, either LOCAL or REMOTE, optionally linked to a task
//   - Team: a named group with an owner and ordered members
//   - Invitation: a pending request to join a team
//   - Conflict: a pairing of one LOCAL and one REMOTE event occupying the same time
//
// The wire format of the collaborator is decoded here as well. The backend speaks
// naive local date-times ("2006-01-02T15:04:05") and uses several spellings for a few
// task fields, so Task and Event implement their own JSON codecs.
//
// # Errors
//
// Every failure that leaves the engine is an *Error carrying a Kind:
//
//	if schedule.IsKind(err, schedule.KindPermission) {
//	    // surface a "forbidden" notification
//	}
//
// Kinds map one-to-one to the user-facing treatment: validation errors are shown
// inline, transient errors offer a retry, auth errors offer re-authentication.
package schedule
