// Package session is the entry point of the planner engine. A Session
// belongs to one signed-in user: it loads their schedule into the entity
// store, runs every task, event, team and sync operation against the
// collaborator, and turns failures into notifications.
//
// Error policy:
//
//   - validation errors are returned to the caller and never notified
//   - permission errors produce one "forbidden" notification
//   - transient and network failures carry a retry action
//   - expired authentication carries a reauth action
//   - sync conflicts open the resolution session instead of failing
//
// Only a failed Begin sets the page error.
package session
