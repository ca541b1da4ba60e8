// Package syncer runs calendar synchronization through the collaborator.
//
// A sync attempt pulls from the provider and classifies the raw response
// into exactly one Outcome. After a Success the task and event collections
// are reloaded, since the pull response does not carry them. Only one
// attempt runs at a time; a request while one is in flight is a no-op that
// returns ErrSyncInFlight.
//
// AutoSync drives the coordinator from a cron schedule.
package syncer
