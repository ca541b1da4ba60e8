// Package conflicts runs the interactive resolution session opened when a
// sync reports schedule conflicts.
//
// Each entry pairs the LOCAL and REMOTE events competing for the same time.
// Versions can be edited or deleted; both go through the gateway and act on
// the real events. Deleting either side ends the conflict, so the whole
// entry leaves the session. Marking an entry resolved is local bookkeeping.
//
// Syncing again is allowed once every entry is resolved, or explicitly
// forced with ForceSync.
package conflicts
