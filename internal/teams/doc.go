// Package teams holds the active team scope and runs team management.
//
// View decides which tasks and events are visible: personal mode shows
// everything without a team, team mode shows one team's items narrowed by
// a sub-filter (ALL, MINE, DELEGATED). Selecting a team resets the filter.
//
// Manager runs the owner-only operations (invite, remove member, delete)
// against the collaborator and applies the outcome to the store. Team
// deletion is decided by the collaborator: a rejection is surfaced verbatim
// and the team is kept.
package teams
