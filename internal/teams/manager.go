package teams

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

// DefaultUserCacheSize is the number of username lookups kept.
const DefaultUserCacheSize = 128

// Backend is the subset of the gateway team management needs.
type Backend interface {
	ListTeams(ctx context.Context, userID int64) ([]schedule.Team, error)
	CreateTeam(ctx context.Context, userID int64, name, description string) (schedule.Team, error)
	InviteMember(ctx context.Context, teamID, userID, inviterID int64) error
	RemoveMember(ctx context.Context, teamID, memberID, requesterID int64) error
	DeleteTeam(ctx context.Context, teamID, requesterID int64) error
	PendingInvitations(ctx context.Context, userID int64) ([]schedule.Invitation, error)
	RespondInvitation(ctx context.Context, invitationID int64, accept bool) error
	UserByUsername(ctx context.Context, username string) (schedule.User, error)
}

// Manager runs team operations and keeps the store and view consistent
// with their outcome.
type Manager struct {
	backend Backend
	store   *store.Store
	view    *View
	users   *lru.Cache[string, int64]
	logger  logging.Logger
}

// NewManager creates a Manager. A cacheSize <= 0 uses DefaultUserCacheSize.
func NewManager(backend Backend, st *store.Store, view *View, cacheSize int, logger logging.Logger) (*Manager, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultUserCacheSize
	}
	users, err := lru.New[string, int64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Manager{backend: backend, store: st, view: view, users: users, logger: logger}, nil
}

// Refresh reloads the user's teams into the store.
func (m *Manager) Refresh(ctx context.Context, user schedule.User) ([]schedule.Team, error) {
	teams, err := m.backend.ListTeams(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	m.store.ReplaceTeams(teams)
	if active := m.view.ActiveTeam(); active != nil {
		if _, ok := m.store.Team(*active); !ok {
			m.view.SelectTeam(nil)
		}
	}
	return m.store.Teams(), nil
}

// Create creates a team owned by user.
func (m *Manager) Create(ctx context.Context, user schedule.User, name, description string) (schedule.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schedule.Team{}, schedule.Validation("teams.create", "A team name is required.")
	}
	team, err := m.backend.CreateTeam(ctx, user.ID, name, strings.TrimSpace(description))
	if err != nil {
		return schedule.Team{}, err
	}
	if team.OwnerID == 0 {
		team.OwnerID = user.ID
	}
	if !containsMember(team.Members, user.ID) {
		team.Members = append([]schedule.User{user}, team.Members...)
	}
	m.store.Merge(store.Delta{Teams: []schedule.Team{team}})
	return team, nil
}

// Invite invites username into a team. Only the owner may invite.
func (m *Manager) Invite(ctx context.Context, user schedule.User, teamID int64, username string) error {
	const op = "teams.invite"
	team, err := m.ownedTeam(op, user, teamID)
	if err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return schedule.Validation(op, "A username is required.")
	}
	inviteeID, err := m.resolveUser(ctx, username)
	if err != nil {
		return err
	}
	if team.HasMember(inviteeID) {
		return schedule.Validation(op, fmt.Sprintf("%s is already a member of %s.", username, team.Name))
	}

	return m.backend.InviteMember(ctx, teamID, inviteeID, user.ID)
}

// resolveUser maps a username to a user id, remembering the answer.
func (m *Manager) resolveUser(ctx context.Context, username string) (int64, error) {
	if id, ok := m.users.Get(username); ok {
		return id, nil
	}
	u, err := m.backend.UserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if u.ID == 0 {
		return 0, schedule.Validation("users.get", fmt.Sprintf("No user named %s.", username))
	}
	m.users.Add(username, u.ID)
	return u.ID, nil
}

// RemoveMember removes a member from a team. Only the owner may remove
// members and the owner cannot be removed.
func (m *Manager) RemoveMember(ctx context.Context, user schedule.User, teamID, memberID int64) error {
	const op = "teams.remove_member"
	team, err := m.ownedTeam(op, user, teamID)
	if err != nil {
		return err
	}
	if team.IsOwner(memberID) {
		return schedule.Permission(op, "The team owner cannot be removed.")
	}
	if !team.HasMember(memberID) {
		return schedule.Validation(op, "That user is not a member of this team.")
	}

	if err := m.backend.RemoveMember(ctx, teamID, memberID, user.ID); err != nil {
		return err
	}

	members := make([]schedule.User, 0, len(team.Members))
	for _, mem := range team.Members {
		if mem.ID != memberID {
			members = append(members, mem)
		}
	}
	team.Members = members
	m.store.Merge(store.Delta{Teams: []schedule.Team{team}})
	return nil
}

// Delete deletes a team. Only the owner may delete it. The collaborator
// refuses while the team still has active tasks; its message is returned
// unchanged and the team stays in the store.
func (m *Manager) Delete(ctx context.Context, user schedule.User, teamID int64) error {
	const op = "teams.delete"
	if _, err := m.ownedTeam(op, user, teamID); err != nil {
		return err
	}

	if err := m.backend.DeleteTeam(ctx, teamID, user.ID); err != nil {
		return err
	}

	if active := m.view.ActiveTeam(); active != nil && *active == teamID {
		m.view.SelectTeam(nil)
	}
	if err := m.store.Remove(store.KindTeam, teamID); err != nil {
		// the local copy still holds tasks the collaborator no longer has
		m.logger.Warn("team deleted remotely but local tasks remain, reloading teams",
			logging.Operation(op), "team_id", teamID, logging.Err(err))
		if _, rerr := m.Refresh(ctx, user); rerr != nil {
			return rerr
		}
	}
	return nil
}

// Invitations returns the invitations waiting for the user.
func (m *Manager) Invitations(ctx context.Context, user schedule.User) ([]schedule.Invitation, error) {
	return m.backend.PendingInvitations(ctx, user.ID)
}

// Respond accepts or declines an invitation. Accepting reloads teams.
func (m *Manager) Respond(ctx context.Context, user schedule.User, invitationID int64, accept bool) error {
	if err := m.backend.RespondInvitation(ctx, invitationID, accept); err != nil {
		return err
	}
	if !accept {
		return nil
	}
	_, err := m.Refresh(ctx, user)
	return err
}

func (m *Manager) ownedTeam(op string, user schedule.User, teamID int64) (schedule.Team, error) {
	team, ok := m.store.Team(teamID)
	if !ok {
		return schedule.Team{}, schedule.Validation(op, fmt.Sprintf("Team %d not found.", teamID))
	}
	if !team.IsOwner(user.ID) {
		return schedule.Team{}, schedule.Permission(op, "Only the team owner can do this.")
	}
	return team, nil
}

func containsMember(members []schedule.User, id int64) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}
