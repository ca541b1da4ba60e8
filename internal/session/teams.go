package session

import (
	"context"
	"fmt"

	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
	"github.com/teemow/planner/internal/teams"
)

// Teams returns the user's teams.
func (s *Session) Teams() []schedule.Team {
	return s.store.Teams()
}

// RefreshTeams reloads the user's teams from the collaborator.
func (s *Session) RefreshTeams(ctx context.Context) ([]schedule.Team, error) {
	user, err := s.requireUser("teams.list")
	if err != nil {
		return nil, err
	}
	list, err := s.teams.Refresh(ctx, user)
	if err != nil {
		return nil, s.fail(err)
	}
	return list, nil
}

// CreateTeam creates a team owned by the user.
func (s *Session) CreateTeam(ctx context.Context, name, description string) (schedule.Team, error) {
	user, err := s.requireUser("teams.create")
	if err != nil {
		return schedule.Team{}, err
	}
	team, err := s.teams.Create(ctx, user, name, description)
	if err != nil {
		return schedule.Team{}, s.fail(err)
	}
	return team, nil
}

// InviteMember invites username into a team.
func (s *Session) InviteMember(ctx context.Context, teamID int64, username string) error {
	user, err := s.requireUser("teams.invite")
	if err != nil {
		return err
	}
	if err := s.teams.Invite(ctx, user, teamID, username); err != nil {
		return s.fail(err)
	}
	s.notify(LevelInfo, "", fmt.Sprintf("Invitation sent to %s.", username), ActionNone)
	return nil
}

// RemoveMember removes a member from a team.
func (s *Session) RemoveMember(ctx context.Context, teamID, memberID int64) error {
	user, err := s.requireUser("teams.remove_member")
	if err != nil {
		return err
	}
	return s.fail(s.teams.RemoveMember(ctx, user, teamID, memberID))
}

// DeleteTeam deletes a team. The collaborator decides whether the team can
// go; its rejection message is shown verbatim.
func (s *Session) DeleteTeam(ctx context.Context, teamID int64) error {
	user, err := s.requireUser("teams.delete")
	if err != nil {
		return err
	}
	return s.fail(s.teams.Delete(ctx, user, teamID))
}

// SelectTeam switches the active team. A nil id selects the personal scope.
func (s *Session) SelectTeam(teamID *int64) error {
	if teamID != nil {
		if _, ok := s.store.Team(*teamID); !ok {
			return schedule.Validation("teams.select", fmt.Sprintf("Team %d does not exist.", *teamID))
		}
	}
	s.view.SelectTeam(teamID)
	return nil
}

// LoadTeamTasks merges every task of a team into the store, including tasks
// of other members that the user's own lists do not carry.
func (s *Session) LoadTeamTasks(ctx context.Context, teamID int64) (int, error) {
	if _, err := s.requireUser("tasks.list_team"); err != nil {
		return 0, err
	}
	list, err := s.backend.ListTeamTasks(ctx, teamID)
	if err != nil {
		return 0, s.fail(err)
	}
	s.store.Merge(store.Delta{Tasks: list})
	return len(list), nil
}

// ActiveTeam returns the active team id, nil for the personal scope.
func (s *Session) ActiveTeam() *int64 {
	return s.view.ActiveTeam()
}

// SetFilter sets the task filter of the active team.
func (s *Session) SetFilter(filter string) error {
	f, err := teams.ParseFilter(filter)
	if err != nil {
		return err
	}
	s.view.SetFilter(f)
	return nil
}

// Filter returns the current task filter.
func (s *Session) Filter() teams.Filter {
	return s.view.Filter()
}

// VisibleTasks returns the tasks of the active scope after filtering.
func (s *Session) VisibleTasks() []schedule.Task {
	user, _ := s.User()
	return s.view.VisibleTasks(s.store, user.ID)
}

// VisibleEvents returns the events of the active scope after filtering.
func (s *Session) VisibleEvents() []schedule.Event {
	user, _ := s.User()
	return s.view.VisibleEvents(s.store, user.ID)
}

// Invitations returns the user's pending invitations.
func (s *Session) Invitations(ctx context.Context) ([]schedule.Invitation, error) {
	user, err := s.requireUser("invitations.list")
	if err != nil {
		return nil, err
	}
	list, err := s.teams.Invitations(ctx, user)
	if err != nil {
		return nil, s.fail(err)
	}
	return list, nil
}

// RespondInvitation accepts or declines an invitation.
func (s *Session) RespondInvitation(ctx context.Context, invitationID int64, accept bool) error {
	user, err := s.requireUser("invitations.respond")
	if err != nil {
		return err
	}
	return s.fail(s.teams.Respond(ctx, user, invitationID, accept))
}
