package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// ListTeams returns the teams a user belongs to.
func (c *Client) ListTeams(ctx context.Context, userID int64) ([]schedule.Team, error) {
	body, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationList,
		http.MethodGet, idPath("/teams/user/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.Team](c.logger, "teams.list", body), nil
}

// CreateTeam creates a team owned by userID.
func (c *Client) CreateTeam(ctx context.Context, userID int64, name, description string) (schedule.Team, error) {
	payload := schedule.Team{Name: name, Description: description}
	body, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationCreate,
		http.MethodPost, idPath("/teams/user/%d", userID), nil, payload)
	if err != nil {
		return schedule.Team{}, err
	}
	return decodeOne[schedule.Team]("teams.create", body)
}

// InviteMember invites userID into a team on behalf of inviterID.
func (c *Client) InviteMember(ctx context.Context, teamID, userID, inviterID int64) error {
	q := url.Values{"inviterId": {strconv.FormatInt(inviterID, 10)}}
	_, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationInvite,
		http.MethodPost, idPath("/teams/%d/invite/%d", teamID, userID), q, nil)
	return err
}

// RemoveMember removes memberID from a team on behalf of requesterID.
func (c *Client) RemoveMember(ctx context.Context, teamID, memberID, requesterID int64) error {
	q := url.Values{"requesterId": {strconv.FormatInt(requesterID, 10)}}
	_, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationDelete,
		http.MethodDelete, idPath("/teams/%d/members/%d", teamID, memberID), q, nil)
	return err
}

// DeleteTeam deletes a team on behalf of requesterID. The collaborator
// refuses while the team has active tasks.
func (c *Client) DeleteTeam(ctx context.Context, teamID, requesterID int64) error {
	q := url.Values{"requesterId": {strconv.FormatInt(requesterID, 10)}}
	_, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationDelete,
		http.MethodDelete, idPath("/teams/%d", teamID), q, nil)
	return err
}

// PendingInvitations returns the invitations waiting for a user's answer.
func (c *Client) PendingInvitations(ctx context.Context, userID int64) ([]schedule.Invitation, error) {
	body, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationList,
		http.MethodGet, idPath("/teams/invitations/pending/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.Invitation](c.logger, "teams.invitations", body), nil
}

// RespondInvitation accepts or declines an invitation.
func (c *Client) RespondInvitation(ctx context.Context, invitationID int64, accept bool) error {
	q := url.Values{"accept": {strconv.FormatBool(accept)}}
	_, err := c.do(ctx, instrumentation.AreaTeams, instrumentation.OperationRespond,
		http.MethodPost, idPath("/teams/invitations/%d/respond", invitationID), q, nil)
	return err
}
