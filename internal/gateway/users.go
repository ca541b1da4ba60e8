package gateway

import (
	"context"
	"net/http"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// UserByUsername looks a user up by username.
func (c *Client) UserByUsername(ctx context.Context, username string) (schedule.User, error) {
	if username == "" {
		return schedule.User{}, schedule.Validation("users.get", "A username is required.")
	}
	body, err := c.do(ctx, instrumentation.AreaUsers, instrumentation.OperationGet,
		http.MethodGet, "/users/username/"+username, nil, nil)
	if err != nil {
		return schedule.User{}, err
	}
	return decodeOne[schedule.User]("users.get", body)
}
