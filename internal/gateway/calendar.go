package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// SyncResponse is the raw answer to a pull request. HTTP failure statuses are
// data here; the sync coordinator classifies them.
type SyncResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// PullSync triggers a bidirectional provider sync for a user. It only fails
// when no response was received.
func (c *Client) PullSync(ctx context.Context, userID int64) (*SyncResponse, error) {
	resp, err := c.send(ctx, instrumentation.AreaCalendar, instrumentation.OperationPull,
		http.MethodPost, idPath("/calendar/sync/pull/%d", userID), nil, nil)
	if err != nil {
		return nil, schedule.Network("calendar.pull", err)
	}
	return &SyncResponse{StatusCode: resp.status, Body: json.RawMessage(resp.body)}, nil
}

// ProviderStatus reports whether the user linked a calendar provider. A
// failed check reports a disconnected provider with the error text.
func (c *Client) ProviderStatus(ctx context.Context, userID int64) schedule.ProviderStatus {
	body, err := c.do(ctx, instrumentation.AreaCalendar, instrumentation.OperationGet,
		http.MethodGet, idPath("/calendar/status/%d", userID), nil, nil)
	if err != nil {
		c.logger.Warn("provider status check failed", "error", err)
		return schedule.ProviderStatus{Connected: false, UserID: userID, Error: err.Error()}
	}
	status, err := decodeOne[schedule.ProviderStatus]("calendar.status", body)
	if err != nil {
		return schedule.ProviderStatus{Connected: false, UserID: userID, Error: err.Error()}
	}
	if status.UserID == 0 {
		status.UserID = userID
	}
	return status
}

type strategyBody struct {
	Strategy schedule.Strategy `json:"strategy"`
}

// Strategy returns the user's conflict strategy.
func (c *Client) Strategy(ctx context.Context, userID int64) (schedule.Strategy, error) {
	body, err := c.do(ctx, instrumentation.AreaConflicts, instrumentation.OperationGet,
		http.MethodGet, idPath("/conflicts/user/%d/strategy", userID), nil, nil)
	if err != nil {
		return "", err
	}
	out, err := decodeOne[strategyBody]("conflicts.strategy", body)
	if err != nil {
		return "", err
	}
	return out.Strategy, nil
}

// SetStrategy stores the user's conflict strategy.
func (c *Client) SetStrategy(ctx context.Context, userID int64, strategy schedule.Strategy) error {
	if !strategy.Valid() {
		return schedule.Validation("conflicts.strategy", "Unknown conflict strategy "+string(strategy)+".")
	}
	_, err := c.do(ctx, instrumentation.AreaConflicts, instrumentation.OperationUpdate,
		http.MethodPut, idPath("/conflicts/user/%d/strategy", userID), nil, strategyBody{Strategy: strategy})
	return err
}

// StoredConflicts returns the conflicts the collaborator persisted for a user.
func (c *Client) StoredConflicts(ctx context.Context, userID int64) ([]schedule.StoredConflict, error) {
	body, err := c.do(ctx, instrumentation.AreaConflicts, instrumentation.OperationList,
		http.MethodGet, idPath("/conflicts/user/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.StoredConflict](c.logger, "conflicts.list", body), nil
}

// ResolveStoredConflict resolves a persisted conflict.
func (c *Client) ResolveStoredConflict(ctx context.Context, conflictID int64, resolution schedule.Resolution) error {
	if !resolution.Valid() {
		return schedule.Validation("conflicts.resolve", "Unknown resolution "+string(resolution)+".")
	}
	_, err := c.do(ctx, instrumentation.AreaConflicts, instrumentation.OperationResolve,
		http.MethodPost, idPath("/conflicts/%d/resolve", conflictID), nil,
		map[string]schedule.Resolution{"resolution": resolution})
	return err
}
