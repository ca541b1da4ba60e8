package gateway

import (
	"context"
	"net/http"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// ListUserEvents returns every event visible to a user, local and remote.
func (c *Client) ListUserEvents(ctx context.Context, userID int64) ([]schedule.Event, error) {
	body, err := c.do(ctx, instrumentation.AreaEvents, instrumentation.OperationList,
		http.MethodGet, idPath("/events/user/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[schedule.Event](c.logger, "events.list", body), nil
}

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, in schedule.EventInput) (schedule.Event, error) {
	body, err := c.do(ctx, instrumentation.AreaEvents, instrumentation.OperationCreate,
		http.MethodPost, "/events", nil, schedule.EncodeEventInput(in))
	if err != nil {
		return schedule.Event{}, err
	}
	return decodeOne[schedule.Event]("events.create", body)
}

// UpdateEvent replaces an event.
func (c *Client) UpdateEvent(ctx context.Context, eventID int64, in schedule.EventInput) (schedule.Event, error) {
	body, err := c.do(ctx, instrumentation.AreaEvents, instrumentation.OperationUpdate,
		http.MethodPut, idPath("/events/%d", eventID), nil, schedule.EncodeEventInput(in))
	if err != nil {
		return schedule.Event{}, err
	}
	return decodeOne[schedule.Event]("events.update", body)
}

// DeleteEvent deletes an event. Remote events are removed from the provider too.
func (c *Client) DeleteEvent(ctx context.Context, eventID int64) error {
	_, err := c.do(ctx, instrumentation.AreaEvents, instrumentation.OperationDelete,
		http.MethodDelete, idPath("/events/%d", eventID), nil, nil)
	return err
}
