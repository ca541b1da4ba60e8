package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/schedule"
)

// ActivityStats returns the time per activity category for a user. Without
// bounds the collaborator reports the last 30 days.
func (c *Client) ActivityStats(ctx context.Context, userID int64, from, to *time.Time) ([]schedule.ActivityStat, error) {
	q := url.Values{}
	if from != nil {
		q.Set("start", schedule.FormatTime(*from))
	}
	if to != nil {
		q.Set("end", schedule.FormatTime(*to))
	}
	body, err := c.do(ctx, instrumentation.AreaActivity, instrumentation.OperationGet,
		http.MethodGet, idPath("/activity/stats/%d", userID), q, nil)
	if err != nil {
		return nil, err
	}

	stats := decodeList[schedule.ActivityStat](c.logger, "activity.stats", body)
	for i, st := range stats {
		if st.AverageMinutes == 0 && st.Count > 0 {
			stats[i].AverageMinutes = st.TotalMinutes / st.Count
		}
	}
	return stats, nil
}
