// Package gateway is the HTTP client for the collaborator backend that owns
// tasks, events, teams and the calendar provider link.
//
// Every list endpoint tolerates the envelope variants the backend is known to
// send (bare arrays, {"data": [...]}, paged {"content": [...]}, and arrays
// encoded as JSON strings). Normalize resolves them in one place and never
// fails; callers always receive a slice.
//
// Failures are converted at the call site into *schedule.Error values, so
// callers branch on the error kind rather than on HTTP status codes. The
// calendar pull endpoint is the exception: PullSync hands back the raw status
// and body for the sync coordinator to classify.
//
// Example usage:
//
//	client, err := gateway.New(ctx, gateway.Config{
//	    BaseURL: "http://localhost:8080/api",
//	    Token:   os.Getenv("PLANNER_API_TOKEN"),
//	})
//	if err != nil {
//	    return err
//	}
//	tasks, err := client.ListUserTasks(ctx, userID)
package gateway
