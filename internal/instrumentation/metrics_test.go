package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context, detailed bool) *Provider {
	t.Helper()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
		DetailedLabels:  detailed,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)
}

func TestMetrics_RecordBackendOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordBackendOperation(ctx, AreaTasks, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordBackendOperation(ctx, AreaEvents, OperationCreate, StatusError, 500*time.Millisecond)
	metrics.RecordBackendOperation(ctx, AreaCalendar, OperationPull, StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordSyncAttempt(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordSyncAttempt(ctx, OutcomeSuccess, 12, time.Second)
	metrics.RecordSyncAttempt(ctx, OutcomeConflicts, 0, 300*time.Millisecond)
	metrics.RecordSyncAttempt(ctx, OutcomeNetwork, 0, 10*time.Millisecond)
}

func TestMetrics_RecordPlacementAndConflictAction(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordPlacement(ctx, PlacementExplicit, StatusSuccess)
	metrics.RecordPlacement(ctx, PlacementAuto, StatusError)
	metrics.RecordConflictAction(ctx, "delete", StatusSuccess)
	metrics.RecordConflictAction(ctx, "sync_now", StatusError)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordToolInvocationWithUser(ctx, "planner_list_tasks", StatusSuccess, "", 100*time.Millisecond)
	metrics.RecordToolInvocationWithUser(ctx, "planner_place_task", StatusError, "", 500*time.Millisecond)
}

func TestMetrics_RecordToolInvocationWithUser(t *testing.T) {
	tests := []struct {
		name     string
		detailed bool
	}{
		{name: "user label ignored", detailed: false},
		{name: "user label included", detailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			metrics := newTestProvider(t, ctx, tt.detailed).Metrics()

			// Should not panic
			metrics.RecordToolInvocationWithUser(ctx, "planner_sync", StatusSuccess, "user:1234abcd", 100*time.Millisecond)
		})
	}
}

func TestMetrics_ActiveSessions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.IncrementActiveSessions(ctx)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordBackendOperation(ctx, AreaTasks, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordSyncAttempt(ctx, OutcomeSuccess, 3, time.Second)
	metrics.RecordPlacement(ctx, PlacementAuto, StatusSuccess)
	metrics.RecordConflictAction(ctx, "edit", StatusSuccess)
	metrics.RecordToolInvocationWithUser(ctx, "test_tool", StatusSuccess, "", 100*time.Millisecond)
	metrics.RecordToolInvocationWithUser(ctx, "test_tool", StatusSuccess, "user:1234abcd", 100*time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()

	// A nil recorder is valid when instrumentation was never set up
	metrics.RecordBackendOperation(ctx, AreaTeams, OperationDelete, StatusError, time.Millisecond)
	metrics.RecordSyncAttempt(ctx, OutcomeAuth, 0, time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
}
