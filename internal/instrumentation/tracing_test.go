package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSpanAttributeBuilder(t *testing.T) {
	team := int64(9)
	attrs := NewSpanAttributeBuilder().
		WithTool("planner_place_task").
		WithArea(AreaTasks).
		WithOperation(OperationPlanify).
		WithUser("jane").
		WithTeam(&team).
		WithResource("task", 12345).
		WithReadOnly(false).
		Build()

	if len(attrs) != 8 {
		t.Errorf("expected 8 attributes, got %d", len(attrs))
	}

	attrMap := make(map[string]interface{})
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	if attrMap[SpanAttrTool] != "planner_place_task" {
		t.Errorf("expected tool 'planner_place_task', got %v", attrMap[SpanAttrTool])
	}
	if attrMap[SpanAttrArea] != AreaTasks {
		t.Errorf("expected area 'tasks', got %v", attrMap[SpanAttrArea])
	}
	if attrMap[SpanAttrOperation] != OperationPlanify {
		t.Errorf("expected operation 'planify', got %v", attrMap[SpanAttrOperation])
	}
	if attrMap[SpanAttrUserHash] != HashUser("jane") {
		t.Errorf("expected hashed user, got %v", attrMap[SpanAttrUserHash])
	}
	if attrMap[SpanAttrTeamID] != int64(9) {
		t.Errorf("expected team id 9, got %v", attrMap[SpanAttrTeamID])
	}
	if attrMap[SpanAttrResourceID] != "12345" {
		t.Errorf("expected resource id '12345', got %v", attrMap[SpanAttrResourceID])
	}
	if attrMap[SpanAttrReadOnly] != false {
		t.Errorf("expected read_only false, got %v", attrMap[SpanAttrReadOnly])
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("test_tool").
		WithUser("").
		WithTeam(nil).
		WithResource("", 0).
		Build()

	// Only tool should be present
	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute (only tool), got %d", len(attrs))
	}
}

func TestSpans(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Initialize provider to set global tracer
	newTestProvider(t, ctx, false)

	spanCtx, span := StartSpan(ctx, "test-span")
	if spanCtx == nil || span == nil {
		t.Error("StartSpan returned nil")
	}
	span.End()

	spanCtx, span = StartToolSpan(ctx, "planner_list_tasks")
	if spanCtx == nil || span == nil {
		t.Error("StartToolSpan returned nil")
	}
	span.End()

	spanCtx, span = StartBackendSpan(ctx, AreaCalendar, OperationPull)
	if spanCtx == nil || span == nil {
		t.Error("StartBackendSpan returned nil")
	}
	span.End()
}

func TestSpanStatusHelpers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	newTestProvider(t, ctx, false)

	_, span := StartSpan(ctx, "test-span")

	// Should not panic
	SetSpanError(span, errors.New("test error"))
	SetSpanError(span, nil) // nil error should be safe
	SetSpanSuccess(span)
	AddSpanEvent(span, "test-event")
	span.End()
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if traceID := GetTraceID(context.Background()); traceID != "" {
		t.Errorf("expected empty trace ID for context without span, got %q", traceID)
	}
}

func TestGetSpanID_NoSpan(t *testing.T) {
	if spanID := GetSpanID(context.Background()); spanID != "" {
		t.Errorf("expected empty span ID for context without span, got %q", spanID)
	}
}
