package services_test

import (
	"context"
	"testing"

	"audiodesc/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEndpoint(ctx, "status")
	ctx = services.WithTaskID(ctx, "task-42")
	ctx = services.WithRequestID(ctx, "req-123")

	if endpoint, ok := services.EndpointFromContext(ctx); !ok || endpoint != "status" {
		t.Fatalf("unexpected endpoint: %v %v", endpoint, ok)
	}
	if id, ok := services.TaskIDFromContext(ctx); !ok || id != "task-42" {
		t.Fatalf("unexpected task id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEndpoint(ctx, "")
	ctx = services.WithTaskID(ctx, "")
	if _, ok := services.EndpointFromContext(ctx); ok {
		t.Fatal("expected no endpoint value")
	}
	if _, ok := services.TaskIDFromContext(ctx); ok {
		t.Fatal("expected no task id value")
	}
}
