package services_test

import (
	"context"
	"testing"

	"livecap/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSourceID(ctx, "alice")
	ctx = services.WithSessionID(ctx, "42")
	ctx = services.WithRunID(ctx, "run-123")

	if id, ok := services.SourceIDFromContext(ctx); !ok || id != "alice" {
		t.Fatalf("unexpected source id: %v %v", id, ok)
	}
	if session, ok := services.SessionIDFromContext(ctx); !ok || session != "42" {
		t.Fatalf("unexpected session id: %v %v", session, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSourceID(ctx, "")
	ctx = services.WithSessionID(ctx, "")
	if _, ok := services.SourceIDFromContext(ctx); ok {
		t.Fatal("expected no source id value")
	}
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session id value")
	}
}
