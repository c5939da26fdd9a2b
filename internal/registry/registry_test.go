package registry

import (
	"context"
	"testing"

	"github.com/cloudforge-run/provider-runtime/internal/progress"
	"github.com/cloudforge-run/provider-runtime/internal/request"
	"github.com/cloudforge-run/provider-runtime/internal/session"
)

func handlerReturning(model any) Handler {
	return func(_ context.Context, _ *session.Session, _ *request.ResourceHandlerRequest, _ map[string]any, _ any, _ Logger) (*progress.Event, error) {
		return progress.Success(model), nil
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register(request.Create, handlerReturning("created"))

	h, ok := r.Lookup(request.Create)
	if !ok {
		t.Fatal("expected Create handler to be registered")
	}
	event, err := h(context.Background(), nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ResourceModel != "created" {
		t.Errorf("ResourceModel = %v, want %q", event.ResourceModel, "created")
	}
}

func TestLookupMissingAction(t *testing.T) {
	r := New()
	if _, ok := r.Lookup(request.Delete); ok {
		t.Error("expected no handler registered for Delete")
	}
}

func TestRegisterOverwritesExisting(t *testing.T) {
	r := New()
	r.Register(request.Read, handlerReturning("first"))
	r.Register(request.Read, handlerReturning("second"))

	h, _ := r.Lookup(request.Read)
	event, _ := h(context.Background(), nil, nil, nil, nil, nil)
	if event.ResourceModel != "second" {
		t.Errorf("expected the later registration to win, got %v", event.ResourceModel)
	}
}
