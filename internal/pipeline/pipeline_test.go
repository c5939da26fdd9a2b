package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudforge-run/provider-runtime/internal/coercion"
	"github.com/cloudforge-run/provider-runtime/internal/metrics"
	"github.com/cloudforge-run/provider-runtime/internal/progress"
	"github.com/cloudforge-run/provider-runtime/internal/registry"
	"github.com/cloudforge-run/provider-runtime/internal/request"
	"github.com/cloudforge-run/provider-runtime/internal/session"
)

type fakeMetricsBackend struct {
	counts     []string
	durations  []string
	exceptions []string
}

func (b *fakeMetricsBackend) PublishInvocationCount(ctx context.Context, resourceType, actionType string) error {
	b.counts = append(b.counts, resourceType+"/"+actionType)
	return nil
}

func (b *fakeMetricsBackend) PublishInvocationDuration(ctx context.Context, resourceType, actionType string, duration time.Duration) error {
	b.durations = append(b.durations, resourceType+"/"+actionType)
	return nil
}

func (b *fakeMetricsBackend) PublishException(ctx context.Context, resourceType, actionType, exceptionType string) error {
	b.exceptions = append(b.exceptions, resourceType+"/"+actionType+"/"+exceptionType)
	return nil
}

func newTestResource() (*Resource, *fakeMetricsBackend) {
	res := NewResource("Example::Provider::Widget")
	res.ModelDescriptor = &coercion.Descriptor{Kind: coercion.KindObject}
	res.TypeConfigDescriptor = &coercion.Descriptor{Kind: coercion.KindObject}
	return res, &fakeMetricsBackend{}
}

func marshalEvent(t *testing.T, v map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return b
}

func TestEntrypointHappyCreateWithoutCredentials(t *testing.T) {
	res, backend := newTestResource()
	res.Handlers.Register(request.Create, func(ctx context.Context, sess *session.Session, req *request.ResourceHandlerRequest, callbackContext map[string]any, typeConfig any, logger registry.Logger) (*progress.Event, error) {
		logger.Log("creating widget")
		return progress.Success(map[string]any{"state": "ok"}), nil
	})

	rt := NewRuntime(res, metrics.NewProxy(backend))
	event := mustRunEntrypoint(t, rt, map[string]any{
		"action":       "CREATE",
		"awsAccountId": "111122223333",
		"region":       "us-east-1",
		"requestData": map[string]any{
			"resourceProperties":         map[string]any{"state": "s1"},
			"previousResourceProperties": map[string]any{"state": "s2"},
		},
	})

	if event.Status != request.Success {
		t.Fatalf("expected SUCCESS, got %+v", event)
	}
	if len(backend.counts) != 1 || len(backend.durations) != 1 {
		t.Errorf("expected one invocation-count and one duration metric, got %d/%d", len(backend.counts), len(backend.durations))
	}
}

func TestEntrypointReadReturningInProgressIsInternalFailure(t *testing.T) {
	res, backend := newTestResource()
	res.Handlers.Register(request.Read, func(ctx context.Context, sess *session.Session, req *request.ResourceHandlerRequest, callbackContext map[string]any, typeConfig any, logger registry.Logger) (*progress.Event, error) {
		return progress.InProgress(5, nil, nil), nil
	})

	rt := NewRuntime(res, metrics.NewProxy(backend))
	event := mustRunEntrypoint(t, rt, map[string]any{
		"action":       "READ",
		"awsAccountId": "111122223333",
		"requestData": map[string]any{
			"resourceProperties": map[string]any{"state": "s1"},
		},
	})

	if event.Status != request.Failed || event.ErrorCode != "InternalFailure" {
		t.Fatalf("expected InternalFailure, got %+v", event)
	}
}

func TestEntrypointMissingAccountIDIsInvalidRequest(t *testing.T) {
	res, backend := newTestResource()
	res.Handlers.Register(request.Create, func(ctx context.Context, sess *session.Session, req *request.ResourceHandlerRequest, callbackContext map[string]any, typeConfig any, logger registry.Logger) (*progress.Event, error) {
		t.Fatal("handler must not run when awsAccountId is missing")
		return nil, nil
	})

	rt := NewRuntime(res, metrics.NewProxy(backend))
	event := mustRunEntrypoint(t, rt, map[string]any{
		"action": "CREATE",
		"requestData": map[string]any{
			"resourceProperties": map[string]any{"state": "s1"},
		},
	})

	if event.Status != request.Failed || event.ErrorCode != "InvalidRequest" {
		t.Fatalf("expected InvalidRequest, got %+v", event)
	}
}

func TestEntrypointUnknownActionIsInternalFailure(t *testing.T) {
	res, backend := newTestResource()

	rt := NewRuntime(res, metrics.NewProxy(backend))
	event := mustRunEntrypoint(t, rt, map[string]any{
		"action":       "CREATE",
		"awsAccountId": "111122223333",
		"requestData":  map[string]any{},
	})

	if event.Status != request.Failed || event.ErrorCode != "InternalFailure" {
		t.Fatalf("expected InternalFailure for an unregistered action, got %+v", event)
	}
}

func TestTestEntrypointSkipsSinksAndMetrics(t *testing.T) {
	res, _ := newTestResource()
	var sawLogger bool
	res.Handlers.Register(request.Create, func(ctx context.Context, sess *session.Session, req *request.ResourceHandlerRequest, callbackContext map[string]any, typeConfig any, logger registry.Logger) (*progress.Event, error) {
		sawLogger = logger != nil
		return progress.Success(nil), nil
	})

	raw := marshalEvent(t, map[string]any{
		"action":       "CREATE",
		"awsAccountId": "111122223333",
		"requestData": map[string]any{
			"resourceProperties": map[string]any{},
		},
	})

	out, err := TestEntrypoint(context.Background(), res, nil, raw)
	if err != nil {
		t.Fatalf("TestEntrypoint: %v", err)
	}
	var event progress.Event
	if err := json.Unmarshal(out, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Status != request.Success {
		t.Fatalf("expected SUCCESS, got %+v", event)
	}
	if !sawLogger {
		t.Error("expected a non-nil no-op logger on the test-event path")
	}
}

func mustRunEntrypoint(t *testing.T, rt *Runtime, raw map[string]any) *progress.Event {
	t.Helper()
	out, err := rt.Entrypoint(context.Background(), marshalEvent(t, raw), 2*time.Second)
	if err != nil {
		t.Fatalf("Entrypoint: %v", err)
	}
	var event progress.Event
	if err := json.Unmarshal(out, &event); err != nil {
		t.Fatalf("unmarshal event: %v; raw=%s", err, out)
	}
	return &event
}
