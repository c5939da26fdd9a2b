package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusBackendRecordsMetrics(t *testing.T) {
	b := NewPrometheusBackend(nil)
	ctx := context.Background()

	if err := b.PublishInvocationCount(ctx, "Org::Service::Resource", "Create"); err != nil {
		t.Fatalf("PublishInvocationCount: %v", err)
	}
	if err := b.PublishInvocationDuration(ctx, "Org::Service::Resource", "Create", 150*time.Millisecond); err != nil {
		t.Fatalf("PublishInvocationDuration: %v", err)
	}
	if err := b.PublishException(ctx, "Org::Service::Resource", "Create", "InternalFailure"); err != nil {
		t.Fatalf("PublishException: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	b.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"handler_invocation_count_total",
		"handler_invocation_duration_milliseconds",
		"handler_exception_count_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected scrape output to contain %q", want)
		}
	}
}

func TestPrometheusBackendDefaultsBuckets(t *testing.T) {
	b := NewPrometheusBackend(nil)
	if b.duration == nil {
		t.Fatal("expected duration histogram to be initialized")
	}
}
