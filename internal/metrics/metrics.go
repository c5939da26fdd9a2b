// Package metrics implements the provider runtime's metrics publisher
// (spec.md §4.8, C9): four CloudFormation-namespaced metrics fanned out,
// best-effort, to one or more backend publishers (CloudWatch metrics and
// Prometheus).
//
// # Design rationale
//
// Two backends coexist, mirroring the teacher's dual in-process/Prometheus
// metrics split: a CloudWatch backend for the control plane's own
// dashboards, and a Prometheus registry for scraping by the operator's own
// monitoring stack. Proxy fans every publish call out to both; a failure
// in one backend's PutMetricData-equivalent call is logged and swallowed,
// never surfaced to the invocation (spec.md §4.8: "metrics are
// best-effort").
package metrics

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ActionType used for the HandlerException variant emitted by log-delivery
// failures rather than by the handler itself (spec.md §4.8).
const ProviderLogDeliveryAction = "ProviderLogDelivery"

// Publisher is one metrics backend. Every method is best-effort: a
// returned error is logged by Proxy and never propagated to callers.
type Publisher interface {
	PublishInvocationCount(ctx context.Context, resourceType, actionType string) error
	PublishInvocationDuration(ctx context.Context, resourceType, actionType string, duration time.Duration) error
	PublishException(ctx context.Context, resourceType, actionType, exceptionType string) error
}

// Proxy fans every publish call out to all installed backends.
type Proxy struct {
	backends []Publisher
}

// NewProxy builds a Proxy over the given backends, in the order given.
func NewProxy(backends ...Publisher) *Proxy {
	return &Proxy{backends: backends}
}

// PublishInvocationCount emits HandlerInvocationCount (spec.md §4.8),
// called once before the handler runs.
func (p *Proxy) PublishInvocationCount(ctx context.Context, resourceType, actionType string) {
	p.fanOut(func(b Publisher) error {
		return b.PublishInvocationCount(ctx, resourceType, actionType)
	})
}

// PublishInvocationDuration emits HandlerInvocationDuration, called once
// after the handler returns.
func (p *Proxy) PublishInvocationDuration(ctx context.Context, resourceType, actionType string, duration time.Duration) {
	p.fanOut(func(b Publisher) error {
		return b.PublishInvocationDuration(ctx, resourceType, actionType, duration)
	})
}

// PublishException emits HandlerException, called on any exception
// escaping the handler or (with actionType == ProviderLogDeliveryAction)
// on a log-delivery failure.
func (p *Proxy) PublishException(ctx context.Context, resourceType, actionType, exceptionType string) {
	p.fanOut(func(b Publisher) error {
		return b.PublishException(ctx, resourceType, actionType, exceptionType)
	})
}

func (p *Proxy) fanOut(call func(Publisher) error) {
	for _, b := range p.backends {
		if err := call(b); err != nil {
			slog.Warn("metrics publish failed", "error", err)
		}
	}
}

// Namespace derives the CloudWatch namespace for resourceType: fixed root
// "AWS/CloudFormation/", with "::" replaced by "/" (spec.md §4.8, §6).
func Namespace(resourceType string) string {
	return "AWS/CloudFormation/" + strings.ReplaceAll(resourceType, "::", "/")
}

// LogDeliveryReporter adapts a Proxy into the FailureReporter shape
// internal/logsink and internal/loghelper expect (ReportLogDeliveryFailure
// (exceptionType string)), bound to one resourceType for the lifetime of
// an invocation.
type LogDeliveryReporter struct {
	Proxy        *Proxy
	ResourceType string
}

func (r *LogDeliveryReporter) ReportLogDeliveryFailure(exceptionType string) {
	r.Proxy.PublishException(context.Background(), r.ResourceType, ProviderLogDeliveryAction, exceptionType)
}
