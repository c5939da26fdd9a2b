// Package pipeline wires every completed package into the invocation
// pipeline (spec.md §4.9, C12): parse the raw event, cast and coerce it
// into a ResourceHandlerRequest, initialize a Runtime on first use,
// dispatch to the resource's registered handler, and serialize the
// resulting ProgressEvent.
//
// Grounded on the teacher's top-level Dispatch/handleInvoke orchestration
// (internal/executor and cmd/agent's wiring of session, queue, and logger
// construction around one function call), generalized from VM invocation
// to the closed Create/Read/Update/Delete/List action set.
package pipeline

import (
	"sync"

	"github.com/cloudforge-run/provider-runtime/internal/coercion"
	"github.com/cloudforge-run/provider-runtime/internal/config"
	"github.com/cloudforge-run/provider-runtime/internal/fifoqueue"
	"github.com/cloudforge-run/provider-runtime/internal/metrics"
	"github.com/cloudforge-run/provider-runtime/internal/providerlog"
	"github.com/cloudforge-run/provider-runtime/internal/registry"
)

// Resource describes one resource type's provider: its name (for the
// metrics namespace and log group defaults), its registered action
// handlers, and the coercion descriptors for its model and type
// configuration (spec.md §4.1).
type Resource struct {
	Type                  string
	Handlers              *registry.Registry
	ModelDescriptor       *coercion.Descriptor
	TypeConfigDescriptor  *coercion.Descriptor
}

// NewResource builds a Resource with an empty handler registry, ready for
// the caller to Register actions onto before first invocation.
func NewResource(resourceType string) *Resource {
	return &Resource{Type: resourceType, Handlers: registry.New()}
}

// Runtime holds the process-lifetime state a resource's handlers share
// across invocations: the logger/sink set, the metrics proxy, and the
// CloudWatch pacing queue. That state is built on the first Entrypoint call
// and reused by later calls on the same Runtime, matching spec.md §4.9's "initialize runtime (once per process,
// idempotent on subsequent invocations)".
type Runtime struct {
	resource *Resource
	cfg      *config.Config

	mu          sync.Mutex
	initialized bool

	logger       *providerlog.Logger
	metricsProxy *metrics.Proxy
	queue        *fifoqueue.Queue
}

// NewRuntime returns a Runtime bound to resource, uninitialized, using
// config.DefaultConfig() for its CloudWatch pacing delay and log-drain
// timeout. The first Entrypoint call through it performs sink installation
// and metrics setup; later calls reuse the same logger, queue, and metrics
// proxy.
func NewRuntime(resource *Resource, metricsProxy *metrics.Proxy) *Runtime {
	return NewRuntimeWithConfig(resource, metricsProxy, config.DefaultConfig())
}

// NewRuntimeWithConfig is NewRuntime with an explicit operational Config,
// for callers (e.g. cmd/providerctl) that load pacing/drain settings from
// a file or environment rather than accepting the defaults.
func NewRuntimeWithConfig(resource *Resource, metricsProxy *metrics.Proxy, cfg *config.Config) *Runtime {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Runtime{resource: resource, metricsProxy: metricsProxy, cfg: cfg}
}

// ensureInitialized lazily builds the Runtime's logger and queue exactly
// once, no matter how many goroutines call Entrypoint concurrently on the
// same Runtime.
func (rt *Runtime) ensureInitialized(build func() (*providerlog.Logger, *fifoqueue.Queue)) (*providerlog.Logger, *fifoqueue.Queue) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.initialized {
		rt.logger, rt.queue = build()
		rt.initialized = true
	}
	return rt.logger, rt.queue
}
