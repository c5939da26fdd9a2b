// Package registry implements the action-keyed handler table a resource
// provider builds at construction time (spec.md §4.9, "Handler-registration
// decoration"). The original runtime associates handler methods with
// actions via a declarative per-method annotation; Go has no annotation
// equivalent, so registration is an explicit call the resource's
// constructor makes for each action it supports.
//
// Grounded on the teacher's explicit handler-map construction (action/route
// keyed function tables built once in a constructor rather than reflected
// off struct tags), consolidated here into one small, resource-agnostic
// table type reused by internal/pipeline.
package registry

import (
	"context"

	"github.com/cloudforge-run/provider-runtime/internal/progress"
	"github.com/cloudforge-run/provider-runtime/internal/request"
	"github.com/cloudforge-run/provider-runtime/internal/session"
)

// Handler implements one resource action. sess is nil when the event
// carries no provider credentials, and on the test-event path unless the
// TestEntrypoint caller supplies one (spec.md §6); callbackContext and
// typeConfiguration are already
// coerced/frozen by the time the pipeline calls a Handler.
type Handler func(ctx context.Context, sess *session.Session, req *request.ResourceHandlerRequest, callbackContext map[string]any, typeConfiguration any, logger Logger) (*progress.Event, error)

// Logger is the fire-and-forget logging contract exposed to handler code
// (spec.md §6); satisfied by *internal/providerlog.Logger.
type Logger interface {
	Log(message string, args ...any)
}

// Registry is an action-keyed handler table. The zero value is ready to
// use. Registering the same action twice overwrites the earlier handler
// (spec.md §4.9, "Duplicate registrations overwrite").
type Registry struct {
	handlers map[request.Action]Handler
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[request.Action]Handler)}
}

// Register associates action with handler, overwriting any existing
// registration for the same action.
func (r *Registry) Register(action request.Action, handler Handler) *Registry {
	if r.handlers == nil {
		r.handlers = make(map[request.Action]Handler)
	}
	r.handlers[action] = handler
	return r
}

// Lookup returns the handler registered for action, if any.
func (r *Registry) Lookup(action request.Action) (Handler, bool) {
	h, ok := r.handlers[action]
	return h, ok
}
