// Package sample provides a minimal, fully-wired resource provider used by
// cmd/providerctl for local invocation testing (spec.md §4.9,
// "testEntrypoint ... for unit fixtures"). It is not part of the runtime
// core: real resource providers register their own handlers the same way
// this one does, against their own model.
package sample

import (
	"context"

	"github.com/cloudforge-run/provider-runtime/internal/coercion"
	"github.com/cloudforge-run/provider-runtime/internal/handlererror"
	"github.com/cloudforge-run/provider-runtime/internal/pipeline"
	"github.com/cloudforge-run/provider-runtime/internal/progress"
	"github.com/cloudforge-run/provider-runtime/internal/registry"
	"github.com/cloudforge-run/provider-runtime/internal/request"
	"github.com/cloudforge-run/provider-runtime/internal/session"
)

// ResourceType is the CloudFormation-style type name this sample provider
// registers under.
const ResourceType = "Sample::Echo::Resource"

// modelDescriptor describes the Echo resource's shape: a plain object whose
// values pass through uncoerced (Elem is nil), so a field such as "message"
// keeps whatever JSON type it arrived with.
var modelDescriptor = &coercion.Descriptor{
	Kind: coercion.KindMap,
	Elem: nil,
}

// NewResource builds the Echo sample provider: a Resource with all five
// actions registered. CREATE/UPDATE echo the desired state back as the
// resource model; READ does the same; DELETE returns an empty success;
// LIST returns the desired state as a single-element page.
func NewResource() *pipeline.Resource {
	res := pipeline.NewResource(ResourceType)
	res.ModelDescriptor = modelDescriptor
	res.TypeConfigDescriptor = &coercion.Descriptor{Kind: coercion.KindMap}

	res.Handlers.
		Register(request.Create, createHandler).
		Register(request.Read, readHandler).
		Register(request.Update, updateHandler).
		Register(request.Delete, deleteHandler).
		Register(request.List, listHandler)

	return res
}

func createHandler(_ context.Context, _ *session.Session, req *request.ResourceHandlerRequest, _ map[string]any, _ any, logger registry.Logger) (*progress.Event, error) {
	logger.Log("creating echo resource, clientRequestToken=%s", req.ClientRequestToken)
	if req.DesiredResourceState == nil {
		return nil, handlererror.NewInvalidRequest("desiredResourceState is required")
	}
	return progress.Success(req.DesiredResourceState), nil
}

func readHandler(_ context.Context, _ *session.Session, req *request.ResourceHandlerRequest, _ map[string]any, _ any, logger registry.Logger) (*progress.Event, error) {
	logger.Log("reading echo resource")
	if req.DesiredResourceState == nil {
		return nil, handlererror.NewNotFound("no echo resource for clientRequestToken=%s", req.ClientRequestToken)
	}
	return progress.Success(req.DesiredResourceState), nil
}

func updateHandler(_ context.Context, _ *session.Session, req *request.ResourceHandlerRequest, _ map[string]any, _ any, logger registry.Logger) (*progress.Event, error) {
	if !request.Diff(req.PreviousResourceState, req.DesiredResourceState) {
		logger.Log("update is a no-op, previous and desired states are equal")
	}
	logger.Log("updating echo resource")
	return progress.Success(req.DesiredResourceState), nil
}

func deleteHandler(_ context.Context, _ *session.Session, _ *request.ResourceHandlerRequest, _ map[string]any, _ any, logger registry.Logger) (*progress.Event, error) {
	logger.Log("deleting echo resource")
	return progress.Success(nil), nil
}

func listHandler(_ context.Context, _ *session.Session, req *request.ResourceHandlerRequest, _ map[string]any, _ any, logger registry.Logger) (*progress.Event, error) {
	logger.Log("listing echo resources")
	if req.DesiredResourceState == nil {
		return progress.SuccessList(nil, ""), nil
	}
	return progress.SuccessList([]any{req.DesiredResourceState}, ""), nil
}
