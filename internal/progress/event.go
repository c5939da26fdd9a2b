// Package progress implements the ProgressEvent response envelope
// (spec.md §3, §4.6) returned from every handler invocation.
package progress

import (
	"encoding/json"

	"github.com/cloudforge-run/provider-runtime/internal/handlererror"
	"github.com/cloudforge-run/provider-runtime/internal/request"
)

const (
	minCallbackDelaySeconds = 0
	maxCallbackDelaySeconds = 60
)

// Event is the response envelope a handler invocation produces. ResourceModel
// and ResourceModels are left as any since their shape is resource-type
// specific; the pipeline marshals them as-is.
type Event struct {
	Status               request.OperationStatus `json:"status"`
	ErrorCode             handlererror.Code       `json:"errorCode,omitempty"`
	Message               string                  `json:"message,omitempty"`
	CallbackContext       map[string]any          `json:"callbackContext,omitempty"`
	CallbackDelaySeconds  int                     `json:"callbackDelaySeconds"`
	ResourceModel         any                     `json:"resourceModel,omitempty"`
	ResourceModels        []any                   `json:"resourceModels,omitempty"`
	NextToken             string                  `json:"nextToken,omitempty"`
}

// clampDelay enforces the [0,60] bound from SPEC_FULL.md §11: callers may
// request more, but the event never carries a delay the control plane
// would reject.
func clampDelay(seconds int) int {
	if seconds < minCallbackDelaySeconds {
		return minCallbackDelaySeconds
	}
	if seconds > maxCallbackDelaySeconds {
		return maxCallbackDelaySeconds
	}
	return seconds
}

// Success builds a terminal SUCCESS event, optionally carrying a resource
// model (Create/Read/Update); a page of models for List uses SuccessList.
func Success(model any) *Event {
	return &Event{Status: request.Success, ResourceModel: model}
}

// SuccessList builds a terminal SUCCESS event for a List invocation.
func SuccessList(models []any, nextToken string) *Event {
	return &Event{Status: request.Success, ResourceModels: models, NextToken: nextToken}
}

// InProgress builds a non-terminal IN_PROGRESS event, to be re-invoked after
// delaySeconds (clamped to [0,60]) with callbackContext threaded back in.
func InProgress(delaySeconds int, callbackContext map[string]any, model any) *Event {
	return &Event{
		Status:              request.InProgress,
		CallbackDelaySeconds: clampDelay(delaySeconds),
		CallbackContext:      callbackContext,
		ResourceModel:        model,
	}
}

// Failed builds a terminal FAILED event from a handler error.
func Failed(err *handlererror.Error) *Event {
	return &Event{
		Status:    request.Failed,
		ErrorCode: err.Code,
		Message:   err.Message,
	}
}

// FailedWith builds a terminal FAILED event from a raw code/message pair,
// for callers that don't already hold a *handlererror.Error.
func FailedWith(code handlererror.Code, message string) *Event {
	return &Event{Status: request.Failed, ErrorCode: code, Message: message}
}

// MarshalJSON forces CallbackDelaySeconds to 0 on a terminal event, so a
// SUCCESS/FAILED response always reports "callbackDelaySeconds":0 rather
// than carrying over whatever value happened to be set on the Event.
func (e *Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(*e)
	if a.Status.Terminal() {
		a.CallbackDelaySeconds = 0
	}
	return json.Marshal(a)
}
