package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudforge-run/provider-runtime/internal/coercion"
	"github.com/cloudforge-run/provider-runtime/internal/fifoqueue"
	"github.com/cloudforge-run/provider-runtime/internal/handlererror"
	"github.com/cloudforge-run/provider-runtime/internal/logging"
	"github.com/cloudforge-run/provider-runtime/internal/metrics"
	"github.com/cloudforge-run/provider-runtime/internal/observability"
	"github.com/cloudforge-run/provider-runtime/internal/progress"
	"github.com/cloudforge-run/provider-runtime/internal/providerlog"
	"github.com/cloudforge-run/provider-runtime/internal/registry"
	"github.com/cloudforge-run/provider-runtime/internal/request"
	"github.com/cloudforge-run/provider-runtime/internal/session"
)

// Entrypoint runs the full invocation pipeline (spec.md §4.9) for one raw
// event: parse, cast, initialize the runtime's sinks on first use,
// install redaction filters, dispatch to the registered handler, record
// metrics, drain outstanding log deliveries within drainTimeout, and
// serialize the resulting ProgressEvent.
func (rt *Runtime) Entrypoint(ctx context.Context, rawEvent []byte, drainTimeout time.Duration) ([]byte, error) {
	resource := rt.resource

	if resource.ModelDescriptor == nil {
		return serializeFailure(handlererror.NewInternalFailure("resource has no registered model descriptor"))
	}

	var span trace.Span
	if observability.Enabled() {
		ctx, span = observability.StartSpan(ctx, "pipeline.entrypoint",
			observability.AttrResourceType.String(resource.Type))
		defer span.End()
	}

	hr, typeConfig, parseErr := parseEvent(rawEvent, resource.TypeConfigDescriptor)
	if parseErr != nil {
		return respondError(span, parseErr)
	}

	resourceReq, castErr := castResourceRequest(hr, resource.ModelDescriptor)
	if castErr != nil {
		return respondError(span, castErr)
	}

	resType := resourceType(resource, hr)
	reporter := &metrics.LogDeliveryReporter{Proxy: rt.metricsProxy, ResourceType: resType}

	sess := session.From(hr.RequestData.ProviderCredentials, hr.Region)
	logger, _ := rt.ensureInitialized(func() (*providerlog.Logger, *fifoqueue.Queue) {
		var cwAPI CloudWatchLogsAPI
		var s3API S3API
		if sess != nil {
			cwAPI = sess.CloudWatchLogs()
			s3API = sess.S3()
		}
		l, q, report := installLogSinks(ctx, cwAPI, s3API, hr, reporter, rt.cfg.Runtime.LogPacingDelay.Duration())
		opLoggerForSpan(span).Debug("log sinks installed", "resourceType", resType,
			"s3", report.s3Installed, "cloudwatch", report.cloudWatchInstalled)
		return l, q
	})

	installRedactionFilters(logger, hr)

	actionType := string(hr.Action)
	rt.metricsProxy.PublishInvocationCount(ctx, resType, actionType)
	startTime := time.Now()

	resourceReq.TypeConfiguration = typeConfig
	freezeResourceRequest(resourceReq)
	frozenCallback := freezeCallbackContext(hr.CallbackContext)

	event, dispatchErr := dispatch(ctx, resource.Handlers, hr.Action, sess, resourceReq, frozenCallback, typeConfig, logger)

	duration := time.Since(startTime)
	rt.metricsProxy.PublishInvocationDuration(ctx, resType, actionType, duration)

	if dispatchErr != nil {
		he := mapHandlerError(dispatchErr)
		rt.metricsProxy.PublishException(ctx, resType, actionType, string(he.Code))
		event = progress.Failed(he)
	} else if event.Status == request.Failed {
		rt.metricsProxy.PublishException(ctx, resType, actionType, string(event.ErrorCode))
	}

	if drainTimeout <= 0 {
		drainTimeout = rt.cfg.Runtime.DrainTimeout.Duration()
	}
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := logger.WaitCompletion(drainCtx); err != nil {
		opLoggerForSpan(span).Warn("log drain did not complete within the bounded window", "error", err, "resourceType", resType)
	}

	if span != nil {
		if event.Status == request.Failed {
			observability.SetSpanError(span, handlererror.New(event.ErrorCode, event.Message))
		} else {
			observability.SetSpanOK(span)
		}
	}

	return json.Marshal(event)
}

// TestEntrypoint runs the pipeline's parse/cast/freeze/dispatch/serialize
// steps without touching runtime state: no sinks are installed, no
// metrics are published, and no log drain occurs (spec.md §4.9, "for unit
// fixtures"). sess, when non-nil, is passed through to the handler as-is.
func TestEntrypoint(ctx context.Context, resource *Resource, sess *session.Session, rawEvent []byte) ([]byte, error) {
	if resource.ModelDescriptor == nil {
		return serializeFailure(handlererror.NewInternalFailure("resource has no registered model descriptor"))
	}

	hr, typeConfig, parseErr := parseEvent(rawEvent, resource.TypeConfigDescriptor)
	if parseErr != nil {
		return respondError(nil, parseErr)
	}

	resourceReq, castErr := castResourceRequest(hr, resource.ModelDescriptor)
	if castErr != nil {
		return respondError(nil, castErr)
	}

	resourceReq.TypeConfiguration = typeConfig
	freezeResourceRequest(resourceReq)
	frozenCallback := freezeCallbackContext(hr.CallbackContext)

	event, dispatchErr := dispatch(ctx, resource.Handlers, hr.Action, sess, resourceReq, frozenCallback, typeConfig, noopLogger{})
	if dispatchErr != nil {
		event = progress.Failed(mapHandlerError(dispatchErr))
	}
	return json.Marshal(event)
}

// noopLogger discards every Log call; the test-entrypoint path installs no
// sinks (spec.md §4.9).
type noopLogger struct{}

func (noopLogger) Log(string, ...any) {}

// parseEvent decodes the raw envelope and coerces typeConfiguration
// (spec.md §4.9 steps 1-2). Missing awsAccountId or malformed
// typeConfiguration map to the error kinds the spec names.
func parseEvent(rawEvent []byte, typeConfigDescriptor *coercion.Descriptor) (*request.HandlerRequest, any, *handlererror.Error) {
	var hr request.HandlerRequest
	if err := json.Unmarshal(rawEvent, &hr); err != nil {
		return nil, nil, handlererror.NewInvalidRequest("malformed event: %v", err)
	}
	if hr.AWSAccountID == "" {
		return nil, nil, handlererror.NewInvalidRequest("missing awsAccountId")
	}

	raw, err := decodeRaw(hr.RequestData.TypeConfiguration)
	if err != nil {
		return nil, nil, handlererror.NewInvalidTypeConfiguration("malformed typeConfiguration: %v", err)
	}
	if raw == nil {
		return &hr, nil, nil
	}
	typeConfig, err := coercion.Coerce(raw, typeConfigDescriptor)
	if err != nil {
		if he, ok := handlererror.As(err); ok {
			return nil, nil, handlererror.NewInvalidTypeConfiguration("%s", he.Message)
		}
		return nil, nil, handlererror.NewInvalidTypeConfiguration("%v", err)
	}

	return &hr, typeConfig, nil
}

// castResourceRequest builds the modeled ResourceHandlerRequest from the
// raw envelope (spec.md §4.9 step 3, §4.1 applied to desired/previous
// state). A ClientRequestToken is always generated: the inbound envelope
// carries none (§6 lists no such field), per SPEC_FULL.md §10's note that
// google/uuid backs its generation.
func castResourceRequest(hr *request.HandlerRequest, modelDescriptor *coercion.Descriptor) (*request.ResourceHandlerRequest, *handlererror.Error) {
	desired, err := decodeAndCoerce(hr.RequestData.ResourceProperties, modelDescriptor)
	if err != nil {
		return nil, invalidRequestFrom(err, "desired resource state")
	}
	previous, err := decodeAndCoerce(hr.RequestData.PreviousResourceProperties, modelDescriptor)
	if err != nil {
		return nil, invalidRequestFrom(err, "previous resource state")
	}

	return &request.ResourceHandlerRequest{
		ClientRequestToken:        uuid.NewString(),
		DesiredResourceState:      desired,
		PreviousResourceState:     previous,
		DesiredResourceTags:       hr.RequestData.StackTags,
		PreviousResourceTags:      hr.RequestData.PreviousStackTags,
		SystemTags:                hr.RequestData.SystemTags,
		AWSAccountID:              hr.AWSAccountID,
		LogicalResourceIdentifier: hr.RequestData.LogicalResourceID,
		Region:                    hr.Region,
		NextToken:                 nextTokenFromCallback(hr.CallbackContext),
	}, nil
}

func invalidRequestFrom(err error, field string) *handlererror.Error {
	if he, ok := handlererror.As(err); ok {
		return handlererror.NewInvalidRequest("%s: %s", field, he.Message)
	}
	return handlererror.NewInvalidRequest("%s: %v", field, err)
}

// decodeAndCoerce decodes raw (which may be empty/nil) and coerces it
// against descriptor. An empty payload decodes to a nil model rather than
// an error: PreviousResourceProperties is absent on Create, for instance.
func decodeAndCoerce(raw json.RawMessage, descriptor *coercion.Descriptor) (any, error) {
	v, err := decodeRaw(raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return coercion.Coerce(v, descriptor)
}

func decodeRaw(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// nextTokenFromCallback recovers a List pagination token threaded back via
// callbackContext: the inbound envelope has no top-level nextToken field
// (spec.md §6), so a re-invoked List handler's continuation token can only
// arrive this way.
func nextTokenFromCallback(callbackContext map[string]any) string {
	if callbackContext == nil {
		return ""
	}
	if v, ok := callbackContext["nextToken"].(string); ok {
		return v
	}
	return ""
}

// freezeResourceRequest deep-freezes every structural field of req in
// place (spec.md §4.9 step 7, §3 "deeply immutable for the duration of
// handler invocation"). Scalar/string fields need no wrapping.
func freezeResourceRequest(req *request.ResourceHandlerRequest) {
	req.DesiredResourceState = request.DeepFreeze(req.DesiredResourceState, nil)
	req.PreviousResourceState = request.DeepFreeze(req.PreviousResourceState, nil)
	req.TypeConfiguration = request.DeepFreeze(req.TypeConfiguration, nil)
}

func freezeCallbackContext(callbackContext map[string]any) map[string]any {
	if callbackContext == nil {
		return nil
	}
	frozen := make(map[string]any, len(callbackContext))
	for k, v := range callbackContext {
		frozen[k] = request.DeepFreeze(v, nil)
	}
	return frozen
}

// dispatch looks up and invokes the registered handler, enforcing the
// non-mutating-action-must-be-terminal invariant (spec.md §4.9 step 8).
// An unknown action, or a non-mutating action that returns InProgress, is
// reported as InternalFailure rather than propagated from the handler.
func dispatch(
	ctx context.Context,
	handlers *registry.Registry,
	action request.Action,
	sess *session.Session,
	resourceReq *request.ResourceHandlerRequest,
	callbackContext map[string]any,
	typeConfig any,
	logger registry.Logger,
) (*progress.Event, error) {
	handler, ok := handlers.Lookup(action)
	if !ok {
		return nil, handlererror.NewInternalFailure("Unknown action")
	}

	event, err := handler(ctx, sess, resourceReq, callbackContext, typeConfig, logger)
	if err != nil {
		return nil, err
	}

	if !action.Mutating() && !event.Status.Terminal() {
		return nil, handlererror.NewInternalFailure("READ and LIST handlers must return synchronously")
	}
	return event, nil
}

func resourceType(resource *Resource, hr *request.HandlerRequest) string {
	if hr.ResourceType != "" {
		return hr.ResourceType
	}
	return resource.Type
}

func mapHandlerError(err error) *handlererror.Error {
	if he, ok := handlererror.As(err); ok {
		return he
	}
	return handlererror.NewInternalFailure("%v", err)
}

func serializeFailure(err *handlererror.Error) ([]byte, error) {
	return json.Marshal(progress.Failed(err))
}

// opLoggerForSpan returns the operational logger, tagged with the active
// span's trace/span IDs when one is running, so a diagnostic emitted mid
// invocation can be correlated back to its trace (spec.md §9).
func opLoggerForSpan(span trace.Span) *slog.Logger {
	if span == nil {
		return logging.Op()
	}
	sc := span.SpanContext()
	if !sc.IsValid() {
		return logging.Op()
	}
	return logging.OpWithTrace(sc.TraceID().String(), sc.SpanID().String())
}

// respondError marks span (if any) as errored and serializes err as a
// terminal ProgressEvent. It does not End span: callers that started one
// already deferred its End.
func respondError(span trace.Span, err *handlererror.Error) ([]byte, error) {
	if span != nil {
		observability.SetSpanError(span, err)
	}
	return serializeFailure(err)
}
