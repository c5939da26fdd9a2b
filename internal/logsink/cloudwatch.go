package logsink

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	smithy "github.com/aws/smithy-go"

	"github.com/cloudforge-run/provider-runtime/internal/fifoqueue"
	"github.com/cloudforge-run/provider-runtime/internal/logfilter"
)

const pacingDelay = 250 * time.Millisecond

var sequenceTokenPattern = regexp.MustCompile(`(?i)sequencetoken(?::| is:)\s*(\S+)`)

// CloudWatchLogsAPI is the subset of cloudwatchlogs.Client the sink calls,
// narrowed so tests substitute a fake without a live AWS endpoint.
type CloudWatchLogsAPI interface {
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	DescribeLogStreams(ctx context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
}

// CloudWatchSink delivers log lines to one (logGroup, logStream) pair.
// Publishes for this sink are serialized through queue under ownerKey so
// the sequence-token contract (spec.md §4.3) holds; mu still guards
// nextSequenceToken because RefreshSequenceToken can also run outside the
// queue (the pipeline primes the token that way).
type CloudWatchSink struct {
	api      CloudWatchLogsAPI
	logGroup string
	logStream string
	queue    *fifoqueue.Queue
	ownerKey string
	filters  *logfilter.Chain
	reporter FailureReporter
	pace     time.Duration

	mu                sync.Mutex
	nextSequenceToken *string
}

// NewCloudWatchSink builds a sink for one log group/stream pair. queue is
// typically shared across sinks in the same invocation so distinct streams
// still run concurrently while sharing one dispatcher.
func NewCloudWatchSink(api CloudWatchLogsAPI, logGroup, logStream string, queue *fifoqueue.Queue, filters *logfilter.Chain, reporter FailureReporter) *CloudWatchSink {
	if filters == nil {
		filters = logfilter.NewChain()
	}
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &CloudWatchSink{
		api:       api,
		logGroup:  logGroup,
		logStream: logStream,
		queue:     queue,
		ownerKey:  logGroup + "/" + logStream,
		filters:   filters,
		reporter:  reporter,
		pace:      pacingDelay,
	}
}

// WithPacing overrides the delay Publish waits before each PutLogEvents
// attempt (spec.md §5's "open question": implementations may replace the
// fixed 250ms with something load-aware, e.g. operator-configured via
// internal/config.RuntimeConfig.LogPacingDelay). Returns s for chaining.
func (s *CloudWatchSink) WithPacing(d time.Duration) *CloudWatchSink {
	if d > 0 {
		s.pace = d
	}
	return s
}

// Publish enqueues a PutLogEvents task and waits for it to resolve. Per
// spec.md §4.5.2, an empty group or stream is a silent no-op.
func (s *CloudWatchSink) Publish(ctx context.Context, message string, eventTime time.Time) error {
	if s.logGroup == "" || s.logStream == "" {
		return nil
	}
	filtered := s.filters.Apply(message)

	future := s.queue.Enqueue(ctx, s.ownerKey, func(taskCtx context.Context) (any, error) {
		return nil, s.putOnce(taskCtx, filtered, eventTime)
	})
	_, err := future.Wait(ctx)
	return err
}

func (s *CloudWatchSink) putOnce(ctx context.Context, message string, eventTime time.Time) error {
	select {
	case <-time.After(s.pace):
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	token := s.nextSequenceToken
	s.mu.Unlock()

	out, err := s.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(s.logGroup),
		LogStreamName: aws.String(s.logStream),
		LogEvents: []types.InputLogEvent{
			{
				Message:   aws.String(message),
				Timestamp: aws.Int64(eventTime.UnixMilli()),
			},
		},
		SequenceToken: token,
	})
	if err != nil {
		return s.handlePutError(ctx, err)
	}

	s.mu.Lock()
	s.nextSequenceToken = out.NextSequenceToken
	s.mu.Unlock()

	if out.RejectedLogEventsInfo != nil {
		s.reporter.ReportLogDeliveryFailure("RejectedLogEvents")
		return errors.New("logsink: cloudwatch rejected log events")
	}
	return nil
}

func (s *CloudWatchSink) handlePutError(ctx context.Context, err error) error {
	code := apiErrorCode(err)
	switch code {
	case "DataAlreadyAcceptedException", "InvalidSequenceTokenException", "ThrottlingException":
		select {
		case <-time.After(s.pace):
		case <-ctx.Done():
			return ctx.Err()
		}
		if tok, ok := extractSequenceToken(err.Error()); ok {
			s.mu.Lock()
			s.nextSequenceToken = &tok
			s.mu.Unlock()
		} else if refreshErr := s.RefreshSequenceToken(ctx); refreshErr != nil {
			s.reporter.ReportLogDeliveryFailure(code)
			return &RetryableError{Err: err}
		}
		s.reporter.ReportLogDeliveryFailure(code)
		return &RetryableError{Err: err}
	default:
		s.reporter.ReportLogDeliveryFailure(errorTypeName(err))
		return err
	}
}

// RefreshSequenceToken re-reads the stream's current sequence token via
// DescribeLogStreams, used both on recognized put failures and for
// post-provision priming (spec.md §4.5.2).
func (s *CloudWatchSink) RefreshSequenceToken(ctx context.Context) error {
	out, err := s.api.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(s.logGroup),
		LogStreamNamePrefix: aws.String(s.logStream),
		Limit:               aws.Int32(1),
	})
	if err != nil {
		return err
	}
	for _, stream := range out.LogStreams {
		if stream.LogStreamName != nil && *stream.LogStreamName == s.logStream {
			s.mu.Lock()
			s.nextSequenceToken = stream.UploadSequenceToken
			s.mu.Unlock()
			return nil
		}
	}
	return nil
}

func extractSequenceToken(message string) (string, bool) {
	m := sequenceTokenPattern.FindStringSubmatch(message)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func errorTypeName(err error) string {
	if code := apiErrorCode(err); code != "" {
		return code
	}
	return "UnknownException"
}
