// Package logsink defines the three log-delivery destinations a provider
// invocation can write to (spec.md §4.5, C6): a synchronous local-stdout
// sink, a CloudWatch Logs sink serialized through a per-stream FIFO queue,
// and an S3-object sink. All three share one Sink contract so the logger
// proxy (internal/providerlog) can treat them uniformly.
//
// Grounded on the teacher's LogSink interface and MultiSink/NoopSink shape
// in internal/logsink/sink.go, generalized from database-backed persistence
// to the spec's delivery targets.
package logsink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cloudforge-run/provider-runtime/internal/logfilter"
)

// Sink is the contract every log destination implements.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Publish delivers one formatted log line, filtered through the
	// sink's own filter chain, at eventTime.
	Publish(ctx context.Context, message string, eventTime time.Time) error
}

// RetryableError marks an error as eligible for the logger proxy's
// retry-exactly-once policy (spec.md §4.7).
type RetryableError struct {
	Err error
}

func (r *RetryableError) Error() string { return r.Err.Error() }
func (r *RetryableError) Unwrap() error { return r.Err }

// Retryable reports whether err was marked retryable by a sink.
func Retryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// FailureReporter publishes the HandlerException(ProviderLogDelivery)
// metric variant (spec.md §4.8) when a sink or helper fails to deliver.
// Satisfied by internal/metrics without an import cycle between the two
// packages.
type FailureReporter interface {
	ReportLogDeliveryFailure(exceptionType string)
}

// noopReporter is used when a sink is built without a metrics proxy (the
// test-entrypoint path, spec.md §4.9, never installs one).
type noopReporter struct{}

func (noopReporter) ReportLogDeliveryFailure(string) {}

// LocalSink writes one line to an io.Writer (the process's default output
// in production) synchronously. Per spec.md §4.5.1 it never fails.
type LocalSink struct {
	mu      sync.Mutex
	out     *bufio.Writer
	filters *logfilter.Chain
}

// NewLocalSink wraps w (os.Stdout in production) with a buffered writer and
// the given filter chain.
func NewLocalSink(w io.Writer, filters *logfilter.Chain) *LocalSink {
	if filters == nil {
		filters = logfilter.NewChain()
	}
	return &LocalSink{out: bufio.NewWriter(w), filters: filters}
}

// NewStdoutSink is a convenience constructor for the default local sink.
func NewStdoutSink(filters *logfilter.Chain) *LocalSink {
	return NewLocalSink(os.Stdout, filters)
}

func (s *LocalSink) Publish(_ context.Context, message string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.filters.Apply(message)
	fmt.Fprintln(s.out, filtered)
	return s.out.Flush()
}
