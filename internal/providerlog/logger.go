// Package providerlog implements the logger proxy (spec.md §4.7, C8)
// handed to handler code: an ordered list of sinks, each with its own filter
// chain that AddFilter extends retroactively, and a completion tracker that
// backs the invocation's bounded log-drain window. There is no logger-wide
// filter list: a sink added after an AddFilter call does not receive that
// filter.
//
// Grounded on the teacher's fan-out/fire-and-forget style in
// internal/executor/invocation_log_batcher.go and the safeGo panic-recovery
// idiom in internal/executor/executor_options.go.
package providerlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudforge-run/provider-runtime/internal/logfilter"
	"github.com/cloudforge-run/provider-runtime/internal/logsink"
	"github.com/cloudforge-run/provider-runtime/internal/tracker"
)

type sinkEntry struct {
	sink  logsink.Sink
	chain *logfilter.Chain
}

// Logger fans every Log call out to its installed sinks without blocking
// the caller. Handler code must not await it (spec.md §6).
type Logger struct {
	mu      sync.Mutex
	sinks   []sinkEntry
	tracker *tracker.Tracker
}

// New returns a Logger with no sinks installed.
func New() *Logger {
	return &Logger{tracker: tracker.New()}
}

// AddSink installs sink into the fan-out list, associated with its own
// filter chain so a later AddFilter call can retroactively extend it.
func (l *Logger) AddSink(sink logsink.Sink, chain *logfilter.Chain) {
	if chain == nil {
		chain = logfilter.NewChain()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sinkEntry{sink: sink, chain: chain})
}

// AddFilter installs f into every currently-registered sink's filter
// chain, retroactively (spec.md §4.7).
func (l *Logger) AddFilter(f logfilter.Filter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.sinks {
		e.chain.Add(f)
	}
}

// Log formats message with args, stamps the current time, and fans the
// result out to every sink without blocking. Each sink delivery that fails
// with a retryable error is retried exactly once; further failure is
// recorded in the tracker but never returned to the caller.
//
// Each call spawns one goroutine per sink, so two successive Log calls can
// race into the same sink out of call order. For the CloudWatch sink this
// is harmless: internal/fifoqueue still serializes delivery and sequence-
// token chaining per log stream, so within-stream ordering and the
// non-overlap invariant hold regardless of which goroutine wins the race
// to enqueue first — only the best-effort ordering across two distinct
// Log calls is unspecified.
func (l *Logger) Log(message string, args ...any) {
	formatted := message
	if len(args) > 0 {
		formatted = fmt.Sprintf(message, args...)
	}
	eventTime := time.Now()

	l.mu.Lock()
	sinks := make([]sinkEntry, len(l.sinks))
	copy(sinks, l.sinks)
	l.mu.Unlock()

	for _, e := range sinks {
		if err := l.tracker.AddSubmitted(); err != nil {
			// Logger has already started draining; drop the late entry.
			return
		}
		go l.deliver(e.sink, formatted, eventTime)
	}
}

// deliver runs one sink delivery with panic isolation, always resolving
// the tracker entry that AddSubmitted reserved for it — even a panic mid
// delivery counts as a failure rather than leaving the tracker permanently
// unresolved.
func (l *Logger) deliver(sink logsink.Sink, message string, eventTime time.Time) {
	succeeded := false
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in log delivery", "panic", r)
		}
		if succeeded {
			l.tracker.AddCompleted()
		} else {
			l.tracker.AddFailed()
		}
	}()

	ctx := context.Background()
	if err := sink.Publish(ctx, message, eventTime); err == nil {
		succeeded = true
		return
	} else if logsink.Retryable(err) {
		if err := sink.Publish(ctx, message, eventTime); err == nil {
			succeeded = true
		}
	}
}

// WaitCompletion marks the tracker done and blocks until every submitted
// delivery has resolved or ctx is done. On timeout, remaining deliveries
// are abandoned (recorded failed) so the tracker's Finished signal still
// fires (spec.md §5, "Cancellation").
func (l *Logger) WaitCompletion(ctx context.Context) error {
	l.tracker.End()
	if err := l.tracker.WaitCompletion(ctx); err != nil {
		l.tracker.AbandonRemaining()
		return err
	}
	return nil
}
