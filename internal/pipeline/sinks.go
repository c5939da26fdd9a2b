package pipeline

import (
	"context"
	"time"

	"github.com/cloudforge-run/provider-runtime/internal/fifoqueue"
	"github.com/cloudforge-run/provider-runtime/internal/logfilter"
	"github.com/cloudforge-run/provider-runtime/internal/loghelper"
	"github.com/cloudforge-run/provider-runtime/internal/logsink"
	"github.com/cloudforge-run/provider-runtime/internal/providerlog"
	"github.com/cloudforge-run/provider-runtime/internal/request"
)

// addFilteredSink pairs a freshly built chain with AddSink's bookkeeping
// copy: a sink's own filters field and the Logger's sinkEntry.chain must be
// the same *logfilter.Chain instance, or a later AddFilter call only
// extends the Logger's copy and never reaches what the sink actually
// applies on delivery.
func addFilteredSink(logger *providerlog.Logger, build func(*logfilter.Chain) logsink.Sink) {
	chain := logfilter.NewChain()
	logger.AddSink(build(chain), chain)
}

// sinkInstallReport records which of the optional sinks came up, purely
// for operational logging and span attributes — it never affects the
// response.
type sinkInstallReport struct {
	s3Installed         bool
	cloudWatchInstalled bool
}

// CloudWatchLogsAPI unions the narrower logsink.CloudWatchLogsAPI
// (publishing) and loghelper.CloudWatchLogsAPI (provisioning) interfaces,
// since installLogSinks needs both against the same client. A
// *cloudwatchlogs.Client satisfies it without any adapter; tests pass a
// fake implementing all five methods.
type CloudWatchLogsAPI interface {
	logsink.CloudWatchLogsAPI
	loghelper.CloudWatchLogsAPI
}

// S3API unions logsink.S3API and loghelper.S3API — identical method sets
// today, kept as separate named types so each package states its own
// dependency, unioned here for the one caller that needs both.
type S3API interface {
	logsink.S3API
	loghelper.S3API
}

// installLogSinks builds the Logger for one invocation's runtime and
// installs every sink spec.md §4.9 step 4 calls for. cwAPI/s3API are this
// package's CloudWatchLogsAPI/S3API unions rather than a
// *session.Session so tests inject fakes without a live AWS endpoint; in
// production the caller passes sess.CloudWatchLogs() and sess.S3()
// directly, which already satisfy these interfaces structurally.
//
// The local stdout sink is always installed. The S3 and CloudWatch sinks
// are each attempted independently whenever provider credentials and a
// provider log group are present; either, both, or neither may end up
// installed. Logger fans every Log call out to every installed sink
// equally, so "primary"/"fallback" in spec.md describes provisioning
// intent rather than an exclusivity mechanism enforced here.
func installLogSinks(
	ctx context.Context,
	cwAPI CloudWatchLogsAPI,
	s3API S3API,
	hr *request.HandlerRequest,
	reporter logsink.FailureReporter,
	pacing time.Duration,
) (*providerlog.Logger, *fifoqueue.Queue, sinkInstallReport) {
	logger := providerlog.New()
	addFilteredSink(logger, func(chain *logfilter.Chain) logsink.Sink {
		return logsink.NewStdoutSink(chain)
	})

	var report sinkInstallReport

	logGroup := hr.RequestData.ProviderLogGroupName
	if hr.RequestData.ProviderCredentials == nil || logGroup == "" {
		return logger, nil, report
	}

	queue := fifoqueue.New()

	if s3API != nil {
		bucket := logGroup + "-" + hr.AWSAccountID
		folder, err := loghelper.PrepareFolder(ctx, s3API, bucket, logGroup, reporter)
		if err == nil {
			addFilteredSink(logger, func(chain *logfilter.Chain) logsink.Sink {
				return logsink.NewS3Sink(s3API, bucket, folder, chain, reporter)
			})
			report.s3Installed = true
		}
	}

	if cwAPI != nil {
		streamName := cloudWatchStreamName(hr)
		name, err := loghelper.PrepareLogStream(ctx, cwAPI, logGroup, streamName, reporter)
		if err == nil {
			var cwSink *logsink.CloudWatchSink
			addFilteredSink(logger, func(chain *logfilter.Chain) logsink.Sink {
				cwSink = logsink.NewCloudWatchSink(cwAPI, logGroup, name, queue, chain, reporter).WithPacing(pacing)
				return cwSink
			})
			report.cloudWatchInstalled = true
			_ = cwSink.RefreshSequenceToken(ctx)
		}
	}

	return logger, queue, report
}

// cloudWatchStreamName derives "<stackId>/<logicalResourceId>" when both
// are present, else "<awsAccountId>-<region>" (spec.md §4.9 step 4, §6).
// loghelper.PrepareLogStream sanitizes the remaining ":" itself.
func cloudWatchStreamName(hr *request.HandlerRequest) string {
	if hr.StackID != "" && hr.RequestData.LogicalResourceID != "" {
		return hr.StackID + "/" + hr.RequestData.LogicalResourceID
	}
	return hr.AWSAccountID + "-" + hr.Region
}

// installRedactionFilters installs the three literal-value filters spec.md
// §4.9 step 5 requires: the bearer token, every provider-credential value,
// and every caller-credential value, each redacted before any event data
// is emitted.
func installRedactionFilters(logger *providerlog.Logger, hr *request.HandlerRequest) {
	addLiteral(logger, hr.BearerToken)
	if hr.RequestData.ProviderCredentials != nil {
		for _, v := range hr.RequestData.ProviderCredentials.Values() {
			addLiteral(logger, v)
		}
	}
	if hr.RequestData.CallerCredentials != nil {
		for _, v := range hr.RequestData.CallerCredentials.Values() {
			addLiteral(logger, v)
		}
	}
}

func addLiteral(logger *providerlog.Logger, secret string) {
	if f := logfilter.NewLiteralFilter(secret); f != nil {
		logger.AddFilter(f)
	}
}
