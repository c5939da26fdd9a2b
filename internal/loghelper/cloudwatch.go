// Package loghelper provisions the destinations internal/logsink's
// CloudWatch and S3 sinks write to (spec.md §4.6, C7): creating the log
// group/stream or bucket/folder lazily, on first use, tolerating
// already-exists races.
package loghelper

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	smithy "github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// CloudWatchLogsAPI is the subset of cloudwatchlogs.Client used to
// provision a log group/stream.
type CloudWatchLogsAPI interface {
	DescribeLogGroups(ctx context.Context, in *cloudwatchlogs.DescribeLogGroupsInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// FailureReporter publishes the ProviderLogDelivery metric variant on a
// provisioning failure.
type FailureReporter interface {
	ReportLogDeliveryFailure(exceptionType string)
}

type noopReporter struct{}

func (noopReporter) ReportLogDeliveryFailure(string) {}

// PrepareLogStream ensures logGroup and a log stream exist, returning the
// (possibly sanitized or generated) stream name. On any failure it reports
// the ProviderLogDelivery metric and returns ("", err) so the caller falls
// back to the S3 sink (spec.md §4.6).
func PrepareLogStream(ctx context.Context, api CloudWatchLogsAPI, logGroup, streamName string, reporter FailureReporter) (string, error) {
	if reporter == nil {
		reporter = noopReporter{}
	}

	name := streamName
	if name == "" {
		name = uuid.NewString()
	} else {
		name = strings.ReplaceAll(name, ":", "__")
	}

	if err := ensureLogGroup(ctx, api, logGroup); err != nil {
		reporter.ReportLogDeliveryFailure(apiErrorCode(err))
		return "", err
	}
	if err := ensureLogStream(ctx, api, logGroup, name); err != nil {
		reporter.ReportLogDeliveryFailure(apiErrorCode(err))
		return "", err
	}
	return name, nil
}

func ensureLogGroup(ctx context.Context, api CloudWatchLogsAPI, logGroup string) error {
	out, err := api.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(logGroup),
	})
	if err != nil {
		return err
	}
	for _, g := range out.LogGroups {
		if g.LogGroupName != nil && *g.LogGroupName == logGroup {
			return nil
		}
	}
	_, err = api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(logGroup),
	})
	if isResourceAlreadyExists(err) {
		return nil
	}
	return err
}

func ensureLogStream(ctx context.Context, api CloudWatchLogsAPI, logGroup, stream string) error {
	_, err := api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(stream),
	})
	if isResourceAlreadyExists(err) {
		return nil
	}
	return err
}

func isResourceAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var resourceExists *types.ResourceAlreadyExistsException
	return errors.As(err, &resourceExists)
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return "UnknownException"
}
