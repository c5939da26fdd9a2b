package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchAPI is the subset of cloudwatch.Client the backend calls.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchBackend publishes the four spec.md §4.8 metrics to CloudWatch
// metrics under the AWS/CloudFormation/<resourceType> namespace.
type CloudWatchBackend struct {
	api CloudWatchAPI
}

// NewCloudWatchBackend wraps api as a Publisher.
func NewCloudWatchBackend(api CloudWatchAPI) *CloudWatchBackend {
	return &CloudWatchBackend{api: api}
}

func (b *CloudWatchBackend) PublishInvocationCount(ctx context.Context, resourceType, actionType string) error {
	return b.put(ctx, resourceType, "HandlerInvocationCount", types.StandardUnitCount, 1, []types.Dimension{
		{Name: aws.String("ActionType"), Value: aws.String(actionType)},
		{Name: aws.String("ResourceType"), Value: aws.String(resourceType)},
	})
}

func (b *CloudWatchBackend) PublishInvocationDuration(ctx context.Context, resourceType, actionType string, duration time.Duration) error {
	return b.put(ctx, resourceType, "HandlerInvocationDuration", types.StandardUnitMilliseconds, float64(duration.Milliseconds()), []types.Dimension{
		{Name: aws.String("ActionType"), Value: aws.String(actionType)},
		{Name: aws.String("ResourceType"), Value: aws.String(resourceType)},
	})
}

func (b *CloudWatchBackend) PublishException(ctx context.Context, resourceType, actionType, exceptionType string) error {
	return b.put(ctx, resourceType, "HandlerException", types.StandardUnitCount, 1, []types.Dimension{
		{Name: aws.String("ActionType"), Value: aws.String(actionType)},
		{Name: aws.String("ExceptionType"), Value: aws.String(exceptionType)},
		{Name: aws.String("ResourceType"), Value: aws.String(resourceType)},
	})
}

func (b *CloudWatchBackend) put(ctx context.Context, resourceType, metricName string, unit types.StandardUnit, value float64, dims []types.Dimension) error {
	now := time.Now()
	_, err := b.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(Namespace(resourceType)),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: dims,
				Timestamp:  aws.Time(now),
				Unit:       unit,
				Value:      aws.Float64(value),
			},
		},
	})
	return err
}
