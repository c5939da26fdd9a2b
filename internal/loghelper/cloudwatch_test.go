package loghelper

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	smithy "github.com/aws/smithy-go"
)

type fakeAPIError struct {
	code string
}

func (e *fakeAPIError) Error() string             { return e.code }
func (e *fakeAPIError) ErrorCode() string          { return e.code }
func (e *fakeAPIError) ErrorMessage() string       { return e.code }
func (e *fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

type fakeCWAPI struct {
	logGroups       []types.LogGroup
	createGroupErr  error
	createStreamErr error
}

func (f *fakeCWAPI) DescribeLogGroups(ctx context.Context, in *cloudwatchlogs.DescribeLogGroupsInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	return &cloudwatchlogs.DescribeLogGroupsOutput{LogGroups: f.logGroups}, nil
}

func (f *fakeCWAPI) CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	if f.createGroupErr != nil {
		return nil, f.createGroupErr
	}
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *fakeCWAPI) CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	if f.createStreamErr != nil {
		return nil, f.createStreamErr
	}
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func TestPrepareLogStreamCreatesGroupAndStream(t *testing.T) {
	api := &fakeCWAPI{}
	name, err := PrepareLogStream(context.Background(), api, "my-group", "my:stream", nil)
	if err != nil {
		t.Fatalf("PrepareLogStream: %v", err)
	}
	if name != "my__stream" {
		t.Errorf("expected sanitized stream name, got %q", name)
	}
}

func TestPrepareLogStreamGeneratesNameWhenMissing(t *testing.T) {
	api := &fakeCWAPI{}
	name, err := PrepareLogStream(context.Background(), api, "my-group", "", nil)
	if err != nil {
		t.Fatalf("PrepareLogStream: %v", err)
	}
	if len(name) == 0 {
		t.Error("expected a generated stream name")
	}
}

func TestPrepareLogStreamSkipsCreateWhenGroupExists(t *testing.T) {
	api := &fakeCWAPI{
		logGroups: []types.LogGroup{{LogGroupName: aws.String("my-group")}},
		// Any CreateLogGroup call would fail, so success proves it was skipped.
		createGroupErr: &fakeAPIError{code: "AccessDeniedException"},
	}
	_, err := PrepareLogStream(context.Background(), api, "my-group", "stream", nil)
	if err != nil {
		t.Fatalf("PrepareLogStream: %v", err)
	}
}

func TestPrepareLogStreamReturnsErrorOnFailure(t *testing.T) {
	api := &fakeCWAPI{createGroupErr: &fakeAPIError{code: "AccessDeniedException"}}
	_, err := PrepareLogStream(context.Background(), api, "my-group", "stream", nil)
	if err == nil {
		t.Error("expected error to propagate")
	}
}
