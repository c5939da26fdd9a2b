package loghelper

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3API struct {
	listOut      *s3.ListObjectsV2Output
	listErr      error
	createErr    error
	putCalls     int
	createCalls  int
}

func (f *fakeS3API) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalls++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3API) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeS3API) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &s3.CreateBucketOutput{}, nil
}

func TestSanitizeFolderName(t *testing.T) {
	if got := SanitizeFolderName("foo bar/baz"); got != "foo_bar/baz" {
		t.Errorf("got %q", got)
	}
}

func TestPrepareFolderReturnsExistingFolder(t *testing.T) {
	api := &fakeS3API{
		listOut: &s3.ListObjectsV2Output{Contents: []types.Object{{}}},
	}
	folder, err := PrepareFolder(context.Background(), api, "bucket", "existing", nil)
	if err != nil {
		t.Fatalf("PrepareFolder: %v", err)
	}
	if folder != "existing" {
		t.Errorf("got %q", folder)
	}
	if api.putCalls != 0 {
		t.Errorf("expected no marker put for existing folder, got %d calls", api.putCalls)
	}
}

func TestPrepareFolderCreatesMarkerWhenMissing(t *testing.T) {
	api := &fakeS3API{listOut: &s3.ListObjectsV2Output{}}
	folder, err := PrepareFolder(context.Background(), api, "bucket", "new-folder", nil)
	if err != nil {
		t.Fatalf("PrepareFolder: %v", err)
	}
	if folder != "new-folder" {
		t.Errorf("got %q", folder)
	}
	if api.putCalls != 1 {
		t.Errorf("expected 1 marker put, got %d", api.putCalls)
	}
}

func TestPrepareFolderCreatesBucketWhenMissing(t *testing.T) {
	api := &fakeS3API{listErr: &fakeAPIError{code: "NoSuchBucket"}}
	_, err := PrepareFolder(context.Background(), api, "bucket", "folder", nil)
	if err != nil {
		t.Fatalf("PrepareFolder: %v", err)
	}
	if api.createCalls != 1 {
		t.Errorf("expected bucket creation, got %d calls", api.createCalls)
	}
}

func TestPrepareFolderGeneratesNameWhenMissing(t *testing.T) {
	api := &fakeS3API{listOut: &s3.ListObjectsV2Output{}}
	folder, err := PrepareFolder(context.Background(), api, "bucket", "", nil)
	if err != nil {
		t.Fatalf("PrepareFolder: %v", err)
	}
	if len(folder) == 0 {
		t.Error("expected generated folder name")
	}
}
