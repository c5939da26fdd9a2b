package logsink

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cloudforge-run/provider-runtime/internal/logfilter"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// S3API is the subset of s3.Client the sink and loghelper call.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Sink delivers log lines as individual objects in a bucket/folder,
// spec.md §4.5.3. The pipeline installs it whenever its folder can be
// provisioned, alongside the CloudWatch sink, so it receives every line, not
// only those logged after CloudWatch provisioning fails.
type S3Sink struct {
	api      S3API
	bucket   string
	folder   string
	filters  *logfilter.Chain
	reporter FailureReporter
}

// NewS3Sink builds a sink writing into bucket/folder.
func NewS3Sink(api S3API, bucket, folder string, filters *logfilter.Chain, reporter FailureReporter) *S3Sink {
	if filters == nil {
		filters = logfilter.NewChain()
	}
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &S3Sink{api: api, bucket: bucket, folder: folder, filters: filters, reporter: reporter}
}

func (s *S3Sink) Publish(ctx context.Context, message string, eventTime time.Time) error {
	if s.bucket == "" || s.folder == "" {
		return nil
	}
	filtered := s.filters.Apply(message)
	key := s.objectKey(eventTime)

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("text/plain"),
		Body:        bytes.NewReader([]byte(filtered)),
	})
	if err != nil {
		s.reporter.ReportLogDeliveryFailure(errorTypeName(err))
		return err
	}
	return nil
}

// objectKey builds "<folder>/<ISO-timestamp-stripped-of-non-alphanum>-<rand 0..99>.log".
func (s *S3Sink) objectKey(eventTime time.Time) string {
	stamp := nonAlphanumeric.ReplaceAllString(eventTime.UTC().Format(time.RFC3339Nano), "")
	return fmt.Sprintf("%s/%s-%d.log", s.folder, stamp, rand.Intn(100))
}

// SanitizeFolderName replaces characters outside [a-z0-9!_'.*()/-] with "_"
// per spec.md §6's S3 folder naming rule.
func SanitizeFolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if isAllowedFolderChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isAllowedFolderChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case strings.ContainsRune(`!_'.*()/-`, r):
		return true
	default:
		return false
	}
}
