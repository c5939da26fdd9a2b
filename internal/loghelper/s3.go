package loghelper

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of s3.Client used to provision a bucket/folder.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// SanitizeFolderName replaces characters outside [a-z0-9!_'.*()/-] with "_".
func SanitizeFolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(`!_'.*()/-`, r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// PrepareFolder ensures bucket exists and contains a marker object for
// folder, returning the (possibly sanitized or generated) folder name. On
// any failure it reports the ProviderLogDelivery metric and returns
// ("", err) (spec.md §4.6).
func PrepareFolder(ctx context.Context, api S3API, bucket, folderName string, reporter FailureReporter) (string, error) {
	if reporter == nil {
		reporter = noopReporter{}
	}

	folder := folderName
	if folder == "" {
		folder = uuid.NewString()
	} else {
		folder = SanitizeFolderName(folder)
	}

	exists, bucketMissing, err := folderState(ctx, api, bucket, folder)
	if err != nil {
		reporter.ReportLogDeliveryFailure(apiErrorCode(err))
		return "", err
	}

	if bucketMissing {
		if _, err := api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil && !isBucketAlreadyOwned(err) {
			reporter.ReportLogDeliveryFailure(apiErrorCode(err))
			return "", err
		}
	}

	if !exists {
		_, err := api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(folder + "/"),
			ContentLength: aws.Int64(0),
		})
		if err != nil {
			reporter.ReportLogDeliveryFailure(apiErrorCode(err))
			return "", err
		}
	}

	return folder, nil
}

// folderState reports whether the folder marker already exists and whether
// the bucket itself is missing.
func folderState(ctx context.Context, api S3API, bucket, folder string) (exists, bucketMissing bool, err error) {
	out, listErr := api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(folder + "/"),
	})
	if listErr != nil {
		if apiErrorCode(listErr) == "NoSuchBucket" {
			return false, true, nil
		}
		return false, false, listErr
	}
	return len(out.Contents) > 0, false, nil
}

func isBucketAlreadyOwned(err error) bool {
	code := apiErrorCode(err)
	return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
}
