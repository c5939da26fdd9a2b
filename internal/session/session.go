// Package session builds the AWS capability bundle (spec.md §3, C2) a
// handler invocation uses to reach CloudWatch Logs, S3, and CloudWatch
// metrics under one credential triple (internal/pipeline builds it from the
// event's provider credentials).
package session

import (
	"context"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cloudforge-run/provider-runtime/internal/request"
)

// Clients is the set of AWS service clients a Session can mint; *Session
// satisfies it. Its methods return the concrete SDK clients, so tests fake
// the narrower per-package API interfaces (internal/logsink,
// internal/loghelper, internal/pipeline) rather than this one.
type Clients interface {
	CloudWatchLogs() *cloudwatchlogs.Client
	CloudWatch() *cloudwatch.Client
	S3() *s3.Client
}

// Session bundles one set of credentials with lazily-constructed,
// memoized service clients for a single invocation's lifetime.
type Session struct {
	region string

	mu   sync.Mutex
	logs *cloudwatchlogs.Client
	cw   *cloudwatch.Client
	s3c  *s3.Client
	cfg  awssdk.Config
}

// From builds a Session from a credential triple and region. It returns nil
// (not an error) when creds is nil, mirroring the source runtime's
// "no session without credentials" rule: callers check for nil before
// attempting to log or publish metrics.
func From(creds *request.Credentials, region string) *Session {
	if creds == nil {
		return nil
	}
	provider := credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
	)
	cfg := awssdk.Config{
		Region:      region,
		Credentials: provider,
	}
	return &Session{region: region, cfg: cfg}
}

func (s *Session) CloudWatchLogs() *cloudwatchlogs.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logs == nil {
		s.logs = cloudwatchlogs.NewFromConfig(s.cfg)
	}
	return s.logs
}

func (s *Session) CloudWatch() *cloudwatch.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cw == nil {
		s.cw = cloudwatch.NewFromConfig(s.cfg)
	}
	return s.cw
}

func (s *Session) S3() *s3.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.s3c == nil {
		s.s3c = s3.NewFromConfig(s.cfg)
	}
	return s.s3c
}

func (s *Session) Region() string {
	return s.region
}

// Retrieve resolves the static credential provider once, mostly useful in
// tests asserting a Session was built from the expected triple.
func (s *Session) Retrieve(ctx context.Context) (awssdk.Credentials, error) {
	return s.cfg.Credentials.Retrieve(ctx)
}
