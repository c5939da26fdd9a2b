package session

import (
	"context"
	"testing"

	"github.com/cloudforge-run/provider-runtime/internal/request"
)

func TestFromNilCredentialsReturnsNil(t *testing.T) {
	if s := From(nil, "us-east-1"); s != nil {
		t.Errorf("expected nil session for nil credentials, got %v", s)
	}
}

func TestFromBuildsSession(t *testing.T) {
	creds := &request.Credentials{
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		SessionToken:    "token",
	}
	s := From(creds, "us-west-2")
	if s == nil {
		t.Fatal("expected non-nil session")
	}
	if s.Region() != "us-west-2" {
		t.Errorf("region = %q", s.Region())
	}

	got, err := s.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got.AccessKeyID != "AKIAEXAMPLE" || got.SecretAccessKey != "secret" || got.SessionToken != "token" {
		t.Errorf("unexpected credentials: %+v", got)
	}
}

func TestClientsMemoized(t *testing.T) {
	creds := &request.Credentials{AccessKeyID: "a", SecretAccessKey: "b"}
	s := From(creds, "us-east-1")

	if s.CloudWatchLogs() != s.CloudWatchLogs() {
		t.Error("expected CloudWatchLogs client to be memoized")
	}
	if s.CloudWatch() != s.CloudWatch() {
		t.Error("expected CloudWatch client to be memoized")
	}
	if s.S3() != s.S3() {
		t.Error("expected S3 client to be memoized")
	}
}
