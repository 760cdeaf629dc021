package publish

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"AgenticDigest/internal/config"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		raw, _ := io.ReadAll(in.Body)
		f.body = string(raw)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestPublishUploadsUnderPrefix(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	pub := newS3Publisher(fake, config.S3Config{Bucket: "digests", Prefix: "/weekly/"}, nil)

	location, err := pub.Publish(context.Background(), "out/output.html", "text/html; charset=utf-8", strings.NewReader("<html></html>"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if location != "s3://digests/weekly/output.html" {
		t.Fatalf("unexpected location %s", location)
	}
	if aws.ToString(fake.input.Bucket) != "digests" || aws.ToString(fake.input.Key) != "weekly/output.html" {
		t.Fatalf("unexpected input %+v", fake.input)
	}
	if aws.ToString(fake.input.ContentType) != "text/html; charset=utf-8" {
		t.Fatalf("content type not set")
	}
	if fake.body != "<html></html>" {
		t.Fatalf("unexpected body %q", fake.body)
	}
}

func TestPublishPropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("access denied")
	pub := newS3Publisher(&fakeS3{err: boom}, config.S3Config{Bucket: "b"}, nil)
	if _, err := pub.Publish(context.Background(), "x.pdf", "", strings.NewReader("x")); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
