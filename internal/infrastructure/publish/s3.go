package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"AgenticDigest/internal/config"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
)

// putObjectAPI is the slice of the S3 client the publisher needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads rendered digests to a bucket.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

var _ ports.Publisher = (*S3Publisher)(nil)

// NewS3Publisher loads the default AWS credential chain with the optional
// region and profile overrides from cfg.
func NewS3Publisher(ctx context.Context, cfg config.S3Config, log *slog.Logger) (*S3Publisher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Publisher(client, cfg, log), nil
}

func newS3Publisher(client putObjectAPI, cfg config.S3Config, log *slog.Logger) *S3Publisher {
	if log == nil {
		log = logging.Discard()
	}
	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: log,
	}
}

// Publish stores body under prefix/name and returns the s3:// location.
func (p *S3Publisher) Publish(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := path.Base(name)
	if p.prefix != "" {
		key = p.prefix + "/" + key
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := p.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3: put %s/%s: %w", p.bucket, key, err)
	}

	location := "s3://" + p.bucket + "/" + key
	p.logger.Info("digest published", "location", location)
	return location, nil
}
