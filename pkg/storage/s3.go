package storage

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// S3 uploads to an Amazon S3 bucket.
type S3 struct {
	client    *s3.Client
	bucket    string
	urlPrefix string
}

// NewS3 loads the AWS configuration. Static keys are used when both are
// set, otherwise the default credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if missing := missingFields("bucket", cfg.Bucket, "region", cfg.Region, "url_prefix", cfg.URLPrefix); len(missing) > 0 {
		return nil, misconfigured(TypeS3, missing...)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "load AWS configuration")
	}

	return &S3{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		urlPrefix: cfg.URLPrefix,
	}, nil
}

func (p *S3) Type() Type { return TypeS3 }

func (p *S3) URLFor(remotePath string) string { return joinURL(p.urlPrefix, remotePath) }

func (p *S3) Upload(ctx context.Context, localPath, remotePath string) Result {
	return upload(ctx, p, localPath, remotePath, func(ctx context.Context, f *os.File, size int64) error {
		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(p.bucket),
			Key:           aws.String(remotePath),
			Body:          f,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(contentType),
		})
		return err
	})
}
