package storage

import (
	"context"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

const contentType = "image/png"

// MinIO uploads to a MinIO bucket, creating it on first use.
type MinIO struct {
	client    *minio.Client
	bucket    string
	urlPrefix string
}

// NewMinIO connects to the endpoint and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	if missing := missingFields(
		"endpoint", cfg.Endpoint,
		"access_key", cfg.AccessKey,
		"secret_key", cfg.SecretKey,
		"bucket", cfg.Bucket,
	); len(missing) > 0 {
		return nil, misconfigured(TypeMinIO, missing...)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "create MinIO client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderUnreachable, err, "check MinIO bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeProviderUnreachable, err, "create MinIO bucket %s", cfg.Bucket)
		}
	}

	return &MinIO{client: client, bucket: cfg.Bucket, urlPrefix: cfg.URLPrefix}, nil
}

func (p *MinIO) Type() Type { return TypeMinIO }

func (p *MinIO) URLFor(remotePath string) string { return joinURL(p.urlPrefix, remotePath) }

func (p *MinIO) Upload(ctx context.Context, localPath, remotePath string) Result {
	return upload(ctx, p, localPath, remotePath, func(ctx context.Context, f *os.File, size int64) error {
		_, err := p.client.PutObject(ctx, p.bucket, remotePath, f, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	})
}
