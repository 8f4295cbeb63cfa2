package storage

import (
	"context"
	"os"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// OSS uploads to an Aliyun Object Storage Service bucket.
type OSS struct {
	bucket    *oss.Bucket
	urlPrefix string
}

// NewOSS builds the client. The bucket is not probed; the first upload
// reports access problems.
func NewOSS(cfg OSSConfig) (*OSS, error) {
	if missing := missingFields(
		"access_key_id", cfg.AccessKeyID,
		"access_key_secret", cfg.AccessKeySecret,
		"endpoint", cfg.Endpoint,
		"bucket", cfg.Bucket,
		"url_prefix", cfg.URLPrefix,
	); len(missing) > 0 {
		return nil, misconfigured(TypeAliyunOSS, missing...)
	}

	var opts []oss.ClientOption
	if cfg.Region != "" {
		opts = append(opts, oss.Region(cfg.Region), oss.AuthVersion(oss.AuthV4))
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "create Aliyun OSS client")
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "open Aliyun OSS bucket %s", cfg.Bucket)
	}
	return &OSS{bucket: bucket, urlPrefix: cfg.URLPrefix}, nil
}

func (p *OSS) Type() Type { return TypeAliyunOSS }

func (p *OSS) URLFor(remotePath string) string { return joinURL(p.urlPrefix, remotePath) }

func (p *OSS) Upload(ctx context.Context, localPath, remotePath string) Result {
	return upload(ctx, p, localPath, remotePath, func(ctx context.Context, f *os.File, _ int64) error {
		return p.bucket.PutObject(remotePath, f, oss.ContentType(contentType), oss.WithContext(ctx))
	})
}
