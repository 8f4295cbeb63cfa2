package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/huaweicloud/huaweicloud-sdk-go-obs/obs"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// OBS uploads to a Huawei Cloud OBS (OceanStor compatible) bucket.
type OBS struct {
	client    *obs.ObsClient
	bucket    string
	urlPrefix string
}

// NewOBS builds the client. The bucket is not probed; the first upload
// reports access problems.
func NewOBS(cfg OBSConfig) (*OBS, error) {
	if missing := missingFields(
		"access_key_id", cfg.AccessKeyID,
		"secret_access_key", cfg.SecretAccessKey,
		"endpoint", cfg.Endpoint,
		"bucket", cfg.Bucket,
		"url_prefix", cfg.URLPrefix,
	); len(missing) > 0 {
		return nil, misconfigured(TypeHuaweiOBS, missing...)
	}

	var client *obs.ObsClient
	var err error
	if cfg.Region != "" {
		client, err = obs.New(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Endpoint, obs.WithRegion(cfg.Region))
	} else {
		client, err = obs.New(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Endpoint)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "create Huawei OBS client")
	}
	return &OBS{client: client, bucket: cfg.Bucket, urlPrefix: cfg.URLPrefix}, nil
}

func (p *OBS) Type() Type { return TypeHuaweiOBS }

func (p *OBS) URLFor(remotePath string) string { return joinURL(p.urlPrefix, remotePath) }

func (p *OBS) Upload(ctx context.Context, localPath, remotePath string) Result {
	return upload(ctx, p, localPath, remotePath, func(_ context.Context, f *os.File, size int64) error {
		input := &obs.PutObjectInput{}
		input.Bucket = p.bucket
		input.Key = remotePath
		input.ContentType = contentType
		input.ContentLength = size
		input.Body = f
		out, err := p.client.PutObject(input)
		if err != nil {
			return err
		}
		if out.StatusCode >= 300 {
			return fmt.Errorf("upload failed with status %d", out.StatusCode)
		}
		return nil
	})
}
