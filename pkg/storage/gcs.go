package storage

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// GCS uploads to a Google Cloud Storage bucket.
type GCS struct {
	bucket    *storage.BucketHandle
	urlPrefix string
}

// NewGCS builds a client and checks that the bucket exists.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if missing := missingFields("bucket", cfg.Bucket, "url_prefix", cfg.URLPrefix); len(missing) > 0 {
		return nil, misconfigured(TypeGCS, missing...)
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "create GCS client")
	}

	bucket := client.Bucket(cfg.Bucket)
	if _, err := bucket.Attrs(ctx); err != nil {
		_ = client.Close()
		if stderrors.Is(err, storage.ErrBucketNotExist) {
			return nil, errors.New(errors.ErrCodeProviderMisconfigured, "GCS bucket %q does not exist", cfg.Bucket)
		}
		return nil, errors.Wrap(errors.ErrCodeProviderUnreachable, err, "check GCS bucket %s", cfg.Bucket)
	}

	return &GCS{bucket: bucket, urlPrefix: cfg.URLPrefix}, nil
}

func (p *GCS) Type() Type { return TypeGCS }

func (p *GCS) URLFor(remotePath string) string { return joinURL(p.urlPrefix, remotePath) }

// Upload writes the object and then tries to make it publicly readable. A
// failure to change the ACL is ignored; uniform bucket-level access rejects
// it and the bucket policy decides visibility instead.
func (p *GCS) Upload(ctx context.Context, localPath, remotePath string) Result {
	return upload(ctx, p, localPath, remotePath, func(ctx context.Context, f *os.File, _ int64) error {
		obj := p.bucket.Object(remotePath)
		w := obj.NewWriter(ctx)
		w.ContentType = contentType
		if _, err := io.Copy(w, f); err != nil {
			_ = w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		_ = obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader)
		return nil
	})
}
