package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// Azure uploads block blobs to an Azure Storage container.
type Azure struct {
	client    *azblob.Client
	container string
	urlPrefix string
}

// NewAzure authenticates with the account key and creates the container if
// it does not exist yet.
func NewAzure(ctx context.Context, cfg AzureConfig) (*Azure, error) {
	if missing := missingFields(
		"account_name", cfg.AccountName,
		"account_key", cfg.AccountKey,
		"container", cfg.Container,
	); len(missing) > 0 {
		return nil, misconfigured(TypeAzure, missing...)
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "invalid Azure account key")
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderMisconfigured, err, "create Azure client")
	}

	if _, err := client.CreateContainer(ctx, cfg.Container, nil); err != nil &&
		!bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, errors.Wrap(errors.ErrCodeProviderUnreachable, err, "create Azure container %s", cfg.Container)
	}

	prefix := cfg.URLPrefix
	if prefix == "" {
		prefix = serviceURL + cfg.Container
	}
	return &Azure{client: client, container: cfg.Container, urlPrefix: prefix}, nil
}

func (p *Azure) Type() Type { return TypeAzure }

func (p *Azure) URLFor(remotePath string) string { return joinURL(p.urlPrefix, remotePath) }

func (p *Azure) Upload(ctx context.Context, localPath, remotePath string) Result {
	return upload(ctx, p, localPath, remotePath, func(ctx context.Context, f *os.File, _ int64) error {
		_, err := p.client.UploadFile(ctx, p.container, remotePath, f, uploadOptions())
		return err
	})
}

// uploadOptions sets the blob content type so public URLs serve as PNG.
func uploadOptions() *azblob.UploadFileOptions {
	ct := contentType
	return &azblob.UploadFileOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	}
}
