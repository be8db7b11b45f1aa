package storage

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureBlobStore reads documents from and writes photos to Azure Blob Storage
type AzureBlobStore struct {
	client         *azblob.Client
	photoContainer string
}

// NewAzureBlobStore creates a store for accountName using a shared key.
// photoContainer may be empty when the store is only used as a source.
func NewAzureBlobStore(accountName, accountKey, photoContainer string) (*AzureBlobStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}

	return &AzureBlobStore{client: client, photoContainer: photoContainer}, nil
}

// IsBlobURL reports whether ref points at Azure Blob Storage
func IsBlobURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), ".blob.core.windows.net")
}

// parseBlobURL splits a blob URL into container and blob name. Both
// https://acct.blob.core.windows.net/container/dir/name.png and the
// https://acct.blob.core.windows.net/container?blob=dir/name.png forms are accepted.
func parseBlobURL(blobURL string) (string, string, error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	containerName, blobName, _ := strings.Cut(path, "/")
	if blobName == "" {
		blobName = u.Query().Get("blob")
	}
	if containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("blob URL must name a container and a blob: %s", blobURL)
	}
	return containerName, blobName, nil
}

// Fetch implements DocumentSource
func (s *AzureBlobStore) Fetch(ctx context.Context, blobURL string) ([]byte, error) {
	containerName, blobName, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(io.LimitReader(retryReader, DefaultMaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	if len(data) > DefaultMaxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", DefaultMaxDocumentSize)
	}
	return data, nil
}

// Save implements PhotoSink by uploading the crop as a JPEG blob
func (s *AzureBlobStore) Save(ctx context.Context, photo image.Image) (string, error) {
	if s.photoContainer == "" {
		return "", fmt.Errorf("no photo container configured")
	}
	data, err := encodePhoto(photo)
	if err != nil {
		return "", err
	}

	name := PhotoName()
	contentType := "image/jpeg"
	_, err = s.client.UploadBuffer(ctx, s.photoContainer, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.client.URL(), "/"), s.photoContainer, name), nil
}
