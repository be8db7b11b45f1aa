package repository

import (
	"context"
	"fmt"

	"github.com/anime-shed/idcard-scanner-go/internal/storage"
	"github.com/anime-shed/idcard-scanner-go/pkg/validation"
)

// URLDocumentRepository implements DocumentRepository over HTTP(S) and,
// when configured, Azure Blob Storage
type URLDocumentRepository struct {
	http      storage.DocumentSource
	blob      storage.DocumentSource
	validator *validation.URLValidator
}

// NewURLDocumentRepository creates a repository. blob may be nil.
func NewURLDocumentRepository(http, blob storage.DocumentSource, validator *validation.URLValidator) DocumentRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &URLDocumentRepository{
		http:      http,
		blob:      blob,
		validator: validator,
	}
}

// FetchDocument routes blob URLs to blob storage and everything else to HTTP
func (r *URLDocumentRepository) FetchDocument(ctx context.Context, documentURL string) ([]byte, error) {
	if storage.IsBlobURL(documentURL) {
		if r.blob == nil {
			return nil, ErrBlobSourceUnavailable
		}
		return r.blob.Fetch(ctx, documentURL)
	}
	return r.http.Fetch(ctx, documentURL)
}

// ValidateDocumentURL validates if the provided URL is acceptable
func (r *URLDocumentRepository) ValidateDocumentURL(documentURL string) error {
	if documentURL == "" {
		return ErrInvalidDocumentURL
	}
	if err := r.validator.ValidateImageURL(documentURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocumentURL, err)
	}
	return nil
}
