package repository

import (
	"context"
)

// DocumentRepository defines the interface for document data access operations
type DocumentRepository interface {
	// FetchDocument retrieves the encoded bytes of a document by URL
	FetchDocument(ctx context.Context, documentURL string) ([]byte, error)

	// ValidateDocumentURL validates if the provided URL is acceptable
	ValidateDocumentURL(documentURL string) error
}
