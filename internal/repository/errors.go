package repository

import "errors"

var (
	// ErrInvalidDocumentURL indicates an invalid document URL
	ErrInvalidDocumentURL = errors.New("invalid document URL")

	// ErrBlobSourceUnavailable indicates a blob URL was given but no blob store is configured
	ErrBlobSourceUnavailable = errors.New("blob storage is not configured")
)
