package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
)

// DefaultAllowedExtensions lists the raster formats the decoder understands
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".webp"}

// UploadValidator checks uploaded document files before decoding
type UploadValidator struct {
	allowedExtensions map[string]struct{}
	maxSize           int64
}

// NewUploadValidator creates an upload validator. A maxSize of zero or less
// disables the size check; nil extensions fall back to the defaults.
func NewUploadValidator(maxSize int64, extensions []string) *UploadValidator {
	if extensions == nil {
		extensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &UploadValidator{allowedExtensions: allowed, maxSize: maxSize}
}

// ValidateUpload checks the file name extension and the payload size
func (v *UploadValidator) ValidateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.NewValidationError("file name cannot be empty", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := v.allowedExtensions[ext]; !ok {
		return apperrors.NewValidationError(fmt.Sprintf("file type %q not allowed", ext), nil)
	}

	if size <= 0 {
		return apperrors.NewValidationError("file is empty", nil)
	}

	if v.maxSize > 0 && size > v.maxSize {
		return apperrors.NewValidationError(
			fmt.Sprintf("file size %d exceeds limit of %d bytes", size, v.maxSize), nil)
	}

	return nil
}

// IsAllowedExtension reports whether the name carries an accepted extension
func (v *UploadValidator) IsAllowedExtension(filename string) bool {
	_, ok := v.allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}
