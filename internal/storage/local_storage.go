package storage

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anime-shed/idcard-scanner-go/internal/imaging"

	"github.com/google/uuid"
)

// PhotoQuality is the JPEG quality used for stored photo crops
const PhotoQuality = 95

// PhotoSink persists a photo crop and returns where it was stored.
// The sink alone decides naming and location.
type PhotoSink interface {
	Save(ctx context.Context, photo image.Image) (string, error)
}

// PhotoName returns a fresh, collision-free file name for a crop
func PhotoName() string {
	return fmt.Sprintf("photo_%s.jpg", uuid.NewString())
}

func encodePhoto(photo image.Image) ([]byte, error) {
	if photo == nil {
		return nil, fmt.Errorf("encode photo: no pixels")
	}
	return imaging.EncodeJPEG(photo, PhotoQuality)
}

// LocalStore reads documents from disk and writes photos into a directory
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store writing photos under dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Dir returns the photo directory
func (s *LocalStore) Dir() string {
	return s.dir
}

// Fetch implements DocumentSource for file paths
func (s *LocalStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > DefaultMaxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", DefaultMaxDocumentSize)
	}
	return os.ReadFile(path)
}

// Save implements PhotoSink
func (s *LocalStore) Save(ctx context.Context, photo image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encodePhoto(photo)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}

	path := filepath.Join(s.dir, PhotoName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path, nil
}
