package factory

import (
	"fmt"

	"github.com/anime-shed/idcard-scanner-go/internal/config"
	"github.com/anime-shed/idcard-scanner-go/internal/extraction"
	"github.com/anime-shed/idcard-scanner-go/internal/normalizer"
	"github.com/anime-shed/idcard-scanner-go/internal/pipeline"
	"github.com/anime-shed/idcard-scanner-go/internal/recognition"
	"github.com/anime-shed/idcard-scanner-go/internal/region"
	"github.com/anime-shed/idcard-scanner-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based document fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// ProcessorFactory creates document pipelines and their capabilities
type ProcessorFactory interface {
	CreateEngine() recognition.Engine
	CreateDetector() (*region.CascadeDetector, error)
	CreateProcessor(engine recognition.Engine, detector region.Detector) (pipeline.Processor, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateSource(storageType StorageType) (storage.DocumentSource, error)
	CreatePhotoSink() (storage.PhotoSink, error)
}

// processorFactory implements ProcessorFactory
type processorFactory struct {
	cfg *config.Config
}

// NewProcessorFactory creates a new processor factory
func NewProcessorFactory(cfg *config.Config) ProcessorFactory {
	return &processorFactory{cfg: cfg}
}

// CreateEngine creates the Tesseract recognition engine
func (f *processorFactory) CreateEngine() recognition.Engine {
	return recognition.NewTesseractEngine(f.cfg.TessdataPrefix)
}

// CreateDetector loads the configured face cascade. The caller owns Close.
func (f *processorFactory) CreateDetector() (*region.CascadeDetector, error) {
	return region.NewCascadeDetector(f.cfg.FaceCascadePath)
}

// CreateProcessor wires the four stages around the given capabilities
func (f *processorFactory) CreateProcessor(engine recognition.Engine, detector region.Detector) (pipeline.Processor, error) {
	if engine == nil || detector == nil {
		return nil, fmt.Errorf("recognition engine and face detector are required")
	}

	norm, err := normalizer.New(f.cfg.NormalizerOptions())
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		norm,
		recognition.NewRecognizer(engine, f.cfg.OCRLanguage),
		extraction.NewExtractor(extraction.DefaultRules()),
		region.NewSelector(detector, f.cfg.RegionOptions()),
	), nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg   *config.Config
	azure *storage.AzureBlobStore
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateSource creates a document source based on the specified type
func (f *storageFactory) CreateSource(storageType StorageType) (storage.DocumentSource, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPFetcher(f.cfg.FetchTimeout).WithMaxSize(f.cfg.MaxRequestBodySize), nil
	case AzureStorage:
		store, err := f.azureStore()
		if err != nil {
			return nil, err
		}
		return store, nil
	case LocalStorage:
		return storage.NewLocalStore(f.cfg.OutputDir), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// CreatePhotoSink creates the configured photo sink; PHOTO_SINK=none gives nil
func (f *storageFactory) CreatePhotoSink() (storage.PhotoSink, error) {
	switch f.cfg.PhotoSink {
	case config.PhotoSinkLocal:
		return storage.NewLocalStore(f.cfg.OutputDir), nil
	case config.PhotoSinkAzure:
		store, err := f.azureStore()
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.PhotoSinkNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported photo sink: %s", f.cfg.PhotoSink)
	}
}

// azureStore shares one client between the source and the sink
func (f *storageFactory) azureStore() (*storage.AzureBlobStore, error) {
	if f.azure != nil {
		return f.azure, nil
	}
	if !f.cfg.AzureEnabled() {
		return nil, fmt.Errorf("azure storage is not configured")
	}
	store, err := storage.NewAzureBlobStore(f.cfg.AzureAccount, f.cfg.AzureKey, f.cfg.AzurePhotoContainer)
	if err != nil {
		return nil, err
	}
	f.azure = store
	return store, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ProcessorFactory ProcessorFactory
	StorageFactory   StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		ProcessorFactory: NewProcessorFactory(cfg),
		StorageFactory:   NewStorageFactory(cfg),
	}
}
