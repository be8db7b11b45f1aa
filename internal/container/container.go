package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/idcard-scanner-go/internal/config"
	"github.com/anime-shed/idcard-scanner-go/internal/factory"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"
	"github.com/anime-shed/idcard-scanner-go/internal/observer"
	"github.com/anime-shed/idcard-scanner-go/internal/pipeline"
	"github.com/anime-shed/idcard-scanner-go/internal/recognition"
	"github.com/anime-shed/idcard-scanner-go/internal/region"
	"github.com/anime-shed/idcard-scanner-go/internal/repository"
	"github.com/anime-shed/idcard-scanner-go/internal/service"
	"github.com/anime-shed/idcard-scanner-go/internal/storage"
	"github.com/anime-shed/idcard-scanner-go/internal/transport"
	"github.com/anime-shed/idcard-scanner-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	detector        *region.CascadeDetector
	processor       pipeline.Processor
	photoSink       storage.PhotoSink
	events          observer.Subject
	metrics         *observer.MetricsObserver
	documentService service.DocumentService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container backed by
// Tesseract and the configured face cascade
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	detector, err := components.ProcessorFactory.CreateDetector()
	if err != nil {
		return nil, fmt.Errorf("failed to load face detector: %w", err)
	}

	c, err := NewContainerWith(cfg, components, components.ProcessorFactory.CreateEngine(), detector)
	if err != nil {
		detector.Close()
		return nil, err
	}
	c.detector = detector
	return c, nil
}

// NewContainerWith builds the dependency graph around the given capabilities
func NewContainerWith(cfg *config.Config, components *factory.ComponentFactory, engine recognition.Engine, detector region.Detector) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	// Build dependency graph
	processor, err := components.ProcessorFactory.CreateProcessor(engine, detector)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	httpSource, err := components.StorageFactory.CreateSource(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}

	var blobSource storage.DocumentSource
	if cfg.AzureEnabled() {
		if blobSource, err = components.StorageFactory.CreateSource(factory.AzureStorage); err != nil {
			return nil, err
		}
	}

	photoSink, err := components.StorageFactory.CreatePhotoSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create photo sink: %w", err)
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	documentRepository := repository.NewURLDocumentRepository(
		httpSource,
		blobSource,
		validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts),
	)
	documentService := service.NewDocumentService(
		documentRepository,
		processor,
		photoSink,
		events,
		validation.NewUploadValidator(cfg.MaxRequestBodySize, nil),
		service.Options{AnalysisTimeout: cfg.AnalysisTimeout},
	)
	handler := transport.NewHandler(documentService, metrics, cfg)

	return &Container{
		config:          cfg,
		processor:       processor,
		photoSink:       photoSink,
		events:          events,
		metrics:         metrics,
		documentService: documentService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Processor returns the document pipeline
func (c *Container) Processor() pipeline.Processor {
	return c.processor
}

// PhotoSink returns the configured photo sink, nil when photos are not stored
func (c *Container) PhotoSink() storage.PhotoSink {
	return c.photoSink
}

// Events returns the event publisher
func (c *Container) Events() observer.Subject {
	return c.events
}

// Metrics returns the metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close releases native resources held by the face detector
func (c *Container) Close() error {
	if c.detector != nil {
		return c.detector.Close()
	}
	return nil
}
