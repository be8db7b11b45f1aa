package service

import (
	"context"
	"time"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/internal/evaluation"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"
	"github.com/anime-shed/idcard-scanner-go/internal/observer"
	"github.com/anime-shed/idcard-scanner-go/internal/pipeline"
	"github.com/anime-shed/idcard-scanner-go/internal/repository"
	"github.com/anime-shed/idcard-scanner-go/internal/storage"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"
	"github.com/anime-shed/idcard-scanner-go/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DocumentService fetches, processes and post-processes student ID documents.
// Pipeline failures are reported inside the response; the returned error is
// reserved for problems before or around the pipeline (validation, fetching,
// timeouts).
type DocumentService interface {
	ProcessURL(ctx context.Context, request models.ProcessRequest) (*models.DocumentResponse, error)
	ProcessUpload(ctx context.Context, filename string, data []byte, expectedText string) (*models.DocumentResponse, error)
	ValidateDocumentURL(documentURL string) error
}

// Options configures the document service
type Options struct {
	// AnalysisTimeout bounds a single pipeline run; zero disables the bound
	AnalysisTimeout time.Duration
}

// documentService implements DocumentService
type documentService struct {
	repo      repository.DocumentRepository
	processor pipeline.Processor
	sink      storage.PhotoSink
	events    observer.Subject
	uploads   *validation.UploadValidator
	opts      Options
}

// NewDocumentService creates a new document service. sink may be nil, in
// which case photo crops are reported but not persisted.
func NewDocumentService(
	repo repository.DocumentRepository,
	processor pipeline.Processor,
	sink storage.PhotoSink,
	events observer.Subject,
	uploads *validation.UploadValidator,
	opts Options,
) DocumentService {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	if uploads == nil {
		uploads = validation.NewUploadValidator(0, nil)
	}
	return &documentService{
		repo:      repo,
		processor: processor,
		sink:      sink,
		events:    events,
		uploads:   uploads,
		opts:      opts,
	}
}

// ProcessURL fetches the referenced document and processes it
func (s *documentService) ProcessURL(ctx context.Context, request models.ProcessRequest) (*models.DocumentResponse, error) {
	if err := s.ValidateDocumentURL(request.URL); err != nil {
		return nil, apperrors.NewValidationError("invalid document URL", err)
	}

	requestID := uuid.NewString()
	fetchStart := time.Now()
	data, err := s.repo.FetchDocument(ctx, request.URL)
	if err != nil {
		s.publish(ctx, observer.DocumentEvent{
			EventType:      observer.DocumentFetchFailed,
			RequestID:      requestID,
			Source:         request.URL,
			ProcessingTime: time.Since(fetchStart),
			ErrorType:      string(apperrors.ErrorTypeNetwork),
			ErrorMessage:   err.Error(),
		})
		return nil, apperrors.NewNetworkError("failed to fetch document", err)
	}
	s.publish(ctx, observer.DocumentEvent{
		EventType:      observer.DocumentFetched,
		RequestID:      requestID,
		Source:         request.URL,
		ProcessingTime: time.Since(fetchStart),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(data)},
	})

	return s.process(ctx, requestID, request.URL, data, request.ExpectedText)
}

// ProcessUpload validates and processes an uploaded document
func (s *documentService) ProcessUpload(ctx context.Context, filename string, data []byte, expectedText string) (*models.DocumentResponse, error) {
	if err := s.uploads.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}
	return s.process(ctx, uuid.NewString(), filename, data, expectedText)
}

// ValidateDocumentURL validates the document URL
func (s *documentService) ValidateDocumentURL(documentURL string) error {
	return s.repo.ValidateDocumentURL(documentURL)
}

func (s *documentService) process(ctx context.Context, requestID, source string, data []byte, expectedText string) (*models.DocumentResponse, error) {
	start := time.Now()
	log := logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"source":     source,
	})
	log.Info("Processing document")
	s.publish(ctx, observer.DocumentEvent{
		EventType: observer.DocumentStarted,
		RequestID: requestID,
		Source:    source,
	})

	result, err := s.run(ctx, data)
	if err != nil {
		s.publish(ctx, observer.DocumentEvent{
			EventType:      observer.DocumentFailed,
			RequestID:      requestID,
			Source:         source,
			ProcessingTime: time.Since(start),
			ErrorType:      string(apperrors.TypeOf(err)),
			ErrorMessage:   err.Error(),
		})
		log.WithError(err).Error("Document processing aborted")
		return nil, err
	}

	if result.Photo != nil {
		s.savePhoto(ctx, log, result.Photo)
		s.publish(ctx, observer.DocumentEvent{
			EventType: observer.PhotoExtracted,
			RequestID: requestID,
			Source:    source,
			Success:   true,
			Metadata: map[string]interface{}{
				"photo_path": result.Photo.Path,
				"width":      result.Photo.Width,
				"height":     result.Photo.Height,
			},
		})
	}

	response := &models.DocumentResponse{
		RequestID:         requestID,
		Source:            source,
		Timestamp:         start.UTC().Format(time.RFC3339),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Result:            result,
	}

	if expectedText != "" {
		var recognized string
		if result.ExtractedText != nil {
			recognized = *result.ExtractedText
		}
		eval := evaluation.Evaluate(expectedText, recognized)
		response.Evaluation = &eval
	}

	event := observer.DocumentEvent{
		EventType:      observer.DocumentCompleted,
		RequestID:      requestID,
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        result.Success,
		Metadata:       map[string]interface{}{"photo_extracted": result.PhotoExtracted},
	}
	if !result.Success {
		event.EventType = observer.DocumentFailed
		event.ErrorType = result.ErrorType
		event.ErrorMessage = result.Error
	}
	s.publish(ctx, event)

	log.WithFields(logrus.Fields{
		"success":             result.Success,
		"error_type":          result.ErrorType,
		"photo_extracted":     result.PhotoExtracted,
		"processing_time_sec": response.ProcessingTimeSec,
	}).Info("Document processed")

	return response, nil
}

// run executes the pipeline under the analysis timeout. A run that overruns
// keeps going in the background and its result is discarded.
func (s *documentService) run(ctx context.Context, data []byte) (*models.ProcessingResult, error) {
	if s.opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AnalysisTimeout)
		defer cancel()
	}

	done := make(chan *models.ProcessingResult, 1)
	go func() {
		done <- s.processor.ProcessBytes(data)
	}()

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return nil, apperrors.NewTimeoutError("document analysis timed out", ctx.Err())
	}
}

// savePhoto hands the crop to the sink. A failed save leaves Path empty and
// does not fail the document.
func (s *documentService) savePhoto(ctx context.Context, log *logrus.Entry, photo *models.PhotoRegion) {
	if s.sink == nil || photo.Image == nil {
		return
	}
	path, err := s.sink.Save(ctx, photo.Image)
	if err != nil {
		log.WithError(err).Warn("Failed to store photo crop")
		return
	}
	photo.Path = path
}

func (s *documentService) publish(ctx context.Context, event observer.DocumentEvent) {
	s.events.NotifyObservers(ctx, event)
}
