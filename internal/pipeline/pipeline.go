// Package pipeline runs the document stages in order and folds every stage
// failure into a single ProcessingResult.
package pipeline

import (
	"fmt"
	"runtime/debug"
	"time"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/internal/extraction"
	"github.com/anime-shed/idcard-scanner-go/internal/imaging"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"
	"github.com/anime-shed/idcard-scanner-go/internal/normalizer"
	"github.com/anime-shed/idcard-scanner-go/internal/recognition"
	"github.com/anime-shed/idcard-scanner-go/internal/region"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Processor is the entry point for processing one document
type Processor interface {
	Process(raw *imaging.RawImage) *models.ProcessingResult
	ProcessBytes(data []byte) *models.ProcessingResult
}

// pipeline holds only read-only collaborators and is safe for concurrent use
type pipeline struct {
	normalizer normalizer.Normalizer
	recognizer recognition.Recognizer
	extractor  extraction.Extractor
	selector   region.Selector
}

// New wires the four stages together
func New(n normalizer.Normalizer, r recognition.Recognizer, e extraction.Extractor, s region.Selector) Processor {
	return &pipeline{
		normalizer: n,
		recognizer: r,
		extractor:  e,
		selector:   s,
	}
}

// ProcessBytes decodes data and processes it
func (p *pipeline) ProcessBytes(data []byte) *models.ProcessingResult {
	raw, err := imaging.Decode(data)
	if err != nil {
		result := &models.ProcessingResult{}
		fail(result, err)
		logger.WithError(err).Warn("Document could not be decoded")
		return result
	}
	return p.Process(raw)
}

// Process runs normalize, recognize, extract and select. Nothing escapes:
// stage errors and panics are reported through the result.
//
// A decode failure stops everything. Recognition and extraction failures
// mark the result failed but the photo region is still selected. Detection
// failures are logged and treated as "no photo".
func (p *pipeline) Process(raw *imaging.RawImage) (result *models.ProcessingResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered panic during document processing")
			result = &models.ProcessingResult{}
			fail(result, apperrors.NewInternalError(fmt.Sprintf("document processing panicked: %v", r), nil))
		}
	}()

	result = &models.ProcessingResult{Success: true}

	norm, err := p.normalizer.Normalize(raw)
	if err != nil {
		fail(result, err)
		return result
	}
	normalized := time.Since(start)

	p.readText(result, norm)
	recognized := time.Since(start)

	photo, err := p.selector.Select(raw)
	switch {
	case err == nil:
		result.SetPhoto(photo)
	case apperrors.IsType(err, apperrors.ErrorTypeDetection):
		logger.WithError(err).Warn("Face detection failed, continuing without photo")
	default:
		fail(result, err)
	}

	logger.WithFields(logrus.Fields{
		"success":         result.Success,
		"photo_extracted": result.PhotoExtracted,
		"normalize_ms":    normalized.Milliseconds(),
		"text_ms":         (recognized - normalized).Milliseconds(),
		"region_ms":       (time.Since(start) - recognized).Milliseconds(),
		"total_ms":        time.Since(start).Milliseconds(),
	}).Debug("Document processed")

	return result
}

// readText fills ExtractedText and StudentData. Blank text is a success with
// an empty record.
func (p *pipeline) readText(result *models.ProcessingResult, norm *imaging.NormalizedImage) {
	text, err := p.recognizer.Recognize(norm)
	if err != nil {
		fail(result, err)
		return
	}
	if text == "" {
		result.ExtractedText = &text
		result.StudentData = &models.StudentRecord{}
		return
	}

	record, err := p.extractor.Extract(text)
	if err != nil {
		fail(result, err)
		return
	}
	result.ExtractedText = &text
	result.StudentData = record

	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		if matches, err := p.extractor.Trace(text); err == nil {
			logger.WithField("matches", matches).Debug("Extracted student fields")
		}
	}
}

func fail(result *models.ProcessingResult, err error) {
	result.Fail(string(apperrors.TypeOf(err)), err)
}
