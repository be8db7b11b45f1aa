// Package recognition adapts an OCR engine to the document pipeline.
package recognition

import (
	"image"
	"strings"
	"time"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/internal/imaging"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// DefaultLanguage is the only recognition language requested unless configured otherwise
const DefaultLanguage = "eng"

// Engine is the text recognition capability
type Engine interface {
	Recognize(img image.Image, language string) (string, error)
}

// Recognizer turns a normalized image into plain text
type Recognizer interface {
	Recognize(norm *imaging.NormalizedImage) (string, error)
}

type recognizer struct {
	engine   Engine
	language string
}

// NewRecognizer wraps engine; an empty language means DefaultLanguage
func NewRecognizer(engine Engine, language string) Recognizer {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	return &recognizer{engine: engine, language: language}
}

// Recognize hands the normalized image to the engine and trims the result.
// Empty text is a valid outcome.
func (r *recognizer) Recognize(norm *imaging.NormalizedImage) (string, error) {
	if norm == nil || norm.Gray == nil {
		return "", apperrors.NewRecognitionError("no normalized image to recognize", "", nil)
	}
	start := time.Now()

	text, err := r.engine.Recognize(norm.Gray, r.language)
	if err != nil {
		return "", apperrors.NewRecognitionError("text recognition failed", err.Error(), err)
	}
	text = strings.TrimSpace(text)

	logger.WithFields(logrus.Fields{
		"language":    r.language,
		"characters":  len(text),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Recognized document text")

	return text, nil
}
