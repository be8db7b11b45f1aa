package region

import (
	"image"
	"time"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/internal/imaging"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// DefaultPadding is added on every side of the chosen detection
const DefaultPadding = 10

// Options configures region selection
type Options struct {
	Params  DetectParams
	Padding int
}

// DefaultOptions returns the reference parameters
func DefaultOptions() Options {
	return Options{
		Params:  DefaultDetectParams(),
		Padding: DefaultPadding,
	}
}

// Selector chooses at most one photo region per document
type Selector interface {
	Select(raw *imaging.RawImage) (*models.PhotoRegion, error)
}

type selector struct {
	detector Detector
	opts     Options
}

// NewSelector creates a selector backed by detector
func NewSelector(detector Detector, opts Options) Selector {
	return &selector{detector: detector, opts: opts}
}

// Select returns the largest detection, padded and clamped to the image, with
// its pixels copied out. No detection gives (nil, nil). The crop is not
// persisted here.
func (s *selector) Select(raw *imaging.RawImage) (*models.PhotoRegion, error) {
	if !raw.Valid() {
		return nil, apperrors.NewDecodeError("no decodable image for region selection", nil)
	}
	start := time.Now()
	bounds := raw.Bounds()

	gray := imaging.Grayscale(raw.Image())
	rects, err := s.detector.Detect(gray, s.opts.Params)
	if err != nil {
		return nil, apperrors.NewDetectionError("face detection failed", err)
	}

	best, ok := largest(rects)
	if !ok {
		logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("No photo region detected")
		return nil, nil
	}

	chosen := best.Inset(-s.opts.Padding).Intersect(bounds)
	if chosen.Empty() {
		return nil, nil
	}

	logger.WithFields(logrus.Fields{
		"detections":  len(rects),
		"region":      chosen.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Selected photo region")

	return &models.PhotoRegion{
		X:      chosen.Min.X,
		Y:      chosen.Min.Y,
		Width:  chosen.Dx(),
		Height: chosen.Dy(),
		Image:  imaging.Crop(raw.Image(), chosen),
	}, nil
}

// largest returns the rectangle with the greatest area. Equal areas keep the
// earliest one.
func largest(rects []image.Rectangle) (image.Rectangle, bool) {
	found := false
	var best image.Rectangle
	bestArea := 0
	for _, r := range rects {
		r = r.Canon()
		area := r.Dx() * r.Dy()
		if !found || area > bestArea {
			best, bestArea, found = r, area, true
		}
	}
	return best, found
}
