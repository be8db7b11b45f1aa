// Package normalizer turns a scanned document into a clean black-and-white
// image for text recognition: grayscale, Otsu binarization, non-local-means
// denoising and a light dilation, always in that order.
package normalizer

import (
	"image"
	"time"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/internal/imaging"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Normalizer prepares document images for OCR
type Normalizer interface {
	Normalize(raw *imaging.RawImage) (*imaging.NormalizedImage, error)
}

type normalizer struct {
	opts Options
}

// New creates a normalizer; options are validated once here
func New(opts Options) (Normalizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid normalizer options", err)
	}
	return &normalizer{opts: opts}, nil
}

// Normalize runs the fixed four-step pass. The input is never modified and
// the same input always produces byte-identical output.
func (n *normalizer) Normalize(raw *imaging.RawImage) (*imaging.NormalizedImage, error) {
	if !raw.Valid() {
		return nil, apperrors.NewDecodeError("no decodable image to normalize", nil)
	}
	start := time.Now()

	gray := imaging.Grayscale(raw.Image())
	bounds := gray.Bounds()

	src, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC1, imaging.TightPix(gray))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to convert image for normalization", err)
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	threshold := gocv.Threshold(src, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.FastNlMeansDenoisingWithParams(binary, &denoised,
		float32(n.opts.Strength), n.opts.TemplateWindow, n.opts.SearchWindow)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(n.opts.DilateKernel, n.opts.DilateKernel))
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(denoised, &dilated, kernel)
	for i := 1; i < n.opts.DilateIterations; i++ {
		gocv.Dilate(dilated, &dilated, kernel)
	}

	out, err := toGray(dilated, bounds)
	if err != nil {
		return nil, apperrors.NewProcessingError("normalization produced no image", err)
	}

	logger.WithFields(logrus.Fields{
		"width":          raw.Width(),
		"height":         raw.Height(),
		"otsu_threshold": threshold,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("Normalized document image")

	return &imaging.NormalizedImage{Gray: out}, nil
}

// toGray copies a single-channel 8-bit Mat into a Gray image with bounds
func toGray(mat gocv.Mat, bounds image.Rectangle) (*image.Gray, error) {
	if mat.Empty() || mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, apperrors.NewProcessingError("unexpected matrix type", nil)
	}
	pix := mat.ToBytes()
	if mat.Rows() != bounds.Dy() || mat.Cols() != bounds.Dx() || len(pix) != bounds.Dx()*bounds.Dy() {
		return nil, apperrors.NewProcessingError("unexpected matrix size", nil)
	}
	return &image.Gray{Pix: pix, Stride: bounds.Dx(), Rect: bounds}, nil
}
