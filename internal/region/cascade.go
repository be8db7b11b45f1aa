package region

import (
	"fmt"
	"image"
	"sync"

	"github.com/anime-shed/idcard-scanner-go/internal/imaging"

	"gocv.io/x/gocv"
)

// CascadeDetector finds frontal faces with an OpenCV Haar cascade
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads the cascade XML at path
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade from %s", path)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Detect implements Detector. The classifier is not safe for concurrent
// use, so calls are serialized.
func (d *CascadeDetector) Detect(gray *image.Gray, params DetectParams) ([]image.Rectangle, error) {
	bounds := gray.Bounds()
	mat, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC1, imaging.TightPix(gray))
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(mat, params.ScaleFactor, params.MinNeighbors, 0, params.MinSize, image.Point{})
	d.mu.Unlock()

	for i := range rects {
		rects[i] = rects[i].Add(bounds.Min)
	}
	return rects, nil
}

// Close releases the classifier
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
