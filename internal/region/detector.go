// Package region picks the photo area of a document from face detections.
package region

import "image"

// DetectParams are handed unchanged to the face detector
type DetectParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

// DefaultDetectParams returns the reference detection parameters
func DefaultDetectParams() DetectParams {
	return DetectParams{
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      image.Pt(50, 50),
	}
}

// Detector is the face detection capability. Rectangles are in the
// coordinate space of gray.
type Detector interface {
	Detect(gray *image.Gray, params DetectParams) ([]image.Rectangle, error)
}
