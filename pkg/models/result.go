package models

import "image"

// PhotoRegion is the crop chosen by the region selector, in source image coordinates
type PhotoRegion struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// Path is filled in by the storage collaborator once the crop is persisted
	Path string `json:"photo_path,omitempty"`

	// Image holds the cropped pixels
	Image image.Image `json:"-"`
}

// Bounds returns the region as an image.Rectangle
func (p *PhotoRegion) Bounds() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// ProcessingResult is the single outcome of a document processing invocation.
// Success is true exactly when Error is empty.
type ProcessingResult struct {
	Success        bool           `json:"success"`
	ExtractedText  *string        `json:"extracted_text"`
	StudentData    *StudentRecord `json:"student_data"`
	Photo          *PhotoRegion   `json:"photo,omitempty"`
	PhotoExtracted bool           `json:"photo_extracted"`
	Error          string         `json:"error,omitempty"`
	ErrorType      string         `json:"error_type,omitempty"`

	// Cause keeps the typed error for callers that need to map it (e.g. to HTTP status)
	Cause error `json:"-"`
}

// Fail marks the result as failed with the given error
func (r *ProcessingResult) Fail(errType string, err error) {
	r.Success = false
	r.Error = err.Error()
	r.ErrorType = errType
	r.Cause = err
}

// SetPhoto attaches a chosen photo region
func (r *ProcessingResult) SetPhoto(photo *PhotoRegion) {
	r.Photo = photo
	r.PhotoExtracted = photo != nil
}
